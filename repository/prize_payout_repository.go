package repository

import (
	"context"
	"fmt"
	"time"

	"sweatstakes/database"
	"sweatstakes/domain/entities"

	"github.com/jackc/pgx/v5"
)

// PrizePayoutRepository implements prize payout data access
type PrizePayoutRepository struct {
	q Queryable
}

// NewPrizePayoutRepository creates a new prize payout repository
func NewPrizePayoutRepository(db *database.DB) *PrizePayoutRepository {
	return &PrizePayoutRepository{q: db.Pool}
}

// newPrizePayoutRepository creates a new prize payout repository with a transaction
func newPrizePayoutRepository(tx Queryable) *PrizePayoutRepository {
	return &PrizePayoutRepository{q: tx}
}

const payoutColumns = `
	id, pool_id, competition_id, winner_id, placement, amount, status,
	retry_count, fulfillment_order_ref, fulfillment_reward_ref, failure_reason,
	claim_expires_at, claimed_at, delivered_at, created_at, updated_at
`

// Create creates a payout row for a settled pool
func (r *PrizePayoutRepository) Create(ctx context.Context, payout *entities.PrizePayout) error {
	query := `
		INSERT INTO prize_payouts (
			pool_id, competition_id, winner_id, placement, amount, status, claim_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		payout.PoolID,
		payout.CompetitionID,
		payout.WinnerID,
		payout.Placement,
		payout.Amount,
		payout.Status,
		payout.ClaimExpiresAt,
	).Scan(&payout.ID, &payout.CreatedAt, &payout.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create prize payout: %w", err)
	}

	return nil
}

// GetByID retrieves a payout by its ID
func (r *PrizePayoutRepository) GetByID(ctx context.Context, id int64) (*entities.PrizePayout, error) {
	query := `SELECT ` + payoutColumns + ` FROM prize_payouts WHERE id = $1`

	payout, err := scanPayout(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout by ID %d: %w", id, err)
	}

	return payout, nil
}

// GetByOrderRef retrieves a payout by its fulfillment order reference
func (r *PrizePayoutRepository) GetByOrderRef(ctx context.Context, orderRef string) (*entities.PrizePayout, error) {
	query := `SELECT ` + payoutColumns + ` FROM prize_payouts WHERE fulfillment_order_ref = $1`

	payout, err := scanPayout(r.q.QueryRow(ctx, query, orderRef))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout by order ref %s: %w", orderRef, err)
	}

	return payout, nil
}

// ListByWinner returns all payouts belonging to a winner
func (r *PrizePayoutRepository) ListByWinner(ctx context.Context, winnerID int64) ([]*entities.PrizePayout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM prize_payouts
		WHERE winner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, winnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts for winner %d: %w", winnerID, err)
	}
	defer rows.Close()

	return collectPayouts(rows)
}

// ListExpiredUnclaimed returns unclaimed payouts whose window closed before
// the given cutoff
func (r *PrizePayoutRepository) ListExpiredUnclaimed(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PrizePayout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM prize_payouts
		WHERE status = 'unclaimed' AND claim_expires_at < $1
		ORDER BY claim_expires_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired payouts: %w", err)
	}
	defer rows.Close()

	return collectPayouts(rows)
}

// ListStuckProcessing returns payouts sitting in processing since before the
// given cutoff, for reconciliation visibility
func (r *PrizePayoutRepository) ListStuckProcessing(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PrizePayout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM prize_payouts
		WHERE status = 'processing' AND claimed_at < $1
		ORDER BY claimed_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck payouts: %w", err)
	}
	defer rows.Close()

	return collectPayouts(rows)
}

// TransitionStatus performs the guarded status swap that makes claims safe
// under concurrency. The row only changes if it is still in the from status,
// and every claim-mutable field is written in the same statement, so two
// racing claims resolve to exactly one winner.
func (r *PrizePayoutRepository) TransitionStatus(ctx context.Context, payout *entities.PrizePayout, from entities.PayoutStatus) (bool, error) {
	query := `
		UPDATE prize_payouts
		SET status = $3,
		    retry_count = $4,
		    fulfillment_order_ref = $5,
		    fulfillment_reward_ref = $6,
		    failure_reason = $7,
		    claimed_at = $8,
		    delivered_at = $9,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.q.Exec(ctx, query,
		payout.ID,
		from,
		payout.Status,
		payout.RetryCount,
		payout.FulfillmentOrderRef,
		payout.FulfillmentRewardRef,
		payout.FailureReason,
		payout.ClaimedAt,
		payout.DeliveredAt,
	)

	if err != nil {
		return false, fmt.Errorf("failed to transition payout %d from %s: %w", payout.ID, from, err)
	}

	return result.RowsAffected() > 0, nil
}

func scanPayout(row pgx.Row) (*entities.PrizePayout, error) {
	var payout entities.PrizePayout
	err := row.Scan(
		&payout.ID,
		&payout.PoolID,
		&payout.CompetitionID,
		&payout.WinnerID,
		&payout.Placement,
		&payout.Amount,
		&payout.Status,
		&payout.RetryCount,
		&payout.FulfillmentOrderRef,
		&payout.FulfillmentRewardRef,
		&payout.FailureReason,
		&payout.ClaimExpiresAt,
		&payout.ClaimedAt,
		&payout.DeliveredAt,
		&payout.CreatedAt,
		&payout.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func collectPayouts(rows pgx.Rows) ([]*entities.PrizePayout, error) {
	var payouts []*entities.PrizePayout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prize payout: %w", err)
		}
		payouts = append(payouts, payout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prize payouts: %w", err)
	}

	return payouts, nil
}
