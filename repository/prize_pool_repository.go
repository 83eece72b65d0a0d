package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sweatstakes/database"
	"sweatstakes/domain/entities"

	"github.com/jackc/pgx/v5"
)

// PrizePoolRepository implements prize pool data access
type PrizePoolRepository struct {
	q Queryable
}

// NewPrizePoolRepository creates a new prize pool repository
func NewPrizePoolRepository(db *database.DB) *PrizePoolRepository {
	return &PrizePoolRepository{q: db.Pool}
}

// newPrizePoolRepository creates a new prize pool repository with a transaction
func newPrizePoolRepository(tx Queryable) *PrizePoolRepository {
	return &PrizePoolRepository{q: tx}
}

// Create creates a confirmed prize pool for a competition
func (r *PrizePoolRepository) Create(ctx context.Context, pool *entities.PrizePool) error {
	structureJSON, err := json.Marshal(pool.PayoutStructure)
	if err != nil {
		return fmt.Errorf("failed to marshal payout structure: %w", err)
	}

	query := `
		INSERT INTO prize_pools (competition_id, creator_id, total_amount, remaining_balance, payout_structure, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		pool.CompetitionID,
		pool.CreatorID,
		pool.TotalAmount,
		pool.RemainingBalance,
		structureJSON,
		pool.Status,
	).Scan(&pool.ID, &pool.CreatedAt, &pool.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create prize pool: %w", err)
	}

	return nil
}

// GetByID retrieves a pool by its ID
func (r *PrizePoolRepository) GetByID(ctx context.Context, id int64) (*entities.PrizePool, error) {
	query := `
		SELECT id, competition_id, creator_id, total_amount, remaining_balance,
		       payout_structure, status, created_at, updated_at
		FROM prize_pools
		WHERE id = $1
	`

	return r.scanOne(r.q.QueryRow(ctx, query, id), fmt.Sprintf("ID %d", id))
}

// GetByCompetition retrieves the pool attached to a competition
func (r *PrizePoolRepository) GetByCompetition(ctx context.Context, competitionID int64) (*entities.PrizePool, error) {
	query := `
		SELECT id, competition_id, creator_id, total_amount, remaining_balance,
		       payout_structure, status, created_at, updated_at
		FROM prize_pools
		WHERE competition_id = $1
	`

	return r.scanOne(r.q.QueryRow(ctx, query, competitionID), fmt.Sprintf("competition %d", competitionID))
}

// AddBuyIn atomically raises total_amount and remaining_balance while the
// pool is still active. The status predicate makes buy-ins against a settled
// pool a no-op instead of money that can never be paid out.
func (r *PrizePoolRepository) AddBuyIn(ctx context.Context, poolID int64, amount int64) (bool, error) {
	query := `
		UPDATE prize_pools
		SET total_amount = total_amount + $2,
		    remaining_balance = remaining_balance + $2,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query, poolID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to add buy-in to pool %d: %w", poolID, err)
	}

	return result.RowsAffected() > 0, nil
}

// DebitRemaining atomically lowers remaining_balance if enough money is
// available. The balance predicate is the authoritative overdraw guard.
func (r *PrizePoolRepository) DebitRemaining(ctx context.Context, poolID int64, amount int64) (bool, error) {
	query := `
		UPDATE prize_pools
		SET remaining_balance = remaining_balance - $2,
		    updated_at = NOW()
		WHERE id = $1 AND remaining_balance >= $2
	`

	result, err := r.q.Exec(ctx, query, poolID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to debit pool %d: %w", poolID, err)
	}

	return result.RowsAffected() > 0, nil
}

// CreditRemaining atomically returns money to the pool without ever
// exceeding total_amount
func (r *PrizePoolRepository) CreditRemaining(ctx context.Context, poolID int64, amount int64) (bool, error) {
	query := `
		UPDATE prize_pools
		SET remaining_balance = remaining_balance + $2,
		    updated_at = NOW()
		WHERE id = $1 AND remaining_balance + $2 <= total_amount
	`

	result, err := r.q.Exec(ctx, query, poolID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to credit pool %d: %w", poolID, err)
	}

	return result.RowsAffected() > 0, nil
}

// UpdateStatus moves the pool between lifecycle states, guarded by the
// current status
func (r *PrizePoolRepository) UpdateStatus(ctx context.Context, poolID int64, from, to entities.PoolStatus) (bool, error) {
	query := `
		UPDATE prize_pools
		SET status = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.q.Exec(ctx, query, poolID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update pool %d status: %w", poolID, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *PrizePoolRepository) scanOne(row pgx.Row, desc string) (*entities.PrizePool, error) {
	var pool entities.PrizePool
	var structureJSON []byte
	err := row.Scan(
		&pool.ID,
		&pool.CompetitionID,
		&pool.CreatorID,
		&pool.TotalAmount,
		&pool.RemainingBalance,
		&structureJSON,
		&pool.Status,
		&pool.CreatedAt,
		&pool.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prize pool by %s: %w", desc, err)
	}

	if len(structureJSON) > 0 {
		if err := json.Unmarshal(structureJSON, &pool.PayoutStructure); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payout structure: %w", err)
		}
	}

	return &pool, nil
}
