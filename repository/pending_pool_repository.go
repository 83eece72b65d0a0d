package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sweatstakes/database"
	"sweatstakes/domain/entities"

	"github.com/jackc/pgx/v5"
)

// PendingPoolRepository implements funding-intent data access
type PendingPoolRepository struct {
	q Queryable
}

// NewPendingPoolRepository creates a new pending pool repository
func NewPendingPoolRepository(db *database.DB) *PendingPoolRepository {
	return &PendingPoolRepository{q: db.Pool}
}

// newPendingPoolRepository creates a new pending pool repository with a transaction
func newPendingPoolRepository(tx Queryable) *PendingPoolRepository {
	return &PendingPoolRepository{q: tx}
}

// Create records a new funding intent awaiting payment confirmation
func (r *PendingPoolRepository) Create(ctx context.Context, pool *entities.PendingPool) error {
	structureJSON, err := json.Marshal(pool.PayoutStructure)
	if err != nil {
		return fmt.Errorf("failed to marshal payout structure: %w", err)
	}

	query := `
		INSERT INTO pending_pools (competition_id, creator_id, amount, payout_structure, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		pool.CompetitionID,
		pool.CreatorID,
		pool.Amount,
		structureJSON,
		pool.Status,
	).Scan(&pool.ID, &pool.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create pending pool: %w", err)
	}

	return nil
}

// GetByID retrieves a pending pool by its ID
func (r *PendingPoolRepository) GetByID(ctx context.Context, id int64) (*entities.PendingPool, error) {
	query := `
		SELECT id, competition_id, creator_id, amount, payout_structure, status,
		       failure_reason, created_at, confirmed_at
		FROM pending_pools
		WHERE id = $1
	`

	var pool entities.PendingPool
	var structureJSON []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&pool.ID,
		&pool.CompetitionID,
		&pool.CreatorID,
		&pool.Amount,
		&structureJSON,
		&pool.Status,
		&pool.FailureReason,
		&pool.CreatedAt,
		&pool.ConfirmedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending pool by ID %d: %w", id, err)
	}

	if len(structureJSON) > 0 {
		if err := json.Unmarshal(structureJSON, &pool.PayoutStructure); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payout structure: %w", err)
		}
	}

	return &pool, nil
}

// Update persists status, failure reason and confirmation time
func (r *PendingPoolRepository) Update(ctx context.Context, pool *entities.PendingPool) error {
	query := `
		UPDATE pending_pools
		SET status = $2,
		    failure_reason = $3,
		    confirmed_at = $4
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		pool.ID,
		pool.Status,
		pool.FailureReason,
		pool.ConfirmedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update pending pool %d: %w", pool.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending pool with ID %d not found", pool.ID)
	}

	return nil
}
