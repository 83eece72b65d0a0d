package repository

import (
	"context"
	"fmt"

	"sweatstakes/database"
	"sweatstakes/domain/entities"

	"github.com/jackc/pgx/v5"
)

// ProcessedEventRepository implements the webhook idempotency ledger
type ProcessedEventRepository struct {
	q Queryable
}

// NewProcessedEventRepository creates a new processed event repository
func NewProcessedEventRepository(db *database.DB) *ProcessedEventRepository {
	return &ProcessedEventRepository{q: db.Pool}
}

// newProcessedEventRepository creates a new processed event repository with a transaction
func newProcessedEventRepository(tx Queryable) *ProcessedEventRepository {
	return &ProcessedEventRepository{q: tx}
}

// Record inserts the event reference if it was never seen before. The unique
// (provider, event_ref) pair makes this the atomic first-delivery test:
// RowsAffected is zero exactly when the reference is already in the ledger.
func (r *ProcessedEventRepository) Record(ctx context.Context, provider entities.WebhookProvider, eventRef, eventType string) (bool, error) {
	query := `
		INSERT INTO processed_events (provider, event_ref, event_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, event_ref) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, provider, eventRef, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record processed event %s: %w", eventRef, err)
	}

	return result.RowsAffected() > 0, nil
}

// GetByRef retrieves a ledger row, nil when absent
func (r *ProcessedEventRepository) GetByRef(ctx context.Context, provider entities.WebhookProvider, eventRef string) (*entities.ProcessedEvent, error) {
	query := `
		SELECT id, provider, event_ref, event_type, processed_at
		FROM processed_events
		WHERE provider = $1 AND event_ref = $2
	`

	var event entities.ProcessedEvent
	err := r.q.QueryRow(ctx, query, provider, eventRef).Scan(
		&event.ID,
		&event.Provider,
		&event.EventRef,
		&event.EventType,
		&event.ProcessedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed event %s: %w", eventRef, err)
	}

	return &event, nil
}
