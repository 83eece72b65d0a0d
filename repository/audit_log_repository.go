package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sweatstakes/database"
	"sweatstakes/domain/entities"

	"github.com/jackc/pgx/v5"
)

// AuditLogRepository implements the append-only settlement audit trail
type AuditLogRepository struct {
	q Queryable
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{q: db.Pool}
}

// newAuditLogRepository creates a new audit log repository with a transaction
func newAuditLogRepository(tx Queryable) *AuditLogRepository {
	return &AuditLogRepository{q: tx}
}

// Record appends one audit entry. There is no update or delete path through
// this repository; the table is insert-only.
func (r *AuditLogRepository) Record(ctx context.Context, entry *entities.PoolAuditEntry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO pool_audit_log (pool_id, competition_id, actor_id, action, amount, transaction_ref, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.PoolID,
		entry.CompetitionID,
		entry.ActorID,
		entry.Action,
		entry.Amount,
		entry.TransactionRef,
		metadataJSON,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// ListByPool returns audit entries for a pool, newest first
func (r *AuditLogRepository) ListByPool(ctx context.Context, poolID int64, limit int) ([]*entities.PoolAuditEntry, error) {
	query := `
		SELECT id, pool_id, competition_id, actor_id, action, amount, transaction_ref, metadata, created_at
		FROM pool_audit_log
		WHERE pool_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, poolID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for pool %d: %w", poolID, err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

// ListByCompetition returns audit entries for a competition, newest first
func (r *AuditLogRepository) ListByCompetition(ctx context.Context, competitionID int64, limit int) ([]*entities.PoolAuditEntry, error) {
	query := `
		SELECT id, pool_id, competition_id, actor_id, action, amount, transaction_ref, metadata, created_at
		FROM pool_audit_log
		WHERE competition_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, competitionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func collectAuditEntries(rows pgx.Rows) ([]*entities.PoolAuditEntry, error) {
	var entries []*entities.PoolAuditEntry
	for rows.Next() {
		var entry entities.PoolAuditEntry
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.PoolID,
			&entry.CompetitionID,
			&entry.ActorID,
			&entry.Action,
			&entry.Amount,
			&entry.TransactionRef,
			&metadataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}
