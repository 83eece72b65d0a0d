package repository

import (
	"context"
	"fmt"
	"time"

	"sweatstakes/database"
	"sweatstakes/domain/entities"

	"github.com/jackc/pgx/v5"
)

// InvitationRepository implements invitation data access
type InvitationRepository struct {
	q Queryable
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{q: db.Pool}
}

// newInvitationRepository creates a new invitation repository with a transaction
func newInvitationRepository(tx Queryable) *InvitationRepository {
	return &InvitationRepository{q: tx}
}

// Create records a new invitation
func (r *InvitationRepository) Create(ctx context.Context, invitation *entities.Invitation) error {
	query := `
		INSERT INTO invitations (competition_id, inviter_id, invitee_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		invitation.CompetitionID,
		invitation.InviterID,
		invitation.InviteeID,
		invitation.Status,
	).Scan(&invitation.ID, &invitation.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetByID retrieves an invitation by its ID
func (r *InvitationRepository) GetByID(ctx context.Context, id int64) (*entities.Invitation, error) {
	query := `
		SELECT id, competition_id, inviter_id, invitee_id, status, created_at, responded_at
		FROM invitations
		WHERE id = $1
	`

	var invitation entities.Invitation
	err := r.q.QueryRow(ctx, query, id).Scan(
		&invitation.ID,
		&invitation.CompetitionID,
		&invitation.InviterID,
		&invitation.InviteeID,
		&invitation.Status,
		&invitation.CreatedAt,
		&invitation.RespondedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation by ID %d: %w", id, err)
	}

	return &invitation, nil
}

// MarkAccepted flips a pending invitation to accepted. Returns false when
// the invitation was missing or already answered.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE invitations
		SET status = 'accepted',
		    responded_at = $2
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to accept invitation %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}
