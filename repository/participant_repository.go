package repository

import (
	"context"
	"fmt"

	"sweatstakes/database"
	"sweatstakes/domain/entities"
)

// ParticipantRepository implements competition membership data access
type ParticipantRepository struct {
	q Queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db.Pool}
}

// newParticipantRepository creates a new participant repository with a transaction
func newParticipantRepository(tx Queryable) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

// Upsert inserts the participant or refreshes prize eligibility for an
// existing row. The unique (competition_id, user_id) pair keeps webhook
// redelivery from ever duplicating a participant.
func (r *ParticipantRepository) Upsert(ctx context.Context, participant *entities.CompetitionParticipant) error {
	query := `
		INSERT INTO competition_participants (competition_id, user_id, prize_eligible)
		VALUES ($1, $2, $3)
		ON CONFLICT (competition_id, user_id)
		DO UPDATE SET prize_eligible = competition_participants.prize_eligible OR EXCLUDED.prize_eligible
		RETURNING id, prize_eligible, joined_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.CompetitionID,
		participant.UserID,
		participant.PrizeEligible,
	).Scan(&participant.ID, &participant.PrizeEligible, &participant.JoinedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert participant %d in competition %d: %w",
			participant.UserID, participant.CompetitionID, err)
	}

	return nil
}

// CountByCompetition returns how many participants a competition has
func (r *ParticipantRepository) CountByCompetition(ctx context.Context, competitionID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM competition_participants
		WHERE competition_id = $1
	`

	var count int
	if err := r.q.QueryRow(ctx, query, competitionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants for competition %d: %w", competitionID, err)
	}

	return count, nil
}

// ListByCompetition returns all participants of a competition
func (r *ParticipantRepository) ListByCompetition(ctx context.Context, competitionID int64) ([]*entities.CompetitionParticipant, error) {
	query := `
		SELECT id, competition_id, user_id, prize_eligible, joined_at
		FROM competition_participants
		WHERE competition_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.q.Query(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	var participants []*entities.CompetitionParticipant
	for rows.Next() {
		var participant entities.CompetitionParticipant
		err := rows.Scan(
			&participant.ID,
			&participant.CompetitionID,
			&participant.UserID,
			&participant.PrizeEligible,
			&participant.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &participant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}
