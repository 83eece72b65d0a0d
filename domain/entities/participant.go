package entities

import "time"

// CompetitionParticipant represents a user's membership in a competition.
// PrizeEligible flips on when the user has paid into the pool (either by
// funding it as creator or by completing a buy-in).
type CompetitionParticipant struct {
	ID            int64     `db:"id"`
	CompetitionID int64     `db:"competition_id"`
	UserID        int64     `db:"user_id"`
	PrizeEligible bool      `db:"prize_eligible"`
	JoinedAt      time.Time `db:"joined_at"`
}
