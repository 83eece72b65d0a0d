package entities

import "time"

// InvitationStatus represents the state of a competition invitation
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
)

// Invitation represents one user inviting another into a competition. A
// buy-in payment that carries the invitation id marks it accepted.
type Invitation struct {
	ID            int64            `db:"id"`
	CompetitionID int64            `db:"competition_id"`
	InviterID     int64            `db:"inviter_id"`
	InviteeID     int64            `db:"invitee_id"`
	Status        InvitationStatus `db:"status"`
	CreatedAt     time.Time        `db:"created_at"`
	RespondedAt   *time.Time       `db:"responded_at"`
}

// IsPending checks if the invitation is still awaiting a response
func (i *Invitation) IsPending() bool {
	return i.Status == InvitationStatusPending
}

// Accept marks the invitation accepted
func (i *Invitation) Accept(at time.Time) {
	if i.Status == InvitationStatusPending {
		i.Status = InvitationStatusAccepted
		i.RespondedAt = &at
	}
}

// Decline marks the invitation declined
func (i *Invitation) Decline(at time.Time) {
	if i.Status == InvitationStatusPending {
		i.Status = InvitationStatusDeclined
		i.RespondedAt = &at
	}
}
