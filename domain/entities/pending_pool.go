package entities

import "time"

// PendingPoolStatus represents the lifecycle of a creator's funding intent
type PendingPoolStatus string

const (
	PendingPoolStatusPending   PendingPoolStatus = "pending"
	PendingPoolStatusConfirmed PendingPoolStatus = "confirmed"
	PendingPoolStatusFailed    PendingPoolStatus = "failed"
)

// PendingPool represents a creator's intent to fund a prize pool, awaiting
// confirmation from the payment processor. It is created by the upstream
// payment-intent API before any money moves.
type PendingPool struct {
	ID              int64             `db:"id"`
	CompetitionID   int64             `db:"competition_id"`
	CreatorID       int64             `db:"creator_id"`
	Amount          int64             `db:"amount"`
	PayoutStructure PayoutStructure   `db:"payout_structure"`
	Status          PendingPoolStatus `db:"status"`
	FailureReason   *string           `db:"failure_reason"`
	CreatedAt       time.Time         `db:"created_at"`
	ConfirmedAt     *time.Time        `db:"confirmed_at"`
}

// IsPending checks if the pool is still awaiting payment confirmation
func (pp *PendingPool) IsPending() bool {
	return pp.Status == PendingPoolStatusPending
}

// Confirm marks the funding intent as confirmed
func (pp *PendingPool) Confirm(at time.Time) {
	if pp.Status == PendingPoolStatusPending {
		pp.Status = PendingPoolStatusConfirmed
		pp.ConfirmedAt = &at
	}
}

// Fail marks the funding intent as failed with the processor's reason
func (pp *PendingPool) Fail(reason string) {
	if pp.Status == PendingPoolStatusPending {
		pp.Status = PendingPoolStatusFailed
		pp.FailureReason = &reason
	}
}
