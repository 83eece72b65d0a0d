package entities

import (
	"errors"
	"time"
)

// PoolAuditEntry represents one row of the append-only settlement audit log.
// Every money movement and every failed attempt appends exactly one entry;
// entries are never updated or deleted.
type PoolAuditEntry struct {
	ID             int64          `db:"id"`
	PoolID         *int64         `db:"pool_id"`
	CompetitionID  int64          `db:"competition_id"`
	ActorID        int64          `db:"actor_id"`
	Action         AuditAction    `db:"action"`
	Amount         int64          `db:"amount"`
	TransactionRef *string        `db:"transaction_ref"`
	Metadata       map[string]any `db:"metadata"`
	CreatedAt      time.Time      `db:"created_at"`
}

// IsMoneyMovement returns true if the entry records money entering or
// leaving a pool
func (e *PoolAuditEntry) IsMoneyMovement() bool {
	return e.Action.IsMoneyIn() || e.Action.IsMoneyOut()
}

// Describe returns a human-readable description of the entry
func (e *PoolAuditEntry) Describe() string {
	switch e.Action {
	case AuditActionPoolFunded:
		return "Pool funded by creator"
	case AuditActionBuyIn:
		return "Participant buy-in"
	case AuditActionPayoutClaimed:
		return "Payout claim started"
	case AuditActionPayoutExecuted:
		return "Payout executed"
	case AuditActionPayoutDelivered:
		return "Reward delivered"
	case AuditActionPayoutRedeemed:
		return "Reward redeemed"
	case AuditActionPoolFundingFailed:
		return "Pool funding failed"
	case AuditActionBuyInFailed:
		return "Buy-in failed"
	case AuditActionPayoutFailed:
		return "Payout attempt failed"
	case AuditActionPayoutExpired:
		return "Claim window expired"
	case AuditActionPoolSettled:
		return "Pool settled"
	default:
		return string(e.Action)
	}
}

// Validate performs basic consistency checks before the entry is recorded
func (e *PoolAuditEntry) Validate() error {
	if e.Action == "" {
		return errors.New("audit action cannot be empty")
	}
	if e.IsMoneyMovement() && e.Amount <= 0 {
		return errors.New("money movement requires a positive amount")
	}
	return nil
}
