package entities

import (
	"fmt"
	"time"
)

// PayoutStatus represents the state of a winner's prize payout
type PayoutStatus string

const (
	// PayoutStatusUnclaimed is the initial state: the prize exists and
	// waits for the winner to claim it before the claim window closes.
	PayoutStatusUnclaimed PayoutStatus = "unclaimed"

	// PayoutStatusProcessing means a claim is in flight: the row is marked
	// before the fulfillment provider is called so a crash mid-call can
	// never produce a second order.
	PayoutStatusProcessing PayoutStatus = "processing"

	// PayoutStatusExecuted means the provider accepted the reward order and
	// the pool balance has been debited.
	PayoutStatusExecuted PayoutStatus = "executed"

	// PayoutStatusDelivered means the provider delivered the reward to the
	// winner (e.g. the gift card email landed).
	PayoutStatusDelivered PayoutStatus = "delivered"

	// PayoutStatusRedeemed means the winner redeemed the reward. Terminal.
	PayoutStatusRedeemed PayoutStatus = "redeemed"

	// PayoutStatusExpired means the claim window closed unclaimed. Set by
	// the background sweep or by the first claim attempt past the deadline.
	PayoutStatusExpired PayoutStatus = "expired"
)

// PrizePayout represents one winner's claimable share of a settled pool
type PrizePayout struct {
	ID                   int64        `db:"id"`
	PoolID               int64        `db:"pool_id"`
	CompetitionID        int64        `db:"competition_id"`
	WinnerID             int64        `db:"winner_id"`
	Placement            int          `db:"placement"`
	Amount               int64        `db:"amount"`
	Status               PayoutStatus `db:"status"`
	RetryCount           int          `db:"retry_count"`
	FulfillmentOrderRef  *string      `db:"fulfillment_order_ref"`
	FulfillmentRewardRef *string      `db:"fulfillment_reward_ref"`
	FailureReason        *string      `db:"failure_reason"`
	ClaimExpiresAt       time.Time    `db:"claim_expires_at"`
	ClaimedAt            *time.Time   `db:"claimed_at"`
	DeliveredAt          *time.Time   `db:"delivered_at"`
	CreatedAt            time.Time    `db:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at"`
}

// IsUnclaimed checks if the payout is still waiting for its winner
func (p *PrizePayout) IsUnclaimed() bool {
	return p.Status == PayoutStatusUnclaimed
}

// IsClaimStarted checks if a claim has already progressed past unclaimed
func (p *PrizePayout) IsClaimStarted() bool {
	switch p.Status {
	case PayoutStatusProcessing, PayoutStatusExecuted, PayoutStatusDelivered, PayoutStatusRedeemed:
		return true
	}
	return false
}

// IsClaimExpired checks if the claim window has closed. The check is lazy:
// an unclaimed payout past its deadline counts as expired even if the sweep
// has not flagged it yet.
func (p *PrizePayout) IsClaimExpired(now time.Time) bool {
	if p.Status == PayoutStatusExpired {
		return true
	}
	return p.Status == PayoutStatusUnclaimed && now.After(p.ClaimExpiresAt)
}

// IsClaimable checks if a claim by the winner can start right now
func (p *PrizePayout) IsClaimable(now time.Time) bool {
	return p.IsUnclaimed() && !p.IsClaimExpired(now)
}

// BelongsTo checks if the given user is the payout's winner
func (p *PrizePayout) BelongsTo(userID int64) bool {
	return p.WinnerID == userID
}

// BeginProcessing marks the claim as in flight. The repository performs the
// authoritative compare-and-swap; this keeps the in-memory copy consistent.
func (p *PrizePayout) BeginProcessing(at time.Time) {
	if p.Status == PayoutStatusUnclaimed {
		p.Status = PayoutStatusProcessing
		p.ClaimedAt = &at
	}
}

// MarkExecuted records the provider's order acceptance
func (p *PrizePayout) MarkExecuted(orderRef, rewardRef string) {
	if p.Status == PayoutStatusProcessing {
		p.Status = PayoutStatusExecuted
		p.FulfillmentOrderRef = &orderRef
		p.FulfillmentRewardRef = &rewardRef
		p.FailureReason = nil
	}
}

// MarkDelivered records successful delivery of the reward
func (p *PrizePayout) MarkDelivered(at time.Time) {
	if p.Status == PayoutStatusExecuted {
		p.Status = PayoutStatusDelivered
		p.DeliveredAt = &at
	}
}

// MarkRedeemed records the winner redeeming the reward
func (p *PrizePayout) MarkRedeemed() {
	if p.Status == PayoutStatusDelivered || p.Status == PayoutStatusExecuted {
		p.Status = PayoutStatusRedeemed
	}
}

// RollbackToUnclaimed returns a failed claim to the claimable state and
// counts the attempt. Provider references move to the audit trail, not here.
func (p *PrizePayout) RollbackToUnclaimed(reason string) {
	if p.Status == PayoutStatusProcessing || p.Status == PayoutStatusExecuted {
		p.Status = PayoutStatusUnclaimed
		p.RetryCount++
		p.FailureReason = &reason
		p.FulfillmentOrderRef = nil
		p.FulfillmentRewardRef = nil
		p.ClaimedAt = nil
	}
}

// Expire flags an overdue unclaimed payout
func (p *PrizePayout) Expire() {
	if p.Status == PayoutStatusUnclaimed {
		p.Status = PayoutStatusExpired
	}
}

// FulfillmentIdempotencyKey derives the key sent to the fulfillment provider.
// It changes with every retry cycle, so a rolled-back claim produces a fresh
// order while a crashed duplicate of the same attempt cannot double-issue.
func (p *PrizePayout) FulfillmentIdempotencyKey() string {
	return fmt.Sprintf("payout-%d-r%d", p.ID, p.RetryCount)
}
