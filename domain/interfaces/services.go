package interfaces

import (
	"context"
	"time"

	"sweatstakes/domain/entities"
)

// PaymentEvent is the provider-neutral shape of a verified, decoded payment
// webhook handed to the funding service
type PaymentEvent struct {
	TransactionRef string
	EventType      string
	Amount         int64
	Kind           string
	PendingPoolID  int64
	CompetitionID  int64
	UserID         int64
	InvitationID   int64
	FailureReason  string
}

// Payment event kinds carried in processor metadata
const (
	PaymentKindPoolFunding = "pool_funding"
	PaymentKindBuyIn       = "buy_in"
)

// Payment event types sent by the processor
const (
	PaymentEventSucceeded = "payment_intent.succeeded"
	PaymentEventFailed    = "payment_intent.payment_failed"
)

// FulfillmentEvent is the provider-neutral shape of a verified, decoded
// fulfillment status webhook
type FulfillmentEvent struct {
	EventRef   string
	EventType  string
	OrderRef   string
	Reason     string
	OccurredAt time.Time
}

// Fulfillment event types sent by the reward provider
const (
	FulfillmentEventDelivered      = "reward_order.delivered"
	FulfillmentEventRedeemed       = "reward_order.redeemed"
	FulfillmentEventDeliveryFailed = "reward_order.delivery_failed"
)

// FundingService applies verified payment events to pools
type FundingService interface {
	// ConfirmPoolFunding turns a pending pool into an active prize pool
	ConfirmPoolFunding(ctx context.Context, event PaymentEvent) (*entities.PrizePool, error)

	// RecordPoolFundingFailure marks the funding intent failed
	RecordPoolFundingFailure(ctx context.Context, event PaymentEvent) error

	// RecordBuyIn applies a participant's buy-in to the active pool
	RecordBuyIn(ctx context.Context, event PaymentEvent) (*entities.BuyInPayment, error)

	// RecordBuyInFailure records a failed buy-in attempt for the audit trail
	RecordBuyInFailure(ctx context.Context, event PaymentEvent) error
}

// PayoutService owns claim state transitions. Each method runs inside one
// unit of work; the fulfillment call itself happens between them, outside
// any transaction.
type PayoutService interface {
	// BeginClaim checks the claim preconditions in order and marks the
	// payout processing. Exactly one concurrent caller wins.
	BeginClaim(ctx context.Context, winnerID, payoutID int64, now time.Time) (*entities.PrizePayout, error)

	// CompleteClaim records the provider's accepted order and debits the pool
	CompleteClaim(ctx context.Context, payoutID int64, orderRef, rewardRef string) (*entities.PrizePayout, error)

	// FailClaim rolls the payout back to unclaimed with the failure reason
	FailClaim(ctx context.Context, payoutID int64, reason string) (*entities.PrizePayout, error)

	// ExpireOverdue flags unclaimed payouts whose window closed. Returns
	// how many payouts were expired.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

// FulfillmentSyncService applies provider status webhooks to payouts
type FulfillmentSyncService interface {
	// ApplyDeliverySucceeded moves an executed payout to delivered
	ApplyDeliverySucceeded(ctx context.Context, eventRef, orderRef string, at time.Time) (*entities.PrizePayout, error)

	// ApplyRedeemed moves a delivered payout to redeemed
	ApplyRedeemed(ctx context.Context, eventRef, orderRef string) (*entities.PrizePayout, error)

	// ApplyDeliveryFailed rolls an executed payout back to unclaimed and
	// returns the money to the pool
	ApplyDeliveryFailed(ctx context.Context, eventRef, orderRef, reason string) (*entities.PrizePayout, error)
}

// PlacementResult names the winner of one placement when a competition ends
type PlacementResult struct {
	Placement int
	WinnerID  int64
}

// CompetitionEvent is the decoded shape of a competition-completed message
// from the competition engine
type CompetitionEvent struct {
	EventRef      string
	CompetitionID int64
	CompletedAt   time.Time
	Rankings      []PlacementResult
}

// Competition event types consumed from the competition engine
const (
	CompetitionEventCompleted = "competition.completed"
)

// SettlementService creates payouts when a competition ends and codifies the
// phase-1 contract for pending pools
type SettlementService interface {
	// RegisterPendingPool records a funding intent. Called by the upstream
	// payment-intent API before the processor webhook arrives.
	RegisterPendingPool(ctx context.Context, competitionID, creatorID, amount int64, structure entities.PayoutStructure) (*entities.PendingPool, error)

	// SettlePool splits an active pool across the final rankings and
	// creates unclaimed payouts with a claim deadline
	SettlePool(ctx context.Context, poolID int64, rankings []PlacementResult, now time.Time) ([]*entities.PrizePayout, error)

	// SettleCompetition settles the pool attached to a completed
	// competition. Duplicate deliveries surface as ErrDuplicateEvent;
	// competitions without a pool settle to zero payouts.
	SettleCompetition(ctx context.Context, event CompetitionEvent, now time.Time) ([]*entities.PrizePayout, error)
}
