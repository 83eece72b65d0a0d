package interfaces

import "context"

// RewardOrderRequest is the payload sent to the fulfillment provider when a
// winner claims a payout
type RewardOrderRequest struct {
	// IdempotencyKey dedupes retries of the same claim attempt on the
	// provider side
	IdempotencyKey string
	PayoutID       int64
	CompetitionID  int64
	WinnerID       int64
	Amount         int64
}

// RewardOrderResult is the provider's acceptance of a reward order
type RewardOrderResult struct {
	OrderRef  string
	RewardRef string
}

// FulfillmentClient calls the external reward provider. Implementations must
// honor the context deadline; the settlement engine never holds a database
// transaction open across this call.
type FulfillmentClient interface {
	// CreateRewardOrder asks the provider to issue the reward
	CreateRewardOrder(ctx context.Context, req RewardOrderRequest) (*RewardOrderResult, error)
}
