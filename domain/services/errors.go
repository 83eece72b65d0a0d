package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and the HTTP status mapping.
var (
	// ErrInvalidSignature means the webhook body failed HMAC verification.
	// Nothing is parsed or persisted when this fires.
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrDuplicateEvent means the event reference is already in the
	// idempotency ledger. Webhook handlers acknowledge these with success
	// so the provider stops retrying.
	ErrDuplicateEvent = errors.New("event already processed")

	// ErrRecordNotFound covers missing pools, payouts and order references
	ErrRecordNotFound = errors.New("record not found")

	// ErrPendingPoolNotFound means a funding event references a pending
	// pool that does not exist. No retry can make it appear, so webhook
	// handlers acknowledge these instead of triggering redelivery.
	ErrPendingPoolNotFound = errors.New("pending pool not found")

	// ErrNotAuthorized means the caller does not own the resource. The
	// response never reveals whether the resource exists.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAlreadyClaimed means the payout's claim already started, either
	// earlier or by a concurrent request that won the race
	ErrAlreadyClaimed = errors.New("payout already claimed")

	// ErrClaimExpired means the claim window closed before the claim
	ErrClaimExpired = errors.New("claim window expired")

	// ErrPoolNotAccepting means the pool exists but no longer takes money
	ErrPoolNotAccepting = errors.New("pool is not accepting payments")
)

// FulfillmentProviderError wraps a failure from the external reward
// provider. The claim that triggered it rolls back to unclaimed.
type FulfillmentProviderError struct {
	OrderRef   string
	StatusCode int
	Err        error
}

func (e *FulfillmentProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fulfillment provider error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fulfillment provider error: %v", e.Err)
}

func (e *FulfillmentProviderError) Unwrap() error {
	return e.Err
}

// NewFulfillmentProviderError wraps a provider failure with call context
func NewFulfillmentProviderError(statusCode int, err error) *FulfillmentProviderError {
	return &FulfillmentProviderError{StatusCode: statusCode, Err: err}
}
