package entities

// AuditAction represents the kind of money movement or settlement event
// recorded in the pool audit log
type AuditAction string

// All audit actions recorded by the engine
const (
	// Money in
	AuditActionPoolFunded AuditAction = "pool_funded"
	AuditActionBuyIn      AuditAction = "buy_in"

	// Money out
	AuditActionPayoutClaimed  AuditAction = "payout_claimed"
	AuditActionPayoutExecuted AuditAction = "payout_executed"

	// Fulfillment lifecycle
	AuditActionPayoutDelivered AuditAction = "payout_delivered"
	AuditActionPayoutRedeemed  AuditAction = "payout_redeemed"

	// Failures and expiry
	AuditActionPoolFundingFailed AuditAction = "pool_funding_failed"
	AuditActionBuyInFailed       AuditAction = "buy_in_failed"
	AuditActionPayoutFailed      AuditAction = "payout_failed"
	AuditActionPayoutExpired     AuditAction = "payout_expired"

	// Settlement
	AuditActionPoolSettled AuditAction = "pool_settled"
)

// IsMoneyIn returns true if the action adds money to a pool
func (a AuditAction) IsMoneyIn() bool {
	return a == AuditActionPoolFunded || a == AuditActionBuyIn
}

// IsMoneyOut returns true if the action moves money out of a pool
func (a AuditAction) IsMoneyOut() bool {
	return a == AuditActionPayoutExecuted
}

// IsFailure returns true if the action records a failed movement
func (a AuditAction) IsFailure() bool {
	return a == AuditActionPoolFundingFailed ||
		a == AuditActionBuyInFailed ||
		a == AuditActionPayoutFailed
}
