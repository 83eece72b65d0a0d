package observability

// Metric name prefixes
const (
	MetricPrefix = "settlement_engine"
)

// Metric names
const (
	// Webhook metrics
	WebhooksReceivedTotal = MetricPrefix + ".webhooks.received_total"
	WebhooksRejectedTotal = MetricPrefix + ".webhooks.rejected_total"
	DuplicateEventsTotal  = MetricPrefix + ".webhooks.duplicates_total"

	// Claim metrics
	ClaimsTotal   = MetricPrefix + ".claims.total"
	ClaimDuration = MetricPrefix + ".claims.duration"

	// Fulfillment metrics
	FulfillmentOrdersTotal = MetricPrefix + ".fulfillment.orders_total"

	// Payout lifecycle metrics
	PayoutsExpiredTotal = MetricPrefix + ".payouts.expired_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelProvider  = "provider"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"
	LabelReason    = "reason"
)

// Webhook rejection reasons
const (
	RejectReasonInvalidSignature = "invalid_signature"
	RejectReasonMalformedPayload = "malformed_payload"
)

// Claim outcomes
const (
	ClaimOutcomeExecuted     = "executed"
	ClaimOutcomeRejected     = "rejected"
	ClaimOutcomeProviderFail = "provider_failure"
)

// Fulfillment order outcomes
const (
	OrderOutcomeAccepted = "accepted"
	OrderOutcomeFailed   = "failed"
)
