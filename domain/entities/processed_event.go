package entities

import "time"

// WebhookProvider identifies which external system sent an event
type WebhookProvider string

const (
	WebhookProviderPayment     WebhookProvider = "payment"
	WebhookProviderFulfillment WebhookProvider = "fulfillment"
	WebhookProviderCompetition WebhookProvider = "competition"
)

// ProcessedEvent is one row of the idempotency ledger. The (provider,
// event_ref) pair is unique, so recording an event is an atomic
// first-delivery test: a second delivery of the same reference inserts
// nothing and the engine acknowledges without reprocessing.
type ProcessedEvent struct {
	ID          int64           `db:"id"`
	Provider    WebhookProvider `db:"provider"`
	EventRef    string          `db:"event_ref"`
	EventType   string          `db:"event_type"`
	ProcessedAt time.Time       `db:"processed_at"`
}
