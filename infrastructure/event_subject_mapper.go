package infrastructure

import (
	"fmt"

	"sweatstakes/domain/events"
)

// EventSubjectMapper handles mapping between settlement events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a settlement event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypePoolActivated:
		return "pools.activated"
	case events.EventTypeBuyInRecorded:
		return "pools.buy_in_recorded"
	case events.EventTypePoolSettled:
		return "pools.settled"
	case events.EventTypeInvitationAccepted:
		return "invitations.accepted"
	case events.EventTypePayoutExecuted:
		return "payouts.executed"
	case events.EventTypePayoutDelivered:
		return "payouts.delivered"
	case events.EventTypePayoutRedeemed:
		return "payouts.redeemed"
	case events.EventTypePayoutClaimFailed:
		return "payouts.claim_failed"
	case events.EventTypePayoutExpired:
		return "payouts.expired"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "pools.activated":
		return events.EventTypePoolActivated
	case "pools.buy_in_recorded":
		return events.EventTypeBuyInRecorded
	case "pools.settled":
		return events.EventTypePoolSettled
	case "invitations.accepted":
		return events.EventTypeInvitationAccepted
	case "payouts.executed":
		return events.EventTypePayoutExecuted
	case "payouts.delivered":
		return events.EventTypePayoutDelivered
	case "payouts.redeemed":
		return events.EventTypePayoutRedeemed
	case "payouts.claim_failed":
		return events.EventTypePayoutClaimFailed
	case "payouts.expired":
		return events.EventTypePayoutExpired
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"pools.activated",
		"pools.buy_in_recorded",
		"pools.settled",
		"invitations.accepted",
		"payouts.executed",
		"payouts.delivered",
		"payouts.redeemed",
		"payouts.claim_failed",
		"payouts.expired",
	}
}
