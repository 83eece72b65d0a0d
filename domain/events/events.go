package events

// EventType represents different types of settlement events
type EventType string

const (
	EventTypePoolActivated      EventType = "pool_activated"
	EventTypeBuyInRecorded      EventType = "buy_in_recorded"
	EventTypeInvitationAccepted EventType = "invitation_accepted"
	EventTypePoolSettled        EventType = "pool_settled"
	EventTypePayoutExecuted     EventType = "payout_executed"
	EventTypePayoutDelivered    EventType = "payout_delivered"
	EventTypePayoutRedeemed     EventType = "payout_redeemed"
	EventTypePayoutClaimFailed  EventType = "payout_claim_failed"
	EventTypePayoutExpired      EventType = "payout_expired"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PoolActivatedEvent signals that a creator's funding was confirmed and a
// prize pool now exists for the competition
type PoolActivatedEvent struct {
	PoolID        int64
	CompetitionID int64
	CreatorID     int64
	TotalAmount   int64
}

func (e PoolActivatedEvent) Type() EventType {
	return EventTypePoolActivated
}

// BuyInRecordedEvent signals that a participant's buy-in was applied
type BuyInRecordedEvent struct {
	PoolID        int64
	CompetitionID int64
	UserID        int64
	Amount        int64
	PoolTotal     int64
}

func (e BuyInRecordedEvent) Type() EventType {
	return EventTypeBuyInRecorded
}

// InvitationAcceptedEvent signals that a buy-in resolved an invitation
type InvitationAcceptedEvent struct {
	InvitationID  int64
	CompetitionID int64
	InviterID     int64
	InviteeID     int64
}

func (e InvitationAcceptedEvent) Type() EventType {
	return EventTypeInvitationAccepted
}

// PoolSettledEvent signals that payouts were created for a finished
// competition
type PoolSettledEvent struct {
	PoolID        int64
	CompetitionID int64
	PayoutCount   int
	TotalAwarded  int64
}

func (e PoolSettledEvent) Type() EventType {
	return EventTypePoolSettled
}

// PayoutExecutedEvent signals that a claim produced a fulfillment order
type PayoutExecutedEvent struct {
	PayoutID      int64
	PoolID        int64
	CompetitionID int64
	WinnerID      int64
	Amount        int64
	OrderRef      string
}

func (e PayoutExecutedEvent) Type() EventType {
	return EventTypePayoutExecuted
}

// PayoutDeliveredEvent signals that the provider delivered the reward
type PayoutDeliveredEvent struct {
	PayoutID int64
	WinnerID int64
	Amount   int64
	OrderRef string
}

func (e PayoutDeliveredEvent) Type() EventType {
	return EventTypePayoutDelivered
}

// PayoutRedeemedEvent signals that the winner redeemed the reward
type PayoutRedeemedEvent struct {
	PayoutID int64
	WinnerID int64
	Amount   int64
}

func (e PayoutRedeemedEvent) Type() EventType {
	return EventTypePayoutRedeemed
}

// PayoutClaimFailedEvent signals a failed claim attempt; the payout is
// claimable again
type PayoutClaimFailedEvent struct {
	PayoutID   int64
	WinnerID   int64
	Amount     int64
	Reason     string
	RetryCount int
}

func (e PayoutClaimFailedEvent) Type() EventType {
	return EventTypePayoutClaimFailed
}

// PayoutExpiredEvent signals that a claim window closed unclaimed
type PayoutExpiredEvent struct {
	PayoutID int64
	WinnerID int64
	Amount   int64
}

func (e PayoutExpiredEvent) Type() EventType {
	return EventTypePayoutExpired
}
