package interfaces

import (
	"context"
	"time"

	"sweatstakes/domain/entities"
	"sweatstakes/domain/events"
)

// PendingPoolRepository defines the interface for funding-intent data access
type PendingPoolRepository interface {
	// Create records a new funding intent awaiting payment confirmation
	Create(ctx context.Context, pool *entities.PendingPool) error

	// GetByID retrieves a pending pool by its ID
	GetByID(ctx context.Context, id int64) (*entities.PendingPool, error)

	// Update persists status, failure reason and confirmation time
	Update(ctx context.Context, pool *entities.PendingPool) error
}

// PrizePoolRepository defines the interface for prize pool data access
type PrizePoolRepository interface {
	// Create creates a confirmed prize pool for a competition
	Create(ctx context.Context, pool *entities.PrizePool) error

	// GetByID retrieves a pool by its ID
	GetByID(ctx context.Context, id int64) (*entities.PrizePool, error)

	// GetByCompetition retrieves the pool attached to a competition
	GetByCompetition(ctx context.Context, competitionID int64) (*entities.PrizePool, error)

	// AddBuyIn atomically raises total_amount and remaining_balance while
	// the pool is still active. Returns false if the pool was not active.
	AddBuyIn(ctx context.Context, poolID int64, amount int64) (bool, error)

	// DebitRemaining atomically lowers remaining_balance if enough money
	// is available. Returns false when the debit would overdraw the pool.
	DebitRemaining(ctx context.Context, poolID int64, amount int64) (bool, error)

	// CreditRemaining atomically returns money to the pool without ever
	// exceeding total_amount. Returns false when the credit would.
	CreditRemaining(ctx context.Context, poolID int64, amount int64) (bool, error)

	// UpdateStatus moves the pool between lifecycle states
	UpdateStatus(ctx context.Context, poolID int64, from, to entities.PoolStatus) (bool, error)
}

// BuyInPaymentRepository defines the interface for buy-in data access
type BuyInPaymentRepository interface {
	// Create records a processed buy-in payment
	Create(ctx context.Context, payment *entities.BuyInPayment) error

	// GetByTransactionRef retrieves a buy-in by the processor's reference
	GetByTransactionRef(ctx context.Context, transactionRef string) (*entities.BuyInPayment, error)

	// GetCompletedByPoolAndUser retrieves a user's completed buy-in for a
	// pool, nil when the user never paid in. At most one completed buy-in
	// per (pool, user) ever exists.
	GetCompletedByPoolAndUser(ctx context.Context, poolID, userID int64) (*entities.BuyInPayment, error)

	// ListByPool returns all buy-ins recorded against a pool
	ListByPool(ctx context.Context, poolID int64) ([]*entities.BuyInPayment, error)
}

// ParticipantRepository defines the interface for competition membership
type ParticipantRepository interface {
	// Upsert inserts the participant or refreshes prize eligibility for an
	// existing row. Exactly one row per (competition, user) ever exists.
	Upsert(ctx context.Context, participant *entities.CompetitionParticipant) error

	// CountByCompetition returns how many participants a competition has
	CountByCompetition(ctx context.Context, competitionID int64) (int, error)

	// ListByCompetition returns all participants of a competition
	ListByCompetition(ctx context.Context, competitionID int64) ([]*entities.CompetitionParticipant, error)
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create records a new invitation
	Create(ctx context.Context, invitation *entities.Invitation) error

	// GetByID retrieves an invitation by its ID
	GetByID(ctx context.Context, id int64) (*entities.Invitation, error)

	// MarkAccepted flips a pending invitation to accepted. Returns false
	// when the invitation was missing or already answered.
	MarkAccepted(ctx context.Context, id int64, at time.Time) (bool, error)
}

// PrizePayoutRepository defines the interface for payout data access
type PrizePayoutRepository interface {
	// Create creates a payout row for a settled pool
	Create(ctx context.Context, payout *entities.PrizePayout) error

	// GetByID retrieves a payout by its ID
	GetByID(ctx context.Context, id int64) (*entities.PrizePayout, error)

	// GetByOrderRef retrieves a payout by its fulfillment order reference
	GetByOrderRef(ctx context.Context, orderRef string) (*entities.PrizePayout, error)

	// ListByWinner returns all payouts belonging to a winner
	ListByWinner(ctx context.Context, winnerID int64) ([]*entities.PrizePayout, error)

	// ListExpiredUnclaimed returns unclaimed payouts whose window closed
	// before the given cutoff
	ListExpiredUnclaimed(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PrizePayout, error)

	// ListStuckProcessing returns payouts sitting in processing since
	// before the given cutoff, for reconciliation visibility
	ListStuckProcessing(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PrizePayout, error)

	// TransitionStatus performs the guarded status swap that makes claims
	// safe under concurrency: the row moves from -> to only if it is still
	// in the from status, and the payout's mutable fields are written in
	// the same statement. Returns false when the predicate did not match.
	TransitionStatus(ctx context.Context, payout *entities.PrizePayout, from entities.PayoutStatus) (bool, error)
}

// ProcessedEventRepository defines the interface for the idempotency ledger
type ProcessedEventRepository interface {
	// Record inserts the event reference if it was never seen before.
	// Returns false when the reference is already in the ledger, which is
	// the duplicate-delivery signal.
	Record(ctx context.Context, provider entities.WebhookProvider, eventRef, eventType string) (bool, error)

	// GetByRef retrieves a ledger row, nil when absent
	GetByRef(ctx context.Context, provider entities.WebhookProvider, eventRef string) (*entities.ProcessedEvent, error)
}

// AuditLogRepository defines the interface for the append-only audit trail
type AuditLogRepository interface {
	// Record appends one audit entry. Entries are never updated or deleted.
	Record(ctx context.Context, entry *entities.PoolAuditEntry) error

	// ListByPool returns audit entries for a pool, newest first
	ListByPool(ctx context.Context, poolID int64, limit int) ([]*entities.PoolAuditEntry, error)

	// ListByCompetition returns audit entries for a competition, newest first
	ListByCompetition(ctx context.Context, competitionID int64, limit int) ([]*entities.PoolAuditEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events during a unit of work and
// releases them only when the transaction commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all buffered events, best effort
	Flush(ctx context.Context) error

	// Discard drops all buffered events
	Discard()
}
