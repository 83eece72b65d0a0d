package application

import (
	"context"

	"sweatstakes/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations.
// Every webhook and claim mutation runs inside one so partial writes never
// become visible and buffered events only publish on commit.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	PendingPoolRepository() interfaces.PendingPoolRepository
	PrizePoolRepository() interfaces.PrizePoolRepository
	BuyInPaymentRepository() interfaces.BuyInPaymentRepository
	ParticipantRepository() interfaces.ParticipantRepository
	InvitationRepository() interfaces.InvitationRepository
	PrizePayoutRepository() interfaces.PrizePayoutRepository
	ProcessedEventRepository() interfaces.ProcessedEventRepository
	AuditLogRepository() interfaces.AuditLogRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
