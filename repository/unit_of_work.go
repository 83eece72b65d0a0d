package repository

import (
	"context"
	"fmt"

	"sweatstakes/application"
	"sweatstakes/database"
	"sweatstakes/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	pendingPoolRepo        interfaces.PendingPoolRepository
	poolRepo               interfaces.PrizePoolRepository
	buyInRepo              interfaces.BuyInPaymentRepository
	participantRepo        interfaces.ParticipantRepository
	invitationRepo         interfaces.InvitationRepository
	payoutRepo             interfaces.PrizePayoutRepository
	processedEventRepo     interfaces.ProcessedEventRepository
	auditRepo              interfaces.AuditLogRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

type unitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.pendingPoolRepo = newPendingPoolRepository(tx)
	u.poolRepo = newPrizePoolRepository(tx)
	u.buyInRepo = newBuyInPaymentRepository(tx)
	u.participantRepo = newParticipantRepository(tx)
	u.invitationRepo = newInvitationRepository(tx)
	u.payoutRepo = newPrizePayoutRepository(tx)
	u.processedEventRepo = newProcessedEventRepository(tx)
	u.auditRepo = newAuditLogRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// PendingPoolRepository returns the pending pool repository for this unit of work
func (u *unitOfWork) PendingPoolRepository() interfaces.PendingPoolRepository {
	if u.pendingPoolRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.pendingPoolRepo
}

// PrizePoolRepository returns the prize pool repository for this unit of work
func (u *unitOfWork) PrizePoolRepository() interfaces.PrizePoolRepository {
	if u.poolRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.poolRepo
}

// BuyInPaymentRepository returns the buy-in payment repository for this unit of work
func (u *unitOfWork) BuyInPaymentRepository() interfaces.BuyInPaymentRepository {
	if u.buyInRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.buyInRepo
}

// ParticipantRepository returns the participant repository for this unit of work
func (u *unitOfWork) ParticipantRepository() interfaces.ParticipantRepository {
	if u.participantRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.participantRepo
}

// InvitationRepository returns the invitation repository for this unit of work
func (u *unitOfWork) InvitationRepository() interfaces.InvitationRepository {
	if u.invitationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.invitationRepo
}

// PrizePayoutRepository returns the prize payout repository for this unit of work
func (u *unitOfWork) PrizePayoutRepository() interfaces.PrizePayoutRepository {
	if u.payoutRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.payoutRepo
}

// ProcessedEventRepository returns the processed event repository for this unit of work
func (u *unitOfWork) ProcessedEventRepository() interfaces.ProcessedEventRepository {
	if u.processedEventRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.processedEventRepo
}

// AuditLogRepository returns the audit log repository for this unit of work
func (u *unitOfWork) AuditLogRepository() interfaces.AuditLogRepository {
	if u.auditRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.auditRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work has no event publisher")
	}
	return u.transactionalPublisher
}
