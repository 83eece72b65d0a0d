package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sweatstakes/domain/entities"
	"sweatstakes/domain/interfaces"
	"sweatstakes/domain/services"
	"sweatstakes/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// SettlementEventHandler processes competition lifecycle events from the
// competition engine
type SettlementEventHandler interface {
	HandleCompetitionCompleted(ctx context.Context, event interfaces.CompetitionEvent) error
}

// settlementEventHandler implements the SettlementEventHandler interface
type settlementEventHandler struct {
	uowFactory  UnitOfWorkFactory
	claimWindow time.Duration
}

// NewSettlementEventHandler creates a new SettlementEventHandler
func NewSettlementEventHandler(uowFactory UnitOfWorkFactory, claimWindow time.Duration) SettlementEventHandler {
	return &settlementEventHandler{
		uowFactory:  uowFactory,
		claimWindow: claimWindow,
	}
}

// HandleCompetitionCompleted settles the completed competition's pool inside
// its own unit of work. A duplicate delivery surfaces as
// services.ErrDuplicateEvent, which the consumer acknowledges so the message
// stops being redelivered.
func (h *settlementEventHandler) HandleCompetitionCompleted(ctx context.Context, event interfaces.CompetitionEvent) error {
	logger := log.WithFields(log.Fields{
		"eventRef":      event.EventRef,
		"competitionID": event.CompetitionID,
	})

	payouts, err := h.settle(ctx, event)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEvent) {
			observability.GetMetrics().RecordDuplicateEvent("competition")
			logger.Info("Acknowledged redelivered competition event")
			return err
		}
		logger.WithError(err).Error("Failed to settle completed competition")
		return err
	}

	if len(payouts) == 0 {
		// Not every competition carries a prize pool; the dedup row is
		// committed so redeliveries stop here too.
		return nil
	}

	total := int64(0)
	for _, payout := range payouts {
		total += payout.Amount
	}
	logger.WithFields(log.Fields{
		"payoutCount":  len(payouts),
		"totalAwarded": total,
	}).Info("Settled prize pool for completed competition")
	return nil
}

// settle runs the settlement inside a fresh unit of work
func (h *settlementEventHandler) settle(ctx context.Context, event interfaces.CompetitionEvent) ([]*entities.PrizePayout, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewSettlementService(
		uow.PendingPoolRepository(),
		uow.PrizePoolRepository(),
		uow.PrizePayoutRepository(),
		uow.ProcessedEventRepository(),
		uow.AuditLogRepository(),
		uow.EventBus(),
		h.claimWindow,
	)

	payouts, err := svc.SettleCompetition(ctx, event, time.Now())
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return payouts, nil
}
