package application

import (
	"context"
	"errors"
	"fmt"

	"sweatstakes/domain/interfaces"
	"sweatstakes/domain/services"
	"sweatstakes/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// PaymentEventHandler processes verified payment processor webhooks
type PaymentEventHandler interface {
	HandlePaymentEvent(ctx context.Context, event interfaces.PaymentEvent) error
}

// paymentEventHandler implements the PaymentEventHandler interface
type paymentEventHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewPaymentEventHandler creates a new PaymentEventHandler
func NewPaymentEventHandler(uowFactory UnitOfWorkFactory) PaymentEventHandler {
	return &paymentEventHandler{
		uowFactory: uowFactory,
	}
}

// HandlePaymentEvent routes a decoded payment event to the funding service.
// Each event runs inside its own unit of work; a duplicate delivery surfaces
// as services.ErrDuplicateEvent, which the HTTP layer acknowledges with
// success so the processor stops retrying.
func (h *paymentEventHandler) HandlePaymentEvent(ctx context.Context, event interfaces.PaymentEvent) error {
	logger := log.WithFields(log.Fields{
		"transactionRef": event.TransactionRef,
		"eventType":      event.EventType,
		"kind":           event.Kind,
		"competitionID":  event.CompetitionID,
	})

	err := h.dispatch(ctx, event)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEvent) {
			observability.GetMetrics().RecordDuplicateEvent("payment")
			logger.Info("Acknowledged redelivered payment event")
			return err
		}
		logger.WithError(err).Error("Failed to process payment event")
		return err
	}

	logger.Info("Processed payment event")
	return nil
}

func (h *paymentEventHandler) dispatch(ctx context.Context, event interfaces.PaymentEvent) error {
	switch event.EventType {
	case interfaces.PaymentEventSucceeded:
		switch event.Kind {
		case interfaces.PaymentKindPoolFunding:
			return h.inUnitOfWork(ctx, func(svc interfaces.FundingService) error {
				_, err := svc.ConfirmPoolFunding(ctx, event)
				return err
			})
		case interfaces.PaymentKindBuyIn:
			err := h.inUnitOfWork(ctx, func(svc interfaces.FundingService) error {
				_, err := svc.RecordBuyIn(ctx, event)
				return err
			})
			if errors.Is(err, services.ErrPoolNotAccepting) {
				h.recordRejectedBuyIn(ctx, event)
			}
			return err
		}

	case interfaces.PaymentEventFailed:
		switch event.Kind {
		case interfaces.PaymentKindPoolFunding:
			return h.inUnitOfWork(ctx, func(svc interfaces.FundingService) error {
				return svc.RecordPoolFundingFailure(ctx, event)
			})
		case interfaces.PaymentKindBuyIn:
			return h.inUnitOfWork(ctx, func(svc interfaces.FundingService) error {
				return svc.RecordBuyInFailure(ctx, event)
			})
		}

	default:
		// Processors send many event types; unknown ones are acknowledged
		// without work so they stop being redelivered.
		log.WithField("eventType", event.EventType).Debug("Ignoring unhandled payment event type")
		return nil
	}

	log.WithFields(log.Fields{
		"eventType": event.EventType,
		"kind":      event.Kind,
	}).Warn("Payment event carries an unknown kind")
	return nil
}

// recordRejectedBuyIn keeps a rejected buy-in on the books after the applying
// transaction rolled back. The money was captured upstream, so the failed
// payment row and audit entry are what support uses to trace the refund.
func (h *paymentEventHandler) recordRejectedBuyIn(ctx context.Context, event interfaces.PaymentEvent) {
	failure := event
	failure.FailureReason = "pool is not accepting payments"

	err := h.inUnitOfWork(ctx, func(svc interfaces.FundingService) error {
		return svc.RecordBuyInFailure(ctx, failure)
	})
	if err != nil && !errors.Is(err, services.ErrDuplicateEvent) {
		log.WithError(err).WithField("transactionRef", event.TransactionRef).
			Error("Failed to record rejected buy-in")
	}
}

// inUnitOfWork runs one funding operation inside a fresh unit of work
func (h *paymentEventHandler) inUnitOfWork(ctx context.Context, fn func(svc interfaces.FundingService) error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewFundingService(
		uow.PendingPoolRepository(),
		uow.PrizePoolRepository(),
		uow.BuyInPaymentRepository(),
		uow.ParticipantRepository(),
		uow.InvitationRepository(),
		uow.ProcessedEventRepository(),
		uow.AuditLogRepository(),
		uow.EventBus(),
	)

	if err := fn(svc); err != nil {
		return err
	}

	return uow.Commit()
}
