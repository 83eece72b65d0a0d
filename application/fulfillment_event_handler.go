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

// FulfillmentEventHandler processes verified fulfillment provider webhooks
type FulfillmentEventHandler interface {
	HandleFulfillmentEvent(ctx context.Context, event interfaces.FulfillmentEvent) error
}

// fulfillmentEventHandler implements the FulfillmentEventHandler interface
type fulfillmentEventHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewFulfillmentEventHandler creates a new FulfillmentEventHandler
func NewFulfillmentEventHandler(uowFactory UnitOfWorkFactory) FulfillmentEventHandler {
	return &fulfillmentEventHandler{
		uowFactory: uowFactory,
	}
}

// HandleFulfillmentEvent routes a decoded fulfillment status event to the
// sync service inside its own unit of work
func (h *fulfillmentEventHandler) HandleFulfillmentEvent(ctx context.Context, event interfaces.FulfillmentEvent) error {
	logger := log.WithFields(log.Fields{
		"eventRef":  event.EventRef,
		"eventType": event.EventType,
		"orderRef":  event.OrderRef,
	})

	switch event.EventType {
	case interfaces.FulfillmentEventDelivered,
		interfaces.FulfillmentEventRedeemed,
		interfaces.FulfillmentEventDeliveryFailed:
	default:
		// Providers send many event types; unknown ones are acknowledged
		// without work so they stop being redelivered.
		logger.Debug("Ignoring unhandled fulfillment event type")
		return nil
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewFulfillmentSyncService(
		uow.PrizePayoutRepository(),
		uow.PrizePoolRepository(),
		uow.ProcessedEventRepository(),
		uow.AuditLogRepository(),
		uow.EventBus(),
	)

	var err error
	switch event.EventType {
	case interfaces.FulfillmentEventDelivered:
		_, err = svc.ApplyDeliverySucceeded(ctx, event.EventRef, event.OrderRef, event.OccurredAt)
	case interfaces.FulfillmentEventRedeemed:
		_, err = svc.ApplyRedeemed(ctx, event.EventRef, event.OrderRef)
	case interfaces.FulfillmentEventDeliveryFailed:
		_, err = svc.ApplyDeliveryFailed(ctx, event.EventRef, event.OrderRef, event.Reason)
	}

	if err != nil {
		if errors.Is(err, services.ErrDuplicateEvent) {
			observability.GetMetrics().RecordDuplicateEvent("fulfillment")
			logger.Info("Acknowledged redelivered fulfillment event")
			return err
		}
		logger.WithError(err).Error("Failed to process fulfillment event")
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	logger.Info("Processed fulfillment event")
	return nil
}
