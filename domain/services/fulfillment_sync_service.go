package services

import (
	"context"
	"fmt"
	"time"

	"sweatstakes/domain/entities"
	"sweatstakes/domain/events"
	"sweatstakes/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type fulfillmentSyncService struct {
	payoutRepo         interfaces.PrizePayoutRepository
	poolRepo           interfaces.PrizePoolRepository
	processedEventRepo interfaces.ProcessedEventRepository
	auditRepo          interfaces.AuditLogRepository
	eventPublisher     interfaces.EventPublisher
}

// NewFulfillmentSyncService creates a new fulfillment status synchronizer
func NewFulfillmentSyncService(
	payoutRepo interfaces.PrizePayoutRepository,
	poolRepo interfaces.PrizePoolRepository,
	processedEventRepo interfaces.ProcessedEventRepository,
	auditRepo interfaces.AuditLogRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.FulfillmentSyncService {
	return &fulfillmentSyncService{
		payoutRepo:         payoutRepo,
		poolRepo:           poolRepo,
		processedEventRepo: processedEventRepo,
		auditRepo:          auditRepo,
		eventPublisher:     eventPublisher,
	}
}

// ApplyDeliverySucceeded moves an executed payout to delivered
func (s *fulfillmentSyncService) ApplyDeliverySucceeded(ctx context.Context, eventRef, orderRef string, at time.Time) (*entities.PrizePayout, error) {
	payout, err := s.loadPayout(ctx, eventRef, "delivery_succeeded", orderRef)
	if err != nil {
		return nil, err
	}

	switch payout.Status {
	case entities.PayoutStatusDelivered, entities.PayoutStatusRedeemed:
		// The transition already happened through an earlier event.
		return payout, fmt.Errorf("payout %d already %s: %w", payout.ID, payout.Status, ErrDuplicateEvent)
	case entities.PayoutStatusExecuted:
	default:
		return nil, fmt.Errorf("payout %d is %s, cannot deliver", payout.ID, payout.Status)
	}

	payout.MarkDelivered(at)
	swapped, err := s.payoutRepo.TransitionStatus(ctx, payout, entities.PayoutStatusExecuted)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payout delivered: %w", err)
	}
	if !swapped {
		return nil, fmt.Errorf("payout %d left executed concurrently", payout.ID)
	}

	if err := s.recordAudit(ctx, payout, entities.AuditActionPayoutDelivered, map[string]any{
		"order_ref": orderRef,
		"event_ref": eventRef,
	}); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.PayoutDeliveredEvent{
		PayoutID: payout.ID,
		WinnerID: payout.WinnerID,
		Amount:   payout.Amount,
		OrderRef: orderRef,
	}); err != nil {
		log.WithError(err).Error("failed to publish payout delivered event")
	}

	return payout, nil
}

// ApplyRedeemed moves a delivered payout to redeemed. An executed payout is
// accepted too: redemption proves delivery even when the delivery event was
// lost in transit.
func (s *fulfillmentSyncService) ApplyRedeemed(ctx context.Context, eventRef, orderRef string) (*entities.PrizePayout, error) {
	payout, err := s.loadPayout(ctx, eventRef, "reward_redeemed", orderRef)
	if err != nil {
		return nil, err
	}

	var from entities.PayoutStatus
	switch payout.Status {
	case entities.PayoutStatusRedeemed:
		return payout, fmt.Errorf("payout %d already redeemed: %w", payout.ID, ErrDuplicateEvent)
	case entities.PayoutStatusDelivered:
		from = entities.PayoutStatusDelivered
	case entities.PayoutStatusExecuted:
		from = entities.PayoutStatusExecuted
	default:
		return nil, fmt.Errorf("payout %d is %s, cannot redeem", payout.ID, payout.Status)
	}

	payout.MarkRedeemed()
	swapped, err := s.payoutRepo.TransitionStatus(ctx, payout, from)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payout redeemed: %w", err)
	}
	if !swapped {
		return nil, fmt.Errorf("payout %d left %s concurrently", payout.ID, from)
	}

	if err := s.recordAudit(ctx, payout, entities.AuditActionPayoutRedeemed, map[string]any{
		"order_ref": orderRef,
		"event_ref": eventRef,
	}); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.PayoutRedeemedEvent{
		PayoutID: payout.ID,
		WinnerID: payout.WinnerID,
		Amount:   payout.Amount,
	}); err != nil {
		log.WithError(err).Error("failed to publish payout redeemed event")
	}

	return payout, nil
}

// ApplyDeliveryFailed rolls an executed payout back to unclaimed and returns
// the money to the pool, since the execution debit already happened
func (s *fulfillmentSyncService) ApplyDeliveryFailed(ctx context.Context, eventRef, orderRef, reason string) (*entities.PrizePayout, error) {
	payout, err := s.loadPayout(ctx, eventRef, "delivery_failed", orderRef)
	if err != nil {
		return nil, err
	}

	if payout.Status != entities.PayoutStatusExecuted {
		return nil, fmt.Errorf("payout %d is %s, cannot roll back delivery", payout.ID, payout.Status)
	}

	var rewardRef string
	if payout.FulfillmentRewardRef != nil {
		rewardRef = *payout.FulfillmentRewardRef
	}

	payout.RollbackToUnclaimed(reason)
	swapped, err := s.payoutRepo.TransitionStatus(ctx, payout, entities.PayoutStatusExecuted)
	if err != nil {
		return nil, fmt.Errorf("failed to roll back payout: %w", err)
	}
	if !swapped {
		return nil, fmt.Errorf("payout %d left executed concurrently", payout.ID)
	}

	credited, err := s.poolRepo.CreditRemaining(ctx, payout.PoolID, payout.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to re-credit pool: %w", err)
	}
	if !credited {
		log.WithFields(log.Fields{
			"payoutID": payout.ID,
			"poolID":   payout.PoolID,
			"amount":   payout.Amount,
		}).Error("re-credit would exceed pool total")
		return nil, fmt.Errorf("re-credit of payout %d would exceed pool %d total", payout.ID, payout.PoolID)
	}

	if err := s.recordAudit(ctx, payout, entities.AuditActionPayoutFailed, map[string]any{
		"order_ref":   orderRef,
		"reward_ref":  rewardRef,
		"event_ref":   eventRef,
		"reason":      reason,
		"retry_count": payout.RetryCount,
		"recredited":  true,
	}); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.PayoutClaimFailedEvent{
		PayoutID:   payout.ID,
		WinnerID:   payout.WinnerID,
		Amount:     payout.Amount,
		Reason:     reason,
		RetryCount: payout.RetryCount,
	}); err != nil {
		log.WithError(err).Error("failed to publish payout claim failed event")
	}

	return payout, nil
}

// loadPayout runs the shared dedup-then-locate prologue of every
// fulfillment event
func (s *fulfillmentSyncService) loadPayout(ctx context.Context, eventRef, eventType, orderRef string) (*entities.PrizePayout, error) {
	if eventRef == "" {
		return nil, fmt.Errorf("event reference cannot be empty")
	}
	if orderRef == "" {
		return nil, fmt.Errorf("order reference cannot be empty")
	}

	inserted, err := s.processedEventRepo.Record(ctx, entities.WebhookProviderFulfillment, eventRef, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}
	if !inserted {
		return nil, ErrDuplicateEvent
	}

	payout, err := s.payoutRepo.GetByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout by order ref: %w", err)
	}
	if payout == nil {
		return nil, fmt.Errorf("order %s: %w", orderRef, ErrRecordNotFound)
	}
	return payout, nil
}

func (s *fulfillmentSyncService) recordAudit(ctx context.Context, payout *entities.PrizePayout, action entities.AuditAction, metadata map[string]any) error {
	metadata["payout_id"] = payout.ID
	entry := &entities.PoolAuditEntry{
		PoolID:        &payout.PoolID,
		CompetitionID: payout.CompetitionID,
		ActorID:       payout.WinnerID,
		Action:        action,
		Amount:        payout.Amount,
		Metadata:      metadata,
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid audit entry: %w", err)
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}
