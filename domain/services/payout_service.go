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

type payoutService struct {
	payoutRepo     interfaces.PrizePayoutRepository
	poolRepo       interfaces.PrizePoolRepository
	auditRepo      interfaces.AuditLogRepository
	eventPublisher interfaces.EventPublisher
}

// NewPayoutService creates a new payout service
func NewPayoutService(
	payoutRepo interfaces.PrizePayoutRepository,
	poolRepo interfaces.PrizePoolRepository,
	auditRepo interfaces.AuditLogRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.PayoutService {
	return &payoutService{
		payoutRepo:     payoutRepo,
		poolRepo:       poolRepo,
		auditRepo:      auditRepo,
		eventPublisher: eventPublisher,
	}
}

// BeginClaim checks the claim preconditions in order and marks the payout
// processing. The precondition order is part of the contract: existence,
// then ownership, then claim state, then expiry.
func (s *payoutService) BeginClaim(ctx context.Context, winnerID, payoutID int64, now time.Time) (*entities.PrizePayout, error) {
	payout, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	if payout == nil {
		return nil, fmt.Errorf("payout %d: %w", payoutID, ErrRecordNotFound)
	}

	if !payout.BelongsTo(winnerID) {
		return nil, fmt.Errorf("user %d does not own payout %d: %w", winnerID, payoutID, ErrNotAuthorized)
	}

	if payout.IsClaimStarted() {
		return nil, fmt.Errorf("payout %d is %s: %w", payoutID, payout.Status, ErrAlreadyClaimed)
	}

	if payout.IsClaimExpired(now) {
		// Lazy expiry: the claim attempt itself flags a payout the sweep
		// has not reached yet, so the stored status matches the rejection.
		if payout.Status == entities.PayoutStatusUnclaimed {
			if _, err := s.expirePayout(ctx, payout); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("payout %d expired at %s: %w", payoutID, payout.ClaimExpiresAt.Format(time.RFC3339), ErrClaimExpired)
	}

	payout.BeginProcessing(now)
	swapped, err := s.payoutRepo.TransitionStatus(ctx, payout, entities.PayoutStatusUnclaimed)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payout processing: %w", err)
	}
	if !swapped {
		// A concurrent claim won the compare-and-swap.
		return nil, fmt.Errorf("payout %d claimed concurrently: %w", payoutID, ErrAlreadyClaimed)
	}

	if err := s.recordAudit(ctx, &entities.PoolAuditEntry{
		PoolID:        &payout.PoolID,
		CompetitionID: payout.CompetitionID,
		ActorID:       winnerID,
		Action:        entities.AuditActionPayoutClaimed,
		Amount:        payout.Amount,
		Metadata: map[string]any{
			"payout_id": payout.ID,
			"placement": payout.Placement,
			"attempt":   payout.RetryCount + 1,
		},
	}); err != nil {
		return nil, err
	}

	return payout, nil
}

// CompleteClaim records the provider's accepted order and debits the pool
func (s *payoutService) CompleteClaim(ctx context.Context, payoutID int64, orderRef, rewardRef string) (*entities.PrizePayout, error) {
	if orderRef == "" {
		return nil, fmt.Errorf("order reference cannot be empty")
	}

	payout, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	if payout == nil {
		return nil, fmt.Errorf("payout %d: %w", payoutID, ErrRecordNotFound)
	}
	if payout.Status != entities.PayoutStatusProcessing {
		return nil, fmt.Errorf("payout %d is %s, expected processing", payoutID, payout.Status)
	}

	payout.MarkExecuted(orderRef, rewardRef)
	swapped, err := s.payoutRepo.TransitionStatus(ctx, payout, entities.PayoutStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payout executed: %w", err)
	}
	if !swapped {
		return nil, fmt.Errorf("payout %d left processing concurrently", payoutID)
	}

	debited, err := s.poolRepo.DebitRemaining(ctx, payout.PoolID, payout.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit pool: %w", err)
	}
	if !debited {
		// Settlement guarantees payouts never oversubscribe the pool, so
		// this indicates corrupted state. Rolling back leaves the payout
		// processing with the order reference in the provider's hands;
		// the stuck-processing sweep will surface it.
		log.WithFields(log.Fields{
			"payoutID": payout.ID,
			"poolID":   payout.PoolID,
			"amount":   payout.Amount,
		}).Error("pool balance cannot cover executed payout")
		return nil, fmt.Errorf("pool %d cannot cover payout %d", payout.PoolID, payout.ID)
	}

	if err := s.recordAudit(ctx, &entities.PoolAuditEntry{
		PoolID:         &payout.PoolID,
		CompetitionID:  payout.CompetitionID,
		ActorID:        payout.WinnerID,
		Action:         entities.AuditActionPayoutExecuted,
		Amount:         payout.Amount,
		TransactionRef: &orderRef,
		Metadata: map[string]any{
			"payout_id":       payout.ID,
			"order_ref":       orderRef,
			"reward_ref":      rewardRef,
			"idempotency_key": payout.FulfillmentIdempotencyKey(),
		},
	}); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.PayoutExecutedEvent{
		PayoutID:      payout.ID,
		PoolID:        payout.PoolID,
		CompetitionID: payout.CompetitionID,
		WinnerID:      payout.WinnerID,
		Amount:        payout.Amount,
		OrderRef:      orderRef,
	}); err != nil {
		log.WithError(err).Error("failed to publish payout executed event")
	}

	return payout, nil
}

// FailClaim rolls the payout back to unclaimed with the failure reason
func (s *payoutService) FailClaim(ctx context.Context, payoutID int64, reason string) (*entities.PrizePayout, error) {
	payout, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	if payout == nil {
		return nil, fmt.Errorf("payout %d: %w", payoutID, ErrRecordNotFound)
	}
	if payout.Status != entities.PayoutStatusProcessing {
		return nil, fmt.Errorf("payout %d is %s, expected processing", payoutID, payout.Status)
	}

	payout.RollbackToUnclaimed(reason)
	swapped, err := s.payoutRepo.TransitionStatus(ctx, payout, entities.PayoutStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to roll back payout: %w", err)
	}
	if !swapped {
		return nil, fmt.Errorf("payout %d left processing concurrently", payoutID)
	}

	if err := s.recordAudit(ctx, &entities.PoolAuditEntry{
		PoolID:        &payout.PoolID,
		CompetitionID: payout.CompetitionID,
		ActorID:       payout.WinnerID,
		Action:        entities.AuditActionPayoutFailed,
		Amount:        payout.Amount,
		Metadata: map[string]any{
			"payout_id":   payout.ID,
			"reason":      reason,
			"retry_count": payout.RetryCount,
		},
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

// ExpireOverdue flags unclaimed payouts whose window closed. Claim-time
// expiry checks never depend on this; it exists so winners see an accurate
// status and the audit trail records the expiry.
func (s *payoutService) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	overdue, err := s.payoutRepo.ListExpiredUnclaimed(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue payouts: %w", err)
	}

	expired := 0
	for _, payout := range overdue {
		swapped, err := s.expirePayout(ctx, payout)
		if err != nil {
			return expired, err
		}
		if !swapped {
			// Claimed between listing and flagging; leave it alone.
			continue
		}
		expired++
	}

	return expired, nil
}

// expirePayout persists the unclaimed -> expired transition with its audit
// entry and event. Returns false when a concurrent writer moved the payout
// first.
func (s *payoutService) expirePayout(ctx context.Context, payout *entities.PrizePayout) (bool, error) {
	payout.Expire()
	swapped, err := s.payoutRepo.TransitionStatus(ctx, payout, entities.PayoutStatusUnclaimed)
	if err != nil {
		return false, fmt.Errorf("failed to expire payout %d: %w", payout.ID, err)
	}
	if !swapped {
		return false, nil
	}

	if err := s.recordAudit(ctx, &entities.PoolAuditEntry{
		PoolID:        &payout.PoolID,
		CompetitionID: payout.CompetitionID,
		ActorID:       payout.WinnerID,
		Action:        entities.AuditActionPayoutExpired,
		Amount:        payout.Amount,
		Metadata: map[string]any{
			"payout_id":        payout.ID,
			"claim_expires_at": payout.ClaimExpiresAt.Format(time.RFC3339),
		},
	}); err != nil {
		return false, err
	}

	if err := s.eventPublisher.Publish(events.PayoutExpiredEvent{
		PayoutID: payout.ID,
		WinnerID: payout.WinnerID,
		Amount:   payout.Amount,
	}); err != nil {
		log.WithError(err).Error("failed to publish payout expired event")
	}
	return true, nil
}

func (s *payoutService) recordAudit(ctx context.Context, entry *entities.PoolAuditEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid audit entry: %w", err)
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}
