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

type fundingService struct {
	pendingPoolRepo    interfaces.PendingPoolRepository
	poolRepo           interfaces.PrizePoolRepository
	buyInRepo          interfaces.BuyInPaymentRepository
	participantRepo    interfaces.ParticipantRepository
	invitationRepo     interfaces.InvitationRepository
	processedEventRepo interfaces.ProcessedEventRepository
	auditRepo          interfaces.AuditLogRepository
	eventPublisher     interfaces.EventPublisher
}

// NewFundingService creates a new funding service
func NewFundingService(
	pendingPoolRepo interfaces.PendingPoolRepository,
	poolRepo interfaces.PrizePoolRepository,
	buyInRepo interfaces.BuyInPaymentRepository,
	participantRepo interfaces.ParticipantRepository,
	invitationRepo interfaces.InvitationRepository,
	processedEventRepo interfaces.ProcessedEventRepository,
	auditRepo interfaces.AuditLogRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.FundingService {
	return &fundingService{
		pendingPoolRepo:    pendingPoolRepo,
		poolRepo:           poolRepo,
		buyInRepo:          buyInRepo,
		participantRepo:    participantRepo,
		invitationRepo:     invitationRepo,
		processedEventRepo: processedEventRepo,
		auditRepo:          auditRepo,
		eventPublisher:     eventPublisher,
	}
}

// ConfirmPoolFunding turns a pending pool into an active prize pool
func (s *fundingService) ConfirmPoolFunding(ctx context.Context, event interfaces.PaymentEvent) (*entities.PrizePool, error) {
	if event.TransactionRef == "" {
		return nil, fmt.Errorf("transaction reference cannot be empty")
	}
	if event.Amount <= 0 {
		return nil, fmt.Errorf("funding amount must be positive, got %d", event.Amount)
	}

	inserted, err := s.processedEventRepo.Record(ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType)
	if err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}
	if !inserted {
		return nil, ErrDuplicateEvent
	}

	pending, err := s.pendingPoolRepo.GetByID(ctx, event.PendingPoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending pool: %w", err)
	}
	if pending == nil {
		return nil, fmt.Errorf("pending pool %d: %w", event.PendingPoolID, ErrPendingPoolNotFound)
	}
	if !pending.IsPending() {
		// Already confirmed or failed through another event: same outcome
		// as a redelivery, acknowledge without touching state.
		return nil, fmt.Errorf("pending pool %d is %s: %w", pending.ID, pending.Status, ErrDuplicateEvent)
	}

	metadata := map[string]any{
		"event_type":      event.EventType,
		"pending_pool_id": pending.ID,
	}
	if event.Amount != pending.Amount {
		// The processor is the source of truth for captured money.
		log.WithFields(log.Fields{
			"pendingPoolID": pending.ID,
			"expected":      pending.Amount,
			"received":      event.Amount,
		}).Warn("funding amount differs from pending pool amount")
		metadata["expected_amount"] = pending.Amount
	}

	pool := &entities.PrizePool{
		CompetitionID:    pending.CompetitionID,
		CreatorID:        pending.CreatorID,
		TotalAmount:      event.Amount,
		RemainingBalance: event.Amount,
		PayoutStructure:  pending.PayoutStructure,
		Status:           entities.PoolStatusActive,
	}
	if err := s.poolRepo.Create(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to create prize pool: %w", err)
	}

	pending.Confirm(time.Now())
	if err := s.pendingPoolRepo.Update(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to confirm pending pool: %w", err)
	}

	if err := s.participantRepo.Upsert(ctx, &entities.CompetitionParticipant{
		CompetitionID: pool.CompetitionID,
		UserID:        pool.CreatorID,
		PrizeEligible: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to upsert creator participant: %w", err)
	}

	if err := s.recordAudit(ctx, &entities.PoolAuditEntry{
		PoolID:         &pool.ID,
		CompetitionID:  pool.CompetitionID,
		ActorID:        pool.CreatorID,
		Action:         entities.AuditActionPoolFunded,
		Amount:         event.Amount,
		TransactionRef: &event.TransactionRef,
		Metadata:       metadata,
	}); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.PoolActivatedEvent{
		PoolID:        pool.ID,
		CompetitionID: pool.CompetitionID,
		CreatorID:     pool.CreatorID,
		TotalAmount:   pool.TotalAmount,
	}); err != nil {
		log.WithError(err).Error("failed to publish pool activated event")
	}

	return pool, nil
}

// RecordPoolFundingFailure marks the funding intent failed
func (s *fundingService) RecordPoolFundingFailure(ctx context.Context, event interfaces.PaymentEvent) error {
	if event.TransactionRef == "" {
		return fmt.Errorf("transaction reference cannot be empty")
	}

	inserted, err := s.processedEventRepo.Record(ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	if !inserted {
		return ErrDuplicateEvent
	}

	pending, err := s.pendingPoolRepo.GetByID(ctx, event.PendingPoolID)
	if err != nil {
		return fmt.Errorf("failed to get pending pool: %w", err)
	}
	if pending == nil {
		return fmt.Errorf("pending pool %d: %w", event.PendingPoolID, ErrPendingPoolNotFound)
	}
	if !pending.IsPending() {
		return fmt.Errorf("pending pool %d is %s: %w", pending.ID, pending.Status, ErrDuplicateEvent)
	}

	pending.Fail(event.FailureReason)
	if err := s.pendingPoolRepo.Update(ctx, pending); err != nil {
		return fmt.Errorf("failed to mark pending pool failed: %w", err)
	}

	return s.recordAudit(ctx, &entities.PoolAuditEntry{
		CompetitionID:  pending.CompetitionID,
		ActorID:        pending.CreatorID,
		Action:         entities.AuditActionPoolFundingFailed,
		Amount:         event.Amount,
		TransactionRef: &event.TransactionRef,
		Metadata: map[string]any{
			"event_type":      event.EventType,
			"pending_pool_id": pending.ID,
			"reason":          event.FailureReason,
		},
	})
}

// RecordBuyIn applies a participant's buy-in to the active pool
func (s *fundingService) RecordBuyIn(ctx context.Context, event interfaces.PaymentEvent) (*entities.BuyInPayment, error) {
	if event.TransactionRef == "" {
		return nil, fmt.Errorf("transaction reference cannot be empty")
	}
	if event.Amount <= 0 {
		return nil, fmt.Errorf("buy-in amount must be positive, got %d", event.Amount)
	}
	if event.UserID == 0 {
		return nil, fmt.Errorf("buy-in requires a user id")
	}

	inserted, err := s.processedEventRepo.Record(ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType)
	if err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}
	if !inserted {
		return nil, ErrDuplicateEvent
	}

	pool, err := s.poolRepo.GetByCompetition(ctx, event.CompetitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	if pool == nil {
		return nil, fmt.Errorf("no pool for competition %d: %w", event.CompetitionID, ErrRecordNotFound)
	}

	existing, err := s.buyInRepo.GetCompletedByPoolAndUser(ctx, pool.ID, event.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing buy-in: %w", err)
	}
	if existing != nil {
		// A fresh charge for a user who already paid in. Crediting the pool
		// again would double-count them, so acknowledge and leave the second
		// charge to support for a refund.
		log.WithFields(log.Fields{
			"poolID":         pool.ID,
			"userID":         event.UserID,
			"transactionRef": event.TransactionRef,
			"previousRef":    existing.TransactionRef,
		}).Warn("user already bought into pool")
		return nil, fmt.Errorf("user %d already bought into pool %d: %w", event.UserID, pool.ID, ErrDuplicateEvent)
	}

	applied, err := s.poolRepo.AddBuyIn(ctx, pool.ID, event.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to apply buy-in to pool: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("pool %d is %s: %w", pool.ID, pool.Status, ErrPoolNotAccepting)
	}

	buyIn := &entities.BuyInPayment{
		PoolID:         pool.ID,
		CompetitionID:  pool.CompetitionID,
		UserID:         event.UserID,
		Amount:         event.Amount,
		TransactionRef: event.TransactionRef,
		Status:         entities.BuyInStatusCompleted,
	}
	if err := s.buyInRepo.Create(ctx, buyIn); err != nil {
		return nil, fmt.Errorf("failed to create buy-in payment: %w", err)
	}

	if err := s.participantRepo.Upsert(ctx, &entities.CompetitionParticipant{
		CompetitionID: pool.CompetitionID,
		UserID:        event.UserID,
		PrizeEligible: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to upsert participant: %w", err)
	}

	metadata := map[string]any{"event_type": event.EventType}
	if event.InvitationID > 0 {
		s.acceptInvitation(ctx, event.InvitationID, event.UserID, metadata)
	}

	if err := s.recordAudit(ctx, &entities.PoolAuditEntry{
		PoolID:         &pool.ID,
		CompetitionID:  pool.CompetitionID,
		ActorID:        event.UserID,
		Action:         entities.AuditActionBuyIn,
		Amount:         event.Amount,
		TransactionRef: &event.TransactionRef,
		Metadata:       metadata,
	}); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.BuyInRecordedEvent{
		PoolID:        pool.ID,
		CompetitionID: pool.CompetitionID,
		UserID:        event.UserID,
		Amount:        event.Amount,
		PoolTotal:     pool.TotalAmount + event.Amount,
	}); err != nil {
		log.WithError(err).Error("failed to publish buy-in recorded event")
	}

	return buyIn, nil
}

// RecordBuyInFailure records a failed buy-in attempt for the audit trail.
// Called inside its own unit of work after the applying transaction rolled
// back, so the event reference is recorded fresh here.
func (s *fundingService) RecordBuyInFailure(ctx context.Context, event interfaces.PaymentEvent) error {
	if event.TransactionRef == "" {
		return fmt.Errorf("transaction reference cannot be empty")
	}

	inserted, err := s.processedEventRepo.Record(ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	if !inserted {
		return ErrDuplicateEvent
	}

	pool, err := s.poolRepo.GetByCompetition(ctx, event.CompetitionID)
	if err != nil {
		return fmt.Errorf("failed to get pool: %w", err)
	}

	entry := &entities.PoolAuditEntry{
		CompetitionID:  event.CompetitionID,
		ActorID:        event.UserID,
		Action:         entities.AuditActionBuyInFailed,
		Amount:         event.Amount,
		TransactionRef: &event.TransactionRef,
		Metadata: map[string]any{
			"event_type": event.EventType,
			"reason":     event.FailureReason,
		},
	}

	if pool != nil {
		entry.PoolID = &pool.ID
		if err := s.buyInRepo.Create(ctx, &entities.BuyInPayment{
			PoolID:         pool.ID,
			CompetitionID:  pool.CompetitionID,
			UserID:         event.UserID,
			Amount:         event.Amount,
			TransactionRef: event.TransactionRef,
			Status:         entities.BuyInStatusFailed,
		}); err != nil {
			return fmt.Errorf("failed to create failed buy-in record: %w", err)
		}
	}

	return s.recordAudit(ctx, entry)
}

// acceptInvitation resolves the invitation referenced by a buy-in. Missing or
// already-answered invitations are logged and skipped: the buy-in itself must
// still apply.
func (s *fundingService) acceptInvitation(ctx context.Context, invitationID, userID int64, metadata map[string]any) {
	invitation, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		log.WithError(err).WithField("invitationID", invitationID).Warn("failed to load invitation for buy-in")
		return
	}
	if invitation == nil {
		log.WithField("invitationID", invitationID).Warn("buy-in references unknown invitation")
		return
	}

	accepted, err := s.invitationRepo.MarkAccepted(ctx, invitationID, time.Now())
	if err != nil {
		log.WithError(err).WithField("invitationID", invitationID).Warn("failed to accept invitation")
		return
	}
	if !accepted {
		log.WithFields(log.Fields{
			"invitationID": invitationID,
			"status":       invitation.Status,
		}).Info("invitation already answered")
		return
	}

	metadata["invitation_id"] = invitationID
	if err := s.eventPublisher.Publish(events.InvitationAcceptedEvent{
		InvitationID:  invitationID,
		CompetitionID: invitation.CompetitionID,
		InviterID:     invitation.InviterID,
		InviteeID:     userID,
	}); err != nil {
		log.WithError(err).Error("failed to publish invitation accepted event")
	}
}

func (s *fundingService) recordAudit(ctx context.Context, entry *entities.PoolAuditEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid audit entry: %w", err)
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}
