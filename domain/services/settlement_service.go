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

type settlementService struct {
	pendingPoolRepo    interfaces.PendingPoolRepository
	poolRepo           interfaces.PrizePoolRepository
	payoutRepo         interfaces.PrizePayoutRepository
	processedEventRepo interfaces.ProcessedEventRepository
	auditRepo          interfaces.AuditLogRepository
	eventPublisher     interfaces.EventPublisher
	claimWindow        time.Duration
}

// NewSettlementService creates a new settlement service. claimWindow is how
// long winners get to claim a payout before it expires.
func NewSettlementService(
	pendingPoolRepo interfaces.PendingPoolRepository,
	poolRepo interfaces.PrizePoolRepository,
	payoutRepo interfaces.PrizePayoutRepository,
	processedEventRepo interfaces.ProcessedEventRepository,
	auditRepo interfaces.AuditLogRepository,
	eventPublisher interfaces.EventPublisher,
	claimWindow time.Duration,
) interfaces.SettlementService {
	return &settlementService{
		pendingPoolRepo:    pendingPoolRepo,
		poolRepo:           poolRepo,
		payoutRepo:         payoutRepo,
		processedEventRepo: processedEventRepo,
		auditRepo:          auditRepo,
		eventPublisher:     eventPublisher,
		claimWindow:        claimWindow,
	}
}

// RegisterPendingPool records a funding intent before any money moves. The
// upstream payment-intent API calls this, then hands the pending pool id to
// the payment processor as metadata on the creator's payment.
func (s *settlementService) RegisterPendingPool(ctx context.Context, competitionID, creatorID, amount int64, structure entities.PayoutStructure) (*entities.PendingPool, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("pool amount must be positive, got %d", amount)
	}
	if err := structure.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payout structure: %w", err)
	}

	existing, err := s.poolRepo.GetByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing pool: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("competition %d already has a pool", competitionID)
	}

	pending := &entities.PendingPool{
		CompetitionID:   competitionID,
		CreatorID:       creatorID,
		Amount:          amount,
		PayoutStructure: structure,
		Status:          entities.PendingPoolStatusPending,
	}
	if err := s.pendingPoolRepo.Create(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to create pending pool: %w", err)
	}
	return pending, nil
}

// SettleCompetition applies a competition-completed event: it finds the
// competition's pool and settles it across the event's rankings. Competitions
// without a pool are acknowledged with no payouts; the dedup row still lands
// so redeliveries stop.
func (s *settlementService) SettleCompetition(ctx context.Context, event interfaces.CompetitionEvent, now time.Time) ([]*entities.PrizePayout, error) {
	inserted, err := s.processedEventRepo.Record(ctx, entities.WebhookProviderCompetition, event.EventRef, interfaces.CompetitionEventCompleted)
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
		log.WithField("competitionID", event.CompetitionID).Info("Competition completed without a prize pool")
		return nil, nil
	}
	if pool.IsSettled() {
		// A replay of the completion under a fresh event ref. Same outcome
		// as a redelivery, acknowledge without touching state.
		return nil, fmt.Errorf("pool %d is already settled: %w", pool.ID, ErrDuplicateEvent)
	}

	return s.settle(ctx, pool, event.Rankings, now)
}

// SettlePool splits an active pool across the final rankings and creates
// unclaimed payouts with a claim deadline
func (s *settlementService) SettlePool(ctx context.Context, poolID int64, rankings []interfaces.PlacementResult, now time.Time) ([]*entities.PrizePayout, error) {
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	if pool == nil {
		return nil, fmt.Errorf("pool %d: %w", poolID, ErrRecordNotFound)
	}

	return s.settle(ctx, pool, rankings, now)
}

func (s *settlementService) settle(ctx context.Context, pool *entities.PrizePool, rankings []interfaces.PlacementResult, now time.Time) ([]*entities.PrizePayout, error) {
	if !pool.IsActive() {
		return nil, fmt.Errorf("pool %d is %s, cannot settle", pool.ID, pool.Status)
	}
	if err := pool.PayoutStructure.Validate(); err != nil {
		return nil, fmt.Errorf("pool %d has invalid payout structure: %w", pool.ID, err)
	}

	winners, err := winnersByPlacement(rankings, pool.PayoutStructure)
	if err != nil {
		return nil, err
	}

	amounts := pool.PayoutStructure.Split(pool.TotalAmount)
	expiresAt := now.Add(s.claimWindow)

	payouts := make([]*entities.PrizePayout, 0, len(pool.PayoutStructure))
	var totalAwarded int64
	for _, placement := range pool.PayoutStructure.Placements() {
		payout := &entities.PrizePayout{
			PoolID:         pool.ID,
			CompetitionID:  pool.CompetitionID,
			WinnerID:       winners[placement],
			Placement:      placement,
			Amount:         amounts[placement],
			Status:         entities.PayoutStatusUnclaimed,
			ClaimExpiresAt: expiresAt,
		}
		if err := s.payoutRepo.Create(ctx, payout); err != nil {
			return nil, fmt.Errorf("failed to create payout for placement %d: %w", placement, err)
		}
		payouts = append(payouts, payout)
		totalAwarded += payout.Amount
	}

	settled, err := s.poolRepo.UpdateStatus(ctx, pool.ID, entities.PoolStatusActive, entities.PoolStatusSettled)
	if err != nil {
		return nil, fmt.Errorf("failed to settle pool: %w", err)
	}
	if !settled {
		return nil, fmt.Errorf("pool %d left active concurrently", pool.ID)
	}

	entry := &entities.PoolAuditEntry{
		PoolID:        &pool.ID,
		CompetitionID: pool.CompetitionID,
		ActorID:       pool.CreatorID,
		Action:        entities.AuditActionPoolSettled,
		Amount:        totalAwarded,
		Metadata: map[string]any{
			"payout_count":     len(payouts),
			"claim_expires_at": expiresAt.Format(time.RFC3339),
		},
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audit entry: %w", err)
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record audit entry: %w", err)
	}

	if err := s.eventPublisher.Publish(events.PoolSettledEvent{
		PoolID:        pool.ID,
		CompetitionID: pool.CompetitionID,
		PayoutCount:   len(payouts),
		TotalAwarded:  totalAwarded,
	}); err != nil {
		log.WithError(err).Error("failed to publish pool settled event")
	}

	return payouts, nil
}

// winnersByPlacement maps every paid placement to its winner, rejecting
// rankings that miss a placement or award two placements to one user
func winnersByPlacement(rankings []interfaces.PlacementResult, structure entities.PayoutStructure) (map[int]int64, error) {
	byPlacement := make(map[int]int64, len(rankings))
	seenWinners := make(map[int64]int, len(rankings))
	for _, result := range rankings {
		if _, dup := byPlacement[result.Placement]; dup {
			return nil, fmt.Errorf("duplicate ranking for placement %d", result.Placement)
		}
		if prev, dup := seenWinners[result.WinnerID]; dup {
			return nil, fmt.Errorf("user %d ranked at both placement %d and %d", result.WinnerID, prev, result.Placement)
		}
		byPlacement[result.Placement] = result.WinnerID
		seenWinners[result.WinnerID] = result.Placement
	}

	winners := make(map[int]int64, len(structure))
	for _, placement := range structure.Placements() {
		winnerID, ok := byPlacement[placement]
		if !ok {
			return nil, fmt.Errorf("rankings missing placement %d", placement)
		}
		winners[placement] = winnerID
	}
	return winners, nil
}
