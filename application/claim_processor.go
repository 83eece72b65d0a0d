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

// ClaimResult is what a successful claim returns to the winner
type ClaimResult struct {
	Payout   *entities.PrizePayout
	OrderRef string
}

// ClaimProcessor orchestrates a winner's payout claim
type ClaimProcessor interface {
	ProcessClaim(ctx context.Context, userID, payoutID int64) (*ClaimResult, error)
}

// claimProcessor implements the ClaimProcessor interface
type claimProcessor struct {
	uowFactory  UnitOfWorkFactory
	fulfillment interfaces.FulfillmentClient
}

// NewClaimProcessor creates a new claim processor
func NewClaimProcessor(uowFactory UnitOfWorkFactory, fulfillment interfaces.FulfillmentClient) ClaimProcessor {
	return &claimProcessor{
		uowFactory:  uowFactory,
		fulfillment: fulfillment,
	}
}

// ProcessClaim runs a claim in three phases. Phase one marks the payout
// processing under its own committed transaction so the provider call can
// never double-issue. Phase two calls the provider with no transaction open.
// Phase three records the outcome: executed on success, rolled back to
// unclaimed on provider failure.
func (p *claimProcessor) ProcessClaim(ctx context.Context, userID, payoutID int64) (*ClaimResult, error) {
	start := time.Now()

	payout, err := p.beginClaim(ctx, userID, payoutID)
	if err != nil {
		observability.GetMetrics().RecordClaim(observability.ClaimOutcomeRejected, time.Since(start))
		return nil, err
	}

	order, err := p.fulfillment.CreateRewardOrder(ctx, interfaces.RewardOrderRequest{
		IdempotencyKey: payout.FulfillmentIdempotencyKey(),
		PayoutID:       payout.ID,
		CompetitionID:  payout.CompetitionID,
		WinnerID:       payout.WinnerID,
		Amount:         payout.Amount,
	})
	if err != nil {
		observability.GetMetrics().RecordFulfillmentOrder(observability.OrderOutcomeFailed)
		p.failClaim(ctx, payoutID, err)
		observability.GetMetrics().RecordClaim(observability.ClaimOutcomeProviderFail, time.Since(start))
		return nil, err
	}
	observability.GetMetrics().RecordFulfillmentOrder(observability.OrderOutcomeAccepted)

	executed, err := p.completeClaim(ctx, payoutID, order)
	if err != nil {
		// The provider already issued the order; rolling back here would
		// risk a second order on retry. The payout stays processing and
		// the stuck-processing sweep surfaces it for reconciliation.
		log.WithFields(log.Fields{
			"payoutID": payoutID,
			"orderRef": order.OrderRef,
			"error":    err,
		}).Error("Reward order issued but claim completion failed")
		observability.GetMetrics().RecordClaim(observability.ClaimOutcomeProviderFail, time.Since(start))
		return nil, err
	}

	observability.GetMetrics().RecordClaim(observability.ClaimOutcomeExecuted, time.Since(start))
	return &ClaimResult{Payout: executed, OrderRef: order.OrderRef}, nil
}

// beginClaim runs the precondition checks and the unclaimed -> processing
// swap in one committed transaction
func (p *claimProcessor) beginClaim(ctx context.Context, userID, payoutID int64) (*entities.PrizePayout, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payout, err := p.payoutService(uow).BeginClaim(ctx, userID, payoutID, time.Now())
	if err != nil {
		// A claim past the deadline lazily flags the payout expired inside
		// the service; that write must outlive the rejection.
		if errors.Is(err, services.ErrClaimExpired) {
			if commitErr := uow.Commit(); commitErr != nil {
				log.WithError(commitErr).WithField("payoutID", payoutID).Error("Failed to commit lazy expiry")
			}
		}
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return payout, nil
}

// completeClaim records the accepted order and debits the pool
func (p *claimProcessor) completeClaim(ctx context.Context, payoutID int64, order *interfaces.RewardOrderResult) (*entities.PrizePayout, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payout, err := p.payoutService(uow).CompleteClaim(ctx, payoutID, order.OrderRef, order.RewardRef)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return payout, nil
}

// failClaim rolls the payout back to unclaimed after a provider failure.
// Best effort: if the rollback itself fails the payout stays processing and
// the stuck-processing sweep picks it up.
func (p *claimProcessor) failClaim(ctx context.Context, payoutID int64, cause error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).WithField("payoutID", payoutID).Error("Failed to begin rollback transaction")
		return
	}
	defer uow.Rollback()

	if _, err := p.payoutService(uow).FailClaim(ctx, payoutID, cause.Error()); err != nil {
		log.WithError(err).WithField("payoutID", payoutID).Error("Failed to roll back claimed payout")
		return
	}

	if err := uow.Commit(); err != nil {
		log.WithError(err).WithField("payoutID", payoutID).Error("Failed to commit claim rollback")
	}
}

func (p *claimProcessor) payoutService(uow UnitOfWork) interfaces.PayoutService {
	return services.NewPayoutService(
		uow.PrizePayoutRepository(),
		uow.PrizePoolRepository(),
		uow.AuditLogRepository(),
		uow.EventBus(),
	)
}
