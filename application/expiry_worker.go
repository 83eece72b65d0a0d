package application

import (
	"context"
	"fmt"
	"time"

	"sweatstakes/domain/services"
	"sweatstakes/infrastructure/observability"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

const expirySweepBatchSize = 100

// ExpiryWorker periodically flags unclaimed payouts whose claim window has
// closed. Claim-time checks never depend on the sweep; it exists so expired
// prizes show up in listings and reporting without waiting for a claim
// attempt.
type ExpiryWorker struct {
	uowFactory UnitOfWorkFactory
	interval   time.Duration
	stuckAfter time.Duration
	scheduler  gocron.Scheduler
}

// NewExpiryWorker creates a new expiry worker. interval is how often the
// sweep runs; stuckAfter is the age at which a processing claim is flagged
// for reconciliation.
func NewExpiryWorker(uowFactory UnitOfWorkFactory, interval, stuckAfter time.Duration) *ExpiryWorker {
	return &ExpiryWorker{
		uowFactory: uowFactory,
		interval:   interval,
		stuckAfter: stuckAfter,
	}
}

// Start schedules the sweep and returns once the scheduler is running
func (w *ExpiryWorker) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.runSweep),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	scheduler.Start()
	w.scheduler = scheduler

	log.WithField("interval", w.interval).Info("Expiry worker started")
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish
func (w *ExpiryWorker) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Shutdown()
}

func (w *ExpiryWorker) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	expired, err := w.SweepOnce(ctx, time.Now())
	if err != nil {
		log.WithError(err).Error("Expiry sweep failed")
		return
	}
	if expired > 0 {
		log.WithField("expired", expired).Info("Expiry sweep flagged overdue payouts")
	}

	w.reportStuckClaims(ctx, time.Now())
}

// SweepOnce expires overdue payouts in one transaction and returns how many
// were flagged
func (w *ExpiryWorker) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewPayoutService(
		uow.PrizePayoutRepository(),
		uow.PrizePoolRepository(),
		uow.AuditLogRepository(),
		uow.EventBus(),
	)

	expired, err := svc.ExpireOverdue(ctx, now, expirySweepBatchSize)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	observability.GetMetrics().RecordPayoutsExpired(int64(expired))
	return expired, nil
}

// reportStuckClaims logs payouts sitting in processing longer than the
// configured threshold. These need manual reconciliation against the
// provider: the reward order may or may not have been issued.
func (w *ExpiryWorker) reportStuckClaims(ctx context.Context, now time.Time) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to begin stuck-claim report transaction")
		return
	}
	defer uow.Rollback()

	stuck, err := uow.PrizePayoutRepository().ListStuckProcessing(ctx, now.Add(-w.stuckAfter), expirySweepBatchSize)
	if err != nil {
		log.WithError(err).Error("Failed to list stuck processing payouts")
		return
	}

	for _, payout := range stuck {
		log.WithFields(log.Fields{
			"payoutID":  payout.ID,
			"poolID":    payout.PoolID,
			"winnerID":  payout.WinnerID,
			"claimedAt": payout.ClaimedAt,
		}).Warn("Payout stuck in processing; reconcile against the fulfillment provider")
	}
}
