package services

import (
	"errors"
	"testing"
	"time"

	"sweatstakes/domain/entities"
	"sweatstakes/domain/events"
	"sweatstakes/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func poolFundingEvent() interfaces.PaymentEvent {
	return interfaces.PaymentEvent{
		TransactionRef: "pi_creator_001",
		EventType:      "payment_succeeded",
		Amount:         10000,
		Kind:           interfaces.PaymentKindPoolFunding,
		PendingPoolID:  1,
		CompetitionID:  55,
		UserID:         100,
	}
}

func buyInEvent() interfaces.PaymentEvent {
	return interfaces.PaymentEvent{
		TransactionRef: "pi_buyin_001",
		EventType:      "payment_succeeded",
		Amount:         2000,
		Kind:           interfaces.PaymentKindBuyIn,
		CompetitionID:  55,
		UserID:         200,
	}
}

func pendingPoolFixture() *entities.PendingPool {
	return &entities.PendingPool{
		ID:              1,
		CompetitionID:   55,
		CreatorID:       100,
		Amount:          10000,
		PayoutStructure: entities.PayoutStructure{{Placement: 1, Percent: 100}},
		Status:          entities.PendingPoolStatusPending,
		CreatedAt:       time.Now().Add(-time.Minute),
	}
}

func activePoolFixture() *entities.PrizePool {
	return &entities.PrizePool{
		ID:               9,
		CompetitionID:    55,
		CreatorID:        100,
		TotalAmount:      10000,
		RemainingBalance: 10000,
		PayoutStructure:  entities.PayoutStructure{{Placement: 1, Percent: 100}},
		Status:           entities.PoolStatusActive,
	}
}

func TestFundingService_ConfirmPoolFunding(t *testing.T) {
	t.Parallel()

	t.Run("creates active pool from pending intent", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := poolFundingEvent()
		pending := pendingPoolFixture()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PendingPoolRepo.On("GetByID", f.Ctx, int64(1)).Return(pending, nil)
		f.Mocks.PoolRepo.On("Create", f.Ctx, mock.MatchedBy(func(p *entities.PrizePool) bool {
			return p.CompetitionID == 55 &&
				p.TotalAmount == 10000 &&
				p.RemainingBalance == 10000 &&
				p.Status == entities.PoolStatusActive
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*entities.PrizePool).ID = 9
		}).Return(nil)
		f.Mocks.PendingPoolRepo.On("Update", f.Ctx, mock.MatchedBy(func(p *entities.PendingPool) bool {
			return p.Status == entities.PendingPoolStatusConfirmed && p.ConfirmedAt != nil
		})).Return(nil)
		f.Mocks.ParticipantRepo.On("Upsert", f.Ctx, mock.MatchedBy(func(p *entities.CompetitionParticipant) bool {
			return p.CompetitionID == 55 && p.UserID == 100 && p.PrizeEligible
		})).Return(nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			return e.Action == entities.AuditActionPoolFunded && e.Amount == 10000 && e.ActorID == 100
		})).Return(nil)
		f.Mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)

		pool, err := f.Service.ConfirmPoolFunding(f.Ctx, event)

		require.NoError(t, err)
		require.NotNil(t, pool)
		assert.Equal(t, int64(9), pool.ID)
		assert.Equal(t, int64(10000), pool.TotalAmount)

		require.Len(t, f.Mocks.EventPublisher.Published, 1)
		activated, ok := f.Mocks.EventPublisher.Published[0].(events.PoolActivatedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(9), activated.PoolID)

		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("duplicate transaction ref acknowledges without touching state", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := poolFundingEvent()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(false, nil)

		pool, err := f.Service.ConfirmPoolFunding(f.Ctx, event)

		assert.Nil(t, pool)
		assert.ErrorIs(t, err, ErrDuplicateEvent)
		f.Mocks.PoolRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("unknown pending pool", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := poolFundingEvent()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PendingPoolRepo.On("GetByID", f.Ctx, int64(1)).Return(nil, nil)

		pool, err := f.Service.ConfirmPoolFunding(f.Ctx, event)

		assert.Nil(t, pool)
		assert.ErrorIs(t, err, ErrPendingPoolNotFound)
		f.Mocks.PoolRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("pending pool already confirmed counts as duplicate", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := poolFundingEvent()
		event.TransactionRef = "pi_creator_002"
		pending := pendingPoolFixture()
		pending.Status = entities.PendingPoolStatusConfirmed

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PendingPoolRepo.On("GetByID", f.Ctx, int64(1)).Return(pending, nil)

		pool, err := f.Service.ConfirmPoolFunding(f.Ctx, event)

		assert.Nil(t, pool)
		assert.ErrorIs(t, err, ErrDuplicateEvent)
	})

	t.Run("webhook amount wins over pending amount", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := poolFundingEvent()
		event.Amount = 9500
		pending := pendingPoolFixture()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PendingPoolRepo.On("GetByID", f.Ctx, int64(1)).Return(pending, nil)
		f.Mocks.PoolRepo.On("Create", f.Ctx, mock.MatchedBy(func(p *entities.PrizePool) bool {
			return p.TotalAmount == 9500 && p.RemainingBalance == 9500
		})).Return(nil)
		f.Mocks.PendingPoolRepo.On("Update", f.Ctx, mock.Anything).Return(nil)
		f.Mocks.ParticipantRepo.On("Upsert", f.Ctx, mock.Anything).Return(nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			expected, ok := e.Metadata["expected_amount"].(int64)
			return ok && expected == 10000 && e.Amount == 9500
		})).Return(nil)
		f.Mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)

		pool, err := f.Service.ConfirmPoolFunding(f.Ctx, event)

		require.NoError(t, err)
		assert.Equal(t, int64(9500), pool.TotalAmount)
		f.Mocks.AssertAllExpectations(t)
	})
}

func TestFundingService_RecordBuyIn(t *testing.T) {
	t.Parallel()

	t.Run("applies buy-in and flips eligibility", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()
		pool := activePoolFixture()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(pool, nil)
		f.Mocks.BuyInRepo.On("GetCompletedByPoolAndUser", f.Ctx, int64(9), int64(200)).Return(nil, nil)
		f.Mocks.PoolRepo.On("AddBuyIn", f.Ctx, int64(9), int64(2000)).Return(true, nil)
		f.Mocks.BuyInRepo.On("Create", f.Ctx, mock.MatchedBy(func(b *entities.BuyInPayment) bool {
			return b.PoolID == 9 && b.UserID == 200 && b.Amount == 2000 &&
				b.TransactionRef == "pi_buyin_001" && b.Status == entities.BuyInStatusCompleted
		})).Return(nil)
		f.Mocks.ParticipantRepo.On("Upsert", f.Ctx, mock.MatchedBy(func(p *entities.CompetitionParticipant) bool {
			return p.UserID == 200 && p.PrizeEligible
		})).Return(nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			return e.Action == entities.AuditActionBuyIn && e.Amount == 2000
		})).Return(nil)
		f.Mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)

		buyIn, err := f.Service.RecordBuyIn(f.Ctx, event)

		require.NoError(t, err)
		require.NotNil(t, buyIn)
		assert.True(t, buyIn.IsCompleted())

		require.Len(t, f.Mocks.EventPublisher.Published, 1)
		recorded, ok := f.Mocks.EventPublisher.Published[0].(events.BuyInRecordedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(12000), recorded.PoolTotal)

		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("redelivered buy-in never reaches the pool", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(false, nil)

		buyIn, err := f.Service.RecordBuyIn(f.Ctx, event)

		assert.Nil(t, buyIn)
		assert.ErrorIs(t, err, ErrDuplicateEvent)
		f.Mocks.PoolRepo.AssertNotCalled(t, "AddBuyIn", mock.Anything, mock.Anything, mock.Anything)
		f.Mocks.BuyInRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("buy-in accepts a pending invitation", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()
		event.TransactionRef = "pi_buyin_002"
		event.InvitationID = 77
		pool := activePoolFixture()
		invitation := &entities.Invitation{
			ID:            77,
			CompetitionID: 55,
			InviterID:     100,
			InviteeID:     200,
			Status:        entities.InvitationStatusPending,
		}

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(pool, nil)
		f.Mocks.BuyInRepo.On("GetCompletedByPoolAndUser", f.Ctx, int64(9), int64(200)).Return(nil, nil)
		f.Mocks.PoolRepo.On("AddBuyIn", f.Ctx, int64(9), int64(2000)).Return(true, nil)
		f.Mocks.BuyInRepo.On("Create", f.Ctx, mock.Anything).Return(nil)
		f.Mocks.ParticipantRepo.On("Upsert", f.Ctx, mock.Anything).Return(nil)
		f.Mocks.InvitationRepo.On("GetByID", f.Ctx, int64(77)).Return(invitation, nil)
		f.Mocks.InvitationRepo.On("MarkAccepted", f.Ctx, int64(77), mock.AnythingOfType("time.Time")).Return(true, nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			id, ok := e.Metadata["invitation_id"].(int64)
			return ok && id == 77
		})).Return(nil)
		f.Mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)

		_, err := f.Service.RecordBuyIn(f.Ctx, event)

		require.NoError(t, err)
		require.Len(t, f.Mocks.EventPublisher.Published, 2)
		accepted, ok := f.Mocks.EventPublisher.Published[0].(events.InvitationAcceptedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(77), accepted.InvitationID)
		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("already answered invitation does not block the buy-in", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()
		event.TransactionRef = "pi_buyin_003"
		event.InvitationID = 78
		pool := activePoolFixture()
		invitation := &entities.Invitation{ID: 78, Status: entities.InvitationStatusDeclined}

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(pool, nil)
		f.Mocks.BuyInRepo.On("GetCompletedByPoolAndUser", f.Ctx, int64(9), int64(200)).Return(nil, nil)
		f.Mocks.PoolRepo.On("AddBuyIn", f.Ctx, int64(9), int64(2000)).Return(true, nil)
		f.Mocks.BuyInRepo.On("Create", f.Ctx, mock.Anything).Return(nil)
		f.Mocks.ParticipantRepo.On("Upsert", f.Ctx, mock.Anything).Return(nil)
		f.Mocks.InvitationRepo.On("GetByID", f.Ctx, int64(78)).Return(invitation, nil)
		f.Mocks.InvitationRepo.On("MarkAccepted", f.Ctx, int64(78), mock.AnythingOfType("time.Time")).Return(false, nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.Anything).Return(nil)
		f.Mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)

		buyIn, err := f.Service.RecordBuyIn(f.Ctx, event)

		require.NoError(t, err)
		assert.NotNil(t, buyIn)
		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("unknown competition", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(nil, nil)

		buyIn, err := f.Service.RecordBuyIn(f.Ctx, event)

		assert.Nil(t, buyIn)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("settled pool rejects buy-ins", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()
		pool := activePoolFixture()
		pool.Status = entities.PoolStatusSettled

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(pool, nil)
		f.Mocks.BuyInRepo.On("GetCompletedByPoolAndUser", f.Ctx, int64(9), int64(200)).Return(nil, nil)
		f.Mocks.PoolRepo.On("AddBuyIn", f.Ctx, int64(9), int64(2000)).Return(false, nil)

		buyIn, err := f.Service.RecordBuyIn(f.Ctx, event)

		assert.Nil(t, buyIn)
		assert.ErrorIs(t, err, ErrPoolNotAccepting)
		f.Mocks.BuyInRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("second charge for a paid-up user never reaches the pool", func(t *testing.T) {
		t.Parallel()

		// A fresh transaction ref passes the event ledger, so the (pool,
		// user) check is what keeps the pool from being credited twice.
		f := newFundingFixture(t)
		event := buyInEvent()
		event.TransactionRef = "pi_buyin_again"
		pool := activePoolFixture()
		paid := &entities.BuyInPayment{
			ID:             41,
			PoolID:         9,
			CompetitionID:  55,
			UserID:         200,
			Amount:         2000,
			TransactionRef: "pi_buyin_001",
			Status:         entities.BuyInStatusCompleted,
		}

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(pool, nil)
		f.Mocks.BuyInRepo.On("GetCompletedByPoolAndUser", f.Ctx, int64(9), int64(200)).Return(paid, nil)

		buyIn, err := f.Service.RecordBuyIn(f.Ctx, event)

		assert.Nil(t, buyIn)
		assert.ErrorIs(t, err, ErrDuplicateEvent)
		f.Mocks.PoolRepo.AssertNotCalled(t, "AddBuyIn", mock.Anything, mock.Anything, mock.Anything)
		f.Mocks.BuyInRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.Mocks.ParticipantRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		assert.Empty(t, f.Mocks.EventPublisher.Published)
	})
}

func TestFundingService_FailureEvents(t *testing.T) {
	t.Parallel()

	t.Run("pool funding failure marks the pending pool", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := poolFundingEvent()
		event.EventType = "payment_failed"
		event.FailureReason = "card_declined"
		pending := pendingPoolFixture()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PendingPoolRepo.On("GetByID", f.Ctx, int64(1)).Return(pending, nil)
		f.Mocks.PendingPoolRepo.On("Update", f.Ctx, mock.MatchedBy(func(p *entities.PendingPool) bool {
			return p.Status == entities.PendingPoolStatusFailed && p.FailureReason != nil && *p.FailureReason == "card_declined"
		})).Return(nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			return e.Action == entities.AuditActionPoolFundingFailed && e.PoolID == nil
		})).Return(nil)

		err := f.Service.RecordPoolFundingFailure(f.Ctx, event)

		require.NoError(t, err)
		assert.Empty(t, f.Mocks.EventPublisher.Published)
		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("buy-in failure records a failed payment row", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()
		event.EventType = "payment_failed"
		event.FailureReason = "insufficient_funds"
		pool := activePoolFixture()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(pool, nil)
		f.Mocks.BuyInRepo.On("Create", f.Ctx, mock.MatchedBy(func(b *entities.BuyInPayment) bool {
			return b.Status == entities.BuyInStatusFailed
		})).Return(nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			return e.Action == entities.AuditActionBuyInFailed
		})).Return(nil)

		err := f.Service.RecordBuyInFailure(f.Ctx, event)

		require.NoError(t, err)
		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("buy-in failure without a pool is audit-only", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()
		event.EventType = "payment_failed"

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(nil, nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			return e.Action == entities.AuditActionBuyInFailed && e.PoolID == nil
		})).Return(nil)

		err := f.Service.RecordBuyInFailure(f.Ctx, event)

		require.NoError(t, err)
		f.Mocks.BuyInRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("repository failure surfaces wrapped", func(t *testing.T) {
		t.Parallel()

		f := newFundingFixture(t)
		event := buyInEvent()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderPayment, event.TransactionRef, event.EventType).Return(false, errors.New("connection reset"))

		_, err := f.Service.RecordBuyIn(f.Ctx, event)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record event")
	})
}
