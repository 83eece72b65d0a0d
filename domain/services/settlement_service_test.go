package services

import (
	"testing"
	"time"

	"sweatstakes/domain/entities"
	"sweatstakes/domain/events"
	"sweatstakes/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettlementService_RegisterPendingPool(t *testing.T) {
	t.Parallel()
	structure := entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}}

	t.Run("creates a funding intent", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)

		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(nil, nil)
		f.Mocks.PendingPoolRepo.On("Create", f.Ctx, mock.MatchedBy(func(p *entities.PendingPool) bool {
			return p.CompetitionID == 55 && p.CreatorID == 100 && p.Amount == 10000 &&
				p.Status == entities.PendingPoolStatusPending
		})).Return(nil)

		pending, err := f.Service.RegisterPendingPool(f.Ctx, 55, 100, 10000, structure)

		require.NoError(t, err)
		require.NotNil(t, pending)
		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("rejects a second pool for the competition", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)

		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(activePoolFixture(), nil)

		_, err := f.Service.RegisterPendingPool(f.Ctx, 55, 100, 10000, structure)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "already has a pool")
		f.Mocks.PendingPoolRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid structures", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		bad := entities.PayoutStructure{{Placement: 1, Percent: 60}}

		_, err := f.Service.RegisterPendingPool(f.Ctx, 55, 100, 10000, bad)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid payout structure")
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)

		_, err := f.Service.RegisterPendingPool(f.Ctx, 55, 100, 0, structure)

		require.Error(t, err)
	})
}

func TestSettlementService_SettlePool(t *testing.T) {
	t.Parallel()

	rankings := []interfaces.PlacementResult{
		{Placement: 1, WinnerID: 200},
		{Placement: 2, WinnerID: 201},
	}

	t.Run("creates one unclaimed payout per paid placement", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		now := time.Now()
		pool := activePoolFixture()
		pool.PayoutStructure = entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}}

		f.Mocks.PoolRepo.On("GetByID", f.Ctx, int64(9)).Return(pool, nil)
		f.Mocks.PayoutRepo.On("Create", f.Ctx, mock.MatchedBy(func(p *entities.PrizePayout) bool {
			return p.Status == entities.PayoutStatusUnclaimed && p.ClaimExpiresAt.Equal(now.Add(90*24*time.Hour))
		})).Return(nil).Twice()
		f.Mocks.PoolRepo.On("UpdateStatus", f.Ctx, int64(9), entities.PoolStatusActive, entities.PoolStatusSettled).Return(true, nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			return e.Action == entities.AuditActionPoolSettled && e.Amount == 10000
		})).Return(nil)
		f.Mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)

		payouts, err := f.Service.SettlePool(f.Ctx, 9, rankings, now)

		require.NoError(t, err)
		require.Len(t, payouts, 2)
		assert.Equal(t, int64(200), payouts[0].WinnerID)
		assert.Equal(t, int64(7000), payouts[0].Amount)
		assert.Equal(t, int64(201), payouts[1].WinnerID)
		assert.Equal(t, int64(3000), payouts[1].Amount)

		require.Len(t, f.Mocks.EventPublisher.Published, 1)
		settled, ok := f.Mocks.EventPublisher.Published[0].(events.PoolSettledEvent)
		require.True(t, ok)
		assert.Equal(t, 2, settled.PayoutCount)
		assert.Equal(t, int64(10000), settled.TotalAwarded)

		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("remainder cents land on the lowest placement", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		now := time.Now()
		pool := activePoolFixture()
		pool.TotalAmount = 10001
		pool.RemainingBalance = 10001
		pool.PayoutStructure = entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}}

		f.Mocks.PoolRepo.On("GetByID", f.Ctx, int64(9)).Return(pool, nil)
		f.Mocks.PayoutRepo.On("Create", f.Ctx, mock.Anything).Return(nil).Twice()
		f.Mocks.PoolRepo.On("UpdateStatus", f.Ctx, int64(9), entities.PoolStatusActive, entities.PoolStatusSettled).Return(true, nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.Anything).Return(nil)
		f.Mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)

		payouts, err := f.Service.SettlePool(f.Ctx, 9, rankings, now)

		require.NoError(t, err)
		require.Len(t, payouts, 2)
		assert.Equal(t, int64(7001), payouts[0].Amount)
		assert.Equal(t, int64(3000), payouts[1].Amount)
		assert.Equal(t, pool.TotalAmount, payouts[0].Amount+payouts[1].Amount)
	})

	t.Run("already settled pool cannot settle again", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		pool := activePoolFixture()
		pool.Status = entities.PoolStatusSettled

		f.Mocks.PoolRepo.On("GetByID", f.Ctx, int64(9)).Return(pool, nil)

		_, err := f.Service.SettlePool(f.Ctx, 9, rankings, time.Now())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot settle")
		f.Mocks.PayoutRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("losing the settle swap aborts", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		pool := activePoolFixture()
		pool.PayoutStructure = entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}}

		f.Mocks.PoolRepo.On("GetByID", f.Ctx, int64(9)).Return(pool, nil)
		f.Mocks.PayoutRepo.On("Create", f.Ctx, mock.Anything).Return(nil).Twice()
		f.Mocks.PoolRepo.On("UpdateStatus", f.Ctx, int64(9), entities.PoolStatusActive, entities.PoolStatusSettled).Return(false, nil)

		_, err := f.Service.SettlePool(f.Ctx, 9, rankings, time.Now())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "left active concurrently")
	})

	t.Run("rankings missing a paid placement", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		pool := activePoolFixture()
		pool.PayoutStructure = entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}}

		f.Mocks.PoolRepo.On("GetByID", f.Ctx, int64(9)).Return(pool, nil)

		_, err := f.Service.SettlePool(f.Ctx, 9, []interfaces.PlacementResult{{Placement: 1, WinnerID: 200}}, time.Now())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing placement 2")
	})

	t.Run("one user cannot take two placements", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		pool := activePoolFixture()
		pool.PayoutStructure = entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}}

		f.Mocks.PoolRepo.On("GetByID", f.Ctx, int64(9)).Return(pool, nil)

		_, err := f.Service.SettlePool(f.Ctx, 9, []interfaces.PlacementResult{
			{Placement: 1, WinnerID: 200},
			{Placement: 2, WinnerID: 200},
		}, time.Now())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ranked at both")
	})

	t.Run("unknown pool", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)

		f.Mocks.PoolRepo.On("GetByID", f.Ctx, int64(9)).Return(nil, nil)

		_, err := f.Service.SettlePool(f.Ctx, 9, rankings, time.Now())

		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestSettlementService_SettleCompetition(t *testing.T) {
	t.Parallel()

	completion := interfaces.CompetitionEvent{
		EventRef:      "evt_comp_001",
		CompetitionID: 55,
		CompletedAt:   time.Now(),
		Rankings:      []interfaces.PlacementResult{{Placement: 1, WinnerID: 200}},
	}

	t.Run("settles the competition's pool", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		now := time.Now()

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderCompetition, "evt_comp_001", interfaces.CompetitionEventCompleted).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(activePoolFixture(), nil)
		f.Mocks.PayoutRepo.On("Create", f.Ctx, mock.MatchedBy(func(p *entities.PrizePayout) bool {
			return p.WinnerID == 200 && p.Amount == 10000 && p.Status == entities.PayoutStatusUnclaimed
		})).Return(nil)
		f.Mocks.PoolRepo.On("UpdateStatus", f.Ctx, int64(9), entities.PoolStatusActive, entities.PoolStatusSettled).Return(true, nil)
		f.Mocks.AuditRepo.On("Record", f.Ctx, mock.MatchedBy(func(e *entities.PoolAuditEntry) bool {
			return e.Action == entities.AuditActionPoolSettled
		})).Return(nil)
		f.Mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)

		payouts, err := f.Service.SettleCompetition(f.Ctx, completion, now)

		require.NoError(t, err)
		require.Len(t, payouts, 1)
		assert.Equal(t, int64(200), payouts[0].WinnerID)
		f.Mocks.AssertAllExpectations(t)
	})

	t.Run("redelivered completion is acknowledged without settling", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderCompetition, "evt_comp_001", interfaces.CompetitionEventCompleted).Return(false, nil)

		_, err := f.Service.SettleCompetition(f.Ctx, completion, time.Now())

		assert.ErrorIs(t, err, ErrDuplicateEvent)
		f.Mocks.PoolRepo.AssertNotCalled(t, "GetByCompetition", mock.Anything, mock.Anything)
	})

	t.Run("competition without a pool settles to nothing", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderCompetition, "evt_comp_001", interfaces.CompetitionEventCompleted).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(nil, nil)

		payouts, err := f.Service.SettleCompetition(f.Ctx, completion, time.Now())

		require.NoError(t, err)
		assert.Empty(t, payouts)
		f.Mocks.PayoutRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("replayed completion under a fresh ref is a duplicate", func(t *testing.T) {
		t.Parallel()

		f := newSettlementFixture(t, 90*24*time.Hour)
		pool := activePoolFixture()
		pool.Status = entities.PoolStatusSettled

		f.Mocks.ProcessedEventRepo.On("Record", f.Ctx, entities.WebhookProviderCompetition, "evt_comp_001", interfaces.CompetitionEventCompleted).Return(true, nil)
		f.Mocks.PoolRepo.On("GetByCompetition", f.Ctx, int64(55)).Return(pool, nil)

		_, err := f.Service.SettleCompetition(f.Ctx, completion, time.Now())

		assert.ErrorIs(t, err, ErrDuplicateEvent)
		f.Mocks.PayoutRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
