package services

import (
	"context"
	"testing"
	"time"

	"sweatstakes/domain/interfaces"
	"sweatstakes/domain/testhelpers"
)

// serviceMocks bundles every repository and publisher mock used by the
// settlement services
type serviceMocks struct {
	PendingPoolRepo    *testhelpers.MockPendingPoolRepository
	PoolRepo           *testhelpers.MockPrizePoolRepository
	BuyInRepo          *testhelpers.MockBuyInPaymentRepository
	ParticipantRepo    *testhelpers.MockParticipantRepository
	InvitationRepo     *testhelpers.MockInvitationRepository
	PayoutRepo         *testhelpers.MockPrizePayoutRepository
	ProcessedEventRepo *testhelpers.MockProcessedEventRepository
	AuditRepo          *testhelpers.MockAuditLogRepository
	EventPublisher     *testhelpers.MockEventPublisher
}

func newServiceMocks() *serviceMocks {
	return &serviceMocks{
		PendingPoolRepo:    new(testhelpers.MockPendingPoolRepository),
		PoolRepo:           new(testhelpers.MockPrizePoolRepository),
		BuyInRepo:          new(testhelpers.MockBuyInPaymentRepository),
		ParticipantRepo:    new(testhelpers.MockParticipantRepository),
		InvitationRepo:     new(testhelpers.MockInvitationRepository),
		PayoutRepo:         new(testhelpers.MockPrizePayoutRepository),
		ProcessedEventRepo: new(testhelpers.MockProcessedEventRepository),
		AuditRepo:          new(testhelpers.MockAuditLogRepository),
		EventPublisher:     new(testhelpers.MockEventPublisher),
	}
}

// AssertAllExpectations verifies every mock expectation was met
func (m *serviceMocks) AssertAllExpectations(t *testing.T) {
	m.PendingPoolRepo.AssertExpectations(t)
	m.PoolRepo.AssertExpectations(t)
	m.BuyInRepo.AssertExpectations(t)
	m.ParticipantRepo.AssertExpectations(t)
	m.InvitationRepo.AssertExpectations(t)
	m.PayoutRepo.AssertExpectations(t)
	m.ProcessedEventRepo.AssertExpectations(t)
	m.AuditRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
}

// fundingFixture provides a funding service wired to fresh mocks
type fundingFixture struct {
	Ctx     context.Context
	Service interfaces.FundingService
	Mocks   *serviceMocks
}

func newFundingFixture(t *testing.T) *fundingFixture {
	t.Helper()
	mocks := newServiceMocks()
	return &fundingFixture{
		Ctx: context.Background(),
		Service: NewFundingService(
			mocks.PendingPoolRepo,
			mocks.PoolRepo,
			mocks.BuyInRepo,
			mocks.ParticipantRepo,
			mocks.InvitationRepo,
			mocks.ProcessedEventRepo,
			mocks.AuditRepo,
			mocks.EventPublisher,
		),
		Mocks: mocks,
	}
}

// payoutFixture provides a payout service wired to fresh mocks
type payoutFixture struct {
	Ctx     context.Context
	Service interfaces.PayoutService
	Mocks   *serviceMocks
}

func newPayoutFixture(t *testing.T) *payoutFixture {
	t.Helper()
	mocks := newServiceMocks()
	return &payoutFixture{
		Ctx: context.Background(),
		Service: NewPayoutService(
			mocks.PayoutRepo,
			mocks.PoolRepo,
			mocks.AuditRepo,
			mocks.EventPublisher,
		),
		Mocks: mocks,
	}
}

// syncFixture provides a fulfillment sync service wired to fresh mocks
type syncFixture struct {
	Ctx     context.Context
	Service interfaces.FulfillmentSyncService
	Mocks   *serviceMocks
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	mocks := newServiceMocks()
	return &syncFixture{
		Ctx: context.Background(),
		Service: NewFulfillmentSyncService(
			mocks.PayoutRepo,
			mocks.PoolRepo,
			mocks.ProcessedEventRepo,
			mocks.AuditRepo,
			mocks.EventPublisher,
		),
		Mocks: mocks,
	}
}

// settlementFixture provides a settlement service wired to fresh mocks
type settlementFixture struct {
	Ctx     context.Context
	Service interfaces.SettlementService
	Mocks   *serviceMocks
}

func newSettlementFixture(t *testing.T, claimWindow time.Duration) *settlementFixture {
	t.Helper()
	mocks := newServiceMocks()
	return &settlementFixture{
		Ctx: context.Background(),
		Service: NewSettlementService(
			mocks.PendingPoolRepo,
			mocks.PoolRepo,
			mocks.PayoutRepo,
			mocks.ProcessedEventRepo,
			mocks.AuditRepo,
			mocks.EventPublisher,
			claimWindow,
		),
		Mocks: mocks,
	}
}
