package application

import (
	"context"
	"testing"

	"sweatstakes/domain/interfaces"
	"sweatstakes/domain/testhelpers"
)

// RepoMocks bundles the repository and publisher mocks backing a test unit
// of work
type RepoMocks struct {
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

func NewRepoMocks() *RepoMocks {
	return &RepoMocks{
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
func (m *RepoMocks) AssertAllExpectations(t *testing.T) {
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

// TestUnitOfWork implements UnitOfWork over shared mocks, tracking the
// commit/rollback outcome for assertions
type TestUnitOfWork struct {
	Mocks      *RepoMocks
	BeginErr   error
	CommitErr  error
	Begun      bool
	Committed  bool
	RolledBack bool
}

func (u *TestUnitOfWork) Begin(ctx context.Context) error {
	if u.BeginErr != nil {
		return u.BeginErr
	}
	u.Begun = true
	return nil
}

func (u *TestUnitOfWork) Commit() error {
	if u.CommitErr != nil {
		return u.CommitErr
	}
	u.Committed = true
	return nil
}

func (u *TestUnitOfWork) Rollback() error {
	if !u.Committed {
		u.RolledBack = true
	}
	return nil
}

func (u *TestUnitOfWork) PendingPoolRepository() interfaces.PendingPoolRepository {
	return u.Mocks.PendingPoolRepo
}

func (u *TestUnitOfWork) PrizePoolRepository() interfaces.PrizePoolRepository {
	return u.Mocks.PoolRepo
}

func (u *TestUnitOfWork) BuyInPaymentRepository() interfaces.BuyInPaymentRepository {
	return u.Mocks.BuyInRepo
}

func (u *TestUnitOfWork) ParticipantRepository() interfaces.ParticipantRepository {
	return u.Mocks.ParticipantRepo
}

func (u *TestUnitOfWork) InvitationRepository() interfaces.InvitationRepository {
	return u.Mocks.InvitationRepo
}

func (u *TestUnitOfWork) PrizePayoutRepository() interfaces.PrizePayoutRepository {
	return u.Mocks.PayoutRepo
}

func (u *TestUnitOfWork) ProcessedEventRepository() interfaces.ProcessedEventRepository {
	return u.Mocks.ProcessedEventRepo
}

func (u *TestUnitOfWork) AuditLogRepository() interfaces.AuditLogRepository {
	return u.Mocks.AuditRepo
}

func (u *TestUnitOfWork) EventBus() interfaces.EventPublisher {
	return u.Mocks.EventPublisher
}

// TestUnitOfWorkFactory hands out test units of work backed by one shared
// mock bundle. Multi-phase operations get one unit per phase, all visible
// for commit/rollback assertions afterwards.
type TestUnitOfWorkFactory struct {
	Mocks   *RepoMocks
	Created []*TestUnitOfWork
}

func NewTestUnitOfWorkFactory() *TestUnitOfWorkFactory {
	return &TestUnitOfWorkFactory{Mocks: NewRepoMocks()}
}

func (f *TestUnitOfWorkFactory) Create() UnitOfWork {
	uow := &TestUnitOfWork{Mocks: f.Mocks}
	f.Created = append(f.Created, uow)
	return uow
}
