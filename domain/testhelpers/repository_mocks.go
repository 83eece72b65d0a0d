package testhelpers

import (
	"context"
	"time"

	"sweatstakes/domain/entities"
	"sweatstakes/domain/events"
	"sweatstakes/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockPendingPoolRepository is a mock implementation of PendingPoolRepository
type MockPendingPoolRepository struct {
	mock.Mock
}

func (m *MockPendingPoolRepository) Create(ctx context.Context, pool *entities.PendingPool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *MockPendingPoolRepository) GetByID(ctx context.Context, id int64) (*entities.PendingPool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingPool), args.Error(1)
}

func (m *MockPendingPoolRepository) Update(ctx context.Context, pool *entities.PendingPool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

// MockPrizePoolRepository is a mock implementation of PrizePoolRepository
type MockPrizePoolRepository struct {
	mock.Mock
}

func (m *MockPrizePoolRepository) Create(ctx context.Context, pool *entities.PrizePool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *MockPrizePoolRepository) GetByID(ctx context.Context, id int64) (*entities.PrizePool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PrizePool), args.Error(1)
}

func (m *MockPrizePoolRepository) GetByCompetition(ctx context.Context, competitionID int64) (*entities.PrizePool, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PrizePool), args.Error(1)
}

func (m *MockPrizePoolRepository) AddBuyIn(ctx context.Context, poolID int64, amount int64) (bool, error) {
	args := m.Called(ctx, poolID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrizePoolRepository) DebitRemaining(ctx context.Context, poolID int64, amount int64) (bool, error) {
	args := m.Called(ctx, poolID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrizePoolRepository) CreditRemaining(ctx context.Context, poolID int64, amount int64) (bool, error) {
	args := m.Called(ctx, poolID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrizePoolRepository) UpdateStatus(ctx context.Context, poolID int64, from, to entities.PoolStatus) (bool, error) {
	args := m.Called(ctx, poolID, from, to)
	return args.Bool(0), args.Error(1)
}

// MockBuyInPaymentRepository is a mock implementation of BuyInPaymentRepository
type MockBuyInPaymentRepository struct {
	mock.Mock
}

func (m *MockBuyInPaymentRepository) Create(ctx context.Context, payment *entities.BuyInPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockBuyInPaymentRepository) GetByTransactionRef(ctx context.Context, transactionRef string) (*entities.BuyInPayment, error) {
	args := m.Called(ctx, transactionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BuyInPayment), args.Error(1)
}

func (m *MockBuyInPaymentRepository) GetCompletedByPoolAndUser(ctx context.Context, poolID, userID int64) (*entities.BuyInPayment, error) {
	args := m.Called(ctx, poolID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BuyInPayment), args.Error(1)
}

func (m *MockBuyInPaymentRepository) ListByPool(ctx context.Context, poolID int64) ([]*entities.BuyInPayment, error) {
	args := m.Called(ctx, poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BuyInPayment), args.Error(1)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Upsert(ctx context.Context, participant *entities.CompetitionParticipant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) CountByCompetition(ctx context.Context, competitionID int64) (int, error) {
	args := m.Called(ctx, competitionID)
	return args.Int(0), args.Error(1)
}

func (m *MockParticipantRepository) ListByCompetition(ctx context.Context, competitionID int64) ([]*entities.CompetitionParticipant, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CompetitionParticipant), args.Error(1)
}

// MockInvitationRepository is a mock implementation of InvitationRepository
type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, invitation *entities.Invitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}

func (m *MockInvitationRepository) GetByID(ctx context.Context, id int64) (*entities.Invitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Invitation), args.Error(1)
}

func (m *MockInvitationRepository) MarkAccepted(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// MockPrizePayoutRepository is a mock implementation of PrizePayoutRepository
type MockPrizePayoutRepository struct {
	mock.Mock
}

func (m *MockPrizePayoutRepository) Create(ctx context.Context, payout *entities.PrizePayout) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}

func (m *MockPrizePayoutRepository) GetByID(ctx context.Context, id int64) (*entities.PrizePayout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PrizePayout), args.Error(1)
}

func (m *MockPrizePayoutRepository) GetByOrderRef(ctx context.Context, orderRef string) (*entities.PrizePayout, error) {
	args := m.Called(ctx, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PrizePayout), args.Error(1)
}

func (m *MockPrizePayoutRepository) ListByWinner(ctx context.Context, winnerID int64) ([]*entities.PrizePayout, error) {
	args := m.Called(ctx, winnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PrizePayout), args.Error(1)
}

func (m *MockPrizePayoutRepository) ListExpiredUnclaimed(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PrizePayout, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PrizePayout), args.Error(1)
}

func (m *MockPrizePayoutRepository) ListStuckProcessing(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PrizePayout, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PrizePayout), args.Error(1)
}

func (m *MockPrizePayoutRepository) TransitionStatus(ctx context.Context, payout *entities.PrizePayout, from entities.PayoutStatus) (bool, error) {
	args := m.Called(ctx, payout, from)
	return args.Bool(0), args.Error(1)
}

// MockProcessedEventRepository is a mock implementation of ProcessedEventRepository
type MockProcessedEventRepository struct {
	mock.Mock
}

func (m *MockProcessedEventRepository) Record(ctx context.Context, provider entities.WebhookProvider, eventRef, eventType string) (bool, error) {
	args := m.Called(ctx, provider, eventRef, eventType)
	return args.Bool(0), args.Error(1)
}

func (m *MockProcessedEventRepository) GetByRef(ctx context.Context, provider entities.WebhookProvider, eventRef string) (*entities.ProcessedEvent, error) {
	args := m.Called(ctx, provider, eventRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ProcessedEvent), args.Error(1)
}

// MockAuditLogRepository is a mock implementation of AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Record(ctx context.Context, entry *entities.PoolAuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) ListByPool(ctx context.Context, poolID int64, limit int) ([]*entities.PoolAuditEntry, error) {
	args := m.Called(ctx, poolID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PoolAuditEntry), args.Error(1)
}

func (m *MockAuditLogRepository) ListByCompetition(ctx context.Context, competitionID int64, limit int) ([]*entities.PoolAuditEntry, error) {
	args := m.Called(ctx, competitionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PoolAuditEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher that also
// keeps the published events for assertions
type MockEventPublisher struct {
	mock.Mock
	Published []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	m.Published = append(m.Published, event)
	args := m.Called(event)
	return args.Error(0)
}

// MockFulfillmentClient is a mock implementation of FulfillmentClient
type MockFulfillmentClient struct {
	mock.Mock
}

func (m *MockFulfillmentClient) CreateRewardOrder(ctx context.Context, req interfaces.RewardOrderRequest) (*interfaces.RewardOrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.RewardOrderResult), args.Error(1)
}
