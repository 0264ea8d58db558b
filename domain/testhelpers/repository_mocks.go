package testhelpers

import (
	"context"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockPlayerRepository is a mock implementation of PlayerRepository
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) GetByID(ctx context.Context, id int64) (*entities.Player, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Player, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByUsername(ctx context.Context, username string) (*entities.Player, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) Create(ctx context.Context, username string, initialPoints int64) (*entities.Player, error) {
	args := m.Called(ctx, username, initialPoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Player), args.Error(1)
}

func (m *MockPlayerRepository) AddPoints(ctx context.Context, id int64, delta int64) (int64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayerRepository) GetTop(ctx context.Context, n int) ([]*entities.Player, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Player), args.Error(1)
}

// MockDrawRepository is a mock implementation of DrawRepository
type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) Create(ctx context.Context, numbers []int64) (*entities.Draw, error) {
	args := m.Called(ctx, numbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetLatest(ctx context.Context) (*entities.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetByID(ctx context.Context, id int64) (*entities.Draw, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetAll(ctx context.Context) ([]*entities.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Draw), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetActiveByPlayer(ctx context.Context, playerID int64) (*entities.Bet, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) DeleteActive(ctx context.Context, playerID int64) (*entities.Bet, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetActiveBefore(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) MarkSettled(ctx context.Context, betID, drawID int64) (*entities.Bet, error) {
	args := m.Called(ctx, betID, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) RecordOutcome(ctx context.Context, betID int64, correctCount int, payout int64) error {
	args := m.Called(ctx, betID, correctCount, payout)
	return args.Error(0)
}

func (m *MockBetRepository) GetByPlayerAndDraw(ctx context.Context, playerID, drawID int64) (*entities.Bet, error) {
	args := m.Called(ctx, playerID, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetAllByPlayer(ctx context.Context, playerID int64) ([]*entities.Bet, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever SetRepositories installed; only the transaction calls are
// recorded as expectations.
type MockUnitOfWork struct {
	mock.Mock

	PlayerRepo         *MockPlayerRepository
	DrawRepo           *MockDrawRepository
	BetRepo            *MockBetRepository
	BalanceHistoryRepo *MockBalanceHistoryRepository
	Events             *MockEventPublisher
}

// NewMockUnitOfWork creates a unit of work backed by fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	uow := &MockUnitOfWork{}
	uow.SetRepositories(
		new(MockPlayerRepository),
		new(MockDrawRepository),
		new(MockBetRepository),
		new(MockBalanceHistoryRepository),
		new(MockEventPublisher),
	)
	return uow
}

// SetRepositories installs the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(playerRepo *MockPlayerRepository, drawRepo *MockDrawRepository, betRepo *MockBetRepository, balanceHistoryRepo *MockBalanceHistoryRepository, eventPublisher *MockEventPublisher) {
	m.PlayerRepo = playerRepo
	m.DrawRepo = drawRepo
	m.BetRepo = betRepo
	m.BalanceHistoryRepo = balanceHistoryRepo
	m.Events = eventPublisher
}

// ExpectCommit sets up Begin/Commit/Rollback for a transaction that commits
func (m *MockUnitOfWork) ExpectCommit() {
	m.On("Begin", mock.Anything).Return(nil).Once()
	m.On("Commit").Return(nil).Once()
	m.On("Rollback").Return(nil).Maybe()
}

// ExpectRollback sets up Begin/Rollback for a transaction that is abandoned
func (m *MockUnitOfWork) ExpectRollback() {
	m.On("Begin", mock.Anything).Return(nil).Once()
	m.On("Rollback").Return(nil).Once()
}

// AssertAllExpectations verifies the unit of work and every repository mock
func (m *MockUnitOfWork) AssertAllExpectations(t mock.TestingT) {
	m.AssertExpectations(t)
	m.PlayerRepo.AssertExpectations(t)
	m.DrawRepo.AssertExpectations(t)
	m.BetRepo.AssertExpectations(t)
	m.BalanceHistoryRepo.AssertExpectations(t)
	m.Events.AssertExpectations(t)
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) PlayerRepository() interfaces.PlayerRepository {
	return m.PlayerRepo
}

func (m *MockUnitOfWork) DrawRepository() interfaces.DrawRepository {
	return m.DrawRepo
}

func (m *MockUnitOfWork) BetRepository() interfaces.BetRepository {
	return m.BetRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return m.BalanceHistoryRepo
}

func (m *MockUnitOfWork) EventBus() interfaces.EventPublisher {
	return m.Events
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() interfaces.UnitOfWork {
	args := m.Called()
	return args.Get(0).(interfaces.UnitOfWork)
}
