package testhelpers

import (
	"context"
	"time"

	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockDrawGenerator is a mock implementation of DrawGenerator
type MockDrawGenerator struct {
	mock.Mock
}

func (m *MockDrawGenerator) Generate() ([]int64, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockBetLedger is a mock implementation of BetLedger
type MockBetLedger struct {
	mock.Mock
}

func (m *MockBetLedger) PlaceBet(ctx context.Context, playerID int64, numbers []int64) (*interfaces.PlaceBetResult, error) {
	args := m.Called(ctx, playerID, numbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.PlaceBetResult), args.Error(1)
}

func (m *MockBetLedger) CancelActiveBet(ctx context.Context, playerID int64) (*interfaces.CancelResult, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.CancelResult), args.Error(1)
}

func (m *MockBetLedger) GetActiveBet(ctx context.Context, playerID int64) (*entities.Bet, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetLedger) GetLastSettledNumbers(ctx context.Context, playerID int64) ([]int64, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockBetLedger) ActiveBetsForSettlement(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetLedger) MarkSettled(ctx context.Context, betID, drawID int64) error {
	args := m.Called(ctx, betID, drawID)
	return args.Error(0)
}

// MockSettlementEngine is a mock implementation of SettlementEngine
type MockSettlementEngine struct {
	mock.Mock
}

func (m *MockSettlementEngine) SettleBet(ctx context.Context, draw *entities.Draw, bet *entities.Bet) (*entities.SettlementResult, error) {
	args := m.Called(ctx, draw, bet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettlementResult), args.Error(1)
}

func (m *MockSettlementEngine) SettleDraw(ctx context.Context, draw *entities.Draw, snapshot []*entities.Bet) (*interfaces.SettlementReport, error) {
	args := m.Called(ctx, draw, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SettlementReport), args.Error(1)
}
