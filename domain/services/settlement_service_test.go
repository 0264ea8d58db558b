package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettlementService_SettleBet(t *testing.T) {
	t.Parallel()

	draw := createTestDraw(testDrawID, 1, 2, 3, 40, 50)

	tests := []struct {
		name        string
		numbers     []int64
		points      int64
		wantCorrect int
		wantPayout  int64
	}{
		{name: "full match pays double", numbers: []int64{1, 2, 3}, points: 85, wantCorrect: 3, wantPayout: 30},
		{name: "partial match pays proportionally", numbers: []int64{1, 60}, points: 90, wantCorrect: 1, wantPayout: 10},
		{name: "no match pays nothing", numbers: []int64{4}, points: 95, wantCorrect: 0, wantPayout: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			uow := testhelpers.NewMockUnitOfWork()
			uow.ExpectCommit()
			engine := NewSettlementService(newTestFactory(uow))

			bet := createTestBet(500, testPlayerID, tt.numbers...)
			wantBalance := tt.points + tt.wantPayout

			uow.PlayerRepo.On("GetByIDForUpdate", ctx, testPlayerID).Return(createTestPlayer(testPlayerID, tt.points), nil)
			uow.BetRepo.On("MarkSettled", ctx, int64(500), testDrawID).Return(settledCopy(bet, testDrawID), nil)
			uow.BetRepo.On("RecordOutcome", ctx, int64(500), tt.wantCorrect, tt.wantPayout).Return(nil)
			if tt.wantPayout > 0 {
				uow.PlayerRepo.On("AddPoints", ctx, testPlayerID, tt.wantPayout).Return(wantBalance, nil)
				uow.BalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
					return h.TransactionType == entities.TransactionTypeBetPayout &&
						h.BalanceBefore == tt.points && h.BalanceAfter == wantBalance
				})).Return(nil)
				uow.Events.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
			}
			uow.Events.On("Publish", events.SettlementResultEvent{
				PlayerID:     testPlayerID,
				DrawID:       testDrawID,
				BetID:        500,
				Balance:      wantBalance,
				CorrectCount: tt.wantCorrect,
				Numbers:      tt.numbers,
				Payout:       tt.wantPayout,
			}).Return(nil)

			result, err := engine.SettleBet(ctx, draw, bet)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCorrect, result.CorrectCount)
			assert.Equal(t, tt.wantPayout, result.Payout)
			assert.Equal(t, wantBalance, result.Balance)
			if tt.wantPayout == 0 {
				uow.PlayerRepo.AssertNotCalled(t, "AddPoints", mock.Anything, mock.Anything, mock.Anything)
			}
			uow.AssertAllExpectations(t)
		})
	}
}

func TestSettlementService_SettleBet_AlreadySettled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uow := testhelpers.NewMockUnitOfWork()
	uow.ExpectRollback()
	engine := NewSettlementService(newTestFactory(uow))

	bet := createTestBet(500, testPlayerID, 1, 2, 3)
	uow.PlayerRepo.On("GetByIDForUpdate", ctx, testPlayerID).Return(createTestPlayer(testPlayerID, 115), nil)
	uow.BetRepo.On("MarkSettled", ctx, int64(500), testDrawID).
		Return(nil, fmt.Errorf("%w: bet 500", entities.ErrSettlementAnomaly))

	result, err := engine.SettleBet(ctx, createTestDraw(testDrawID, 1, 2, 3, 4, 5), bet)

	require.ErrorIs(t, err, entities.ErrSettlementAnomaly)
	assert.Nil(t, result)
	uow.PlayerRepo.AssertNotCalled(t, "AddPoints", mock.Anything, mock.Anything, mock.Anything)
	uow.Events.AssertNotCalled(t, "Publish", mock.Anything)
	uow.AssertAllExpectations(t)
}

func TestSettlementService_SettleDraw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uow := testhelpers.NewMockUnitOfWork()
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)
	engine := NewSettlementService(newTestFactory(uow))

	draw := createTestDraw(testDrawID, 1, 2, 3, 40, 50)
	winner := createTestBet(1, 10, 1, 2, 3)
	loser := createTestBet(2, 11, 4)
	stale := createTestBet(3, 12, 1)
	broken := createTestBet(4, 13, 2)

	uow.PlayerRepo.On("GetByIDForUpdate", ctx, int64(10)).Return(createTestPlayer(10, 85), nil)
	uow.PlayerRepo.On("GetByIDForUpdate", ctx, int64(11)).Return(createTestPlayer(11, 95), nil)
	uow.PlayerRepo.On("GetByIDForUpdate", ctx, int64(12)).Return(createTestPlayer(12, 95), nil)
	uow.PlayerRepo.On("GetByIDForUpdate", ctx, int64(13)).Return(nil, errors.New("connection reset"))

	uow.BetRepo.On("MarkSettled", ctx, int64(1), testDrawID).Return(settledCopy(winner, testDrawID), nil)
	uow.BetRepo.On("MarkSettled", ctx, int64(2), testDrawID).Return(settledCopy(loser, testDrawID), nil)
	uow.BetRepo.On("MarkSettled", ctx, int64(3), testDrawID).Return(nil, entities.ErrSettlementAnomaly)
	uow.BetRepo.On("RecordOutcome", ctx, int64(1), 3, int64(30)).Return(nil)
	uow.BetRepo.On("RecordOutcome", ctx, int64(2), 0, int64(0)).Return(nil)

	uow.PlayerRepo.On("AddPoints", ctx, int64(10), int64(30)).Return(int64(115), nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.AnythingOfType("*entities.BalanceHistory")).Return(nil)
	uow.Events.On("Publish", mock.Anything).Return(nil)

	report, err := engine.SettleDraw(ctx, draw, []*entities.Bet{winner, loser, stale, broken})

	require.NoError(t, err)
	assert.Equal(t, testDrawID, report.DrawID)
	assert.Equal(t, 2, report.Settled)
	assert.Equal(t, 1, report.Anomalies)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, int64(30), report.TotalPayout)
	require.Len(t, report.Results, 2)
	assert.Equal(t, int64(115), report.Results[0].Balance)
	assert.Equal(t, int64(95), report.Results[1].Balance)
}

func TestSettlementService_SettleDraw_EmptySnapshot(t *testing.T) {
	t.Parallel()

	factory := new(testhelpers.MockUnitOfWorkFactory)
	engine := NewSettlementService(factory)

	report, err := engine.SettleDraw(context.Background(), createTestDraw(testDrawID, 1, 2, 3, 4, 5), nil)

	require.NoError(t, err)
	assert.Zero(t, report.Settled)
	assert.Empty(t, report.Results)
	factory.AssertNotCalled(t, "Create")
}
