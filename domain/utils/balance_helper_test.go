package utils

import (
	"context"
	"errors"
	"testing"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRecordBalanceChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	historyRepo := new(testhelpers.MockBalanceHistoryRepository)
	publisher := new(testhelpers.MockEventPublisher)

	history := &entities.BalanceHistory{
		PlayerID:        7,
		BalanceBefore:   100,
		BalanceAfter:    85,
		ChangeAmount:    -15,
		TransactionType: entities.TransactionTypeBetPlaced,
	}

	historyRepo.On("Record", ctx, history).Return(nil)
	publisher.On("Publish", events.BalanceChangeEvent{
		PlayerID:        7,
		OldBalance:      100,
		NewBalance:      85,
		TransactionType: entities.TransactionTypeBetPlaced,
		ChangeAmount:    -15,
	}).Return(nil)

	err := RecordBalanceChange(ctx, historyRepo, publisher, history)

	require.NoError(t, err)
	historyRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRecordBalanceChange_RejectsInconsistentHistory(t *testing.T) {
	t.Parallel()

	historyRepo := new(testhelpers.MockBalanceHistoryRepository)
	publisher := new(testhelpers.MockEventPublisher)

	err := RecordBalanceChange(context.Background(), historyRepo, publisher, &entities.BalanceHistory{
		PlayerID:      7,
		BalanceBefore: 100,
		BalanceAfter:  90,
		ChangeAmount:  -15,
	})

	require.Error(t, err)
	historyRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestRecordBalanceChange_RecordFailure(t *testing.T) {
	t.Parallel()

	historyRepo := new(testhelpers.MockBalanceHistoryRepository)
	publisher := new(testhelpers.MockEventPublisher)
	historyRepo.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := RecordBalanceChange(context.Background(), historyRepo, publisher, &entities.BalanceHistory{
		PlayerID:        7,
		BalanceBefore:   85,
		BalanceAfter:    115,
		ChangeAmount:    30,
		TransactionType: entities.TransactionTypeBetPayout,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record balance history")
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}
