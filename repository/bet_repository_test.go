package repository

import (
	"context"
	"testing"
	"time"

	"lotto/domain/entities"
	"lotto/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBetRepository(testDB.DB)
	drawRepo := NewDrawRepository(testDB.DB)
	ctx := context.Background()

	t.Run("create and fetch active bet", func(t *testing.T) {
		player := testutil.CreateTestPlayer(t, testDB.DB, 100)

		bet := &entities.Bet{PlayerID: player.ID, Numbers: []int64{3, 1, 2}, Cost: 15}
		require.NoError(t, repo.Create(ctx, bet))
		assert.NotZero(t, bet.ID)
		assert.False(t, bet.PlacedAt.IsZero())

		active, err := repo.GetActiveByPlayer(ctx, player.ID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, []int64{3, 1, 2}, active.Numbers)
		assert.True(t, active.IsActive())
		assert.Nil(t, active.CorrectCount)
	})

	t.Run("second active bet violates unique index", func(t *testing.T) {
		player := testutil.CreateTestPlayer(t, testDB.DB, 100)

		require.NoError(t, repo.Create(ctx, &entities.Bet{PlayerID: player.ID, Numbers: []int64{1}, Cost: 5}))
		err := repo.Create(ctx, &entities.Bet{PlayerID: player.ID, Numbers: []int64{2}, Cost: 5})

		assert.ErrorIs(t, err, entities.ErrActiveBetConflict)
		assert.Equal(t, 1, testutil.CountActiveBets(t, testDB.DB, player.ID))
	})

	t.Run("delete active bet", func(t *testing.T) {
		player := testutil.CreateTestPlayer(t, testDB.DB, 100)
		require.NoError(t, repo.Create(ctx, &entities.Bet{PlayerID: player.ID, Numbers: []int64{1, 2}, Cost: 10}))

		removed, err := repo.DeleteActive(ctx, player.ID)
		require.NoError(t, err)
		require.NotNil(t, removed)
		assert.Equal(t, int64(10), removed.Cost)

		removed, err = repo.DeleteActive(ctx, player.ID)
		require.NoError(t, err)
		assert.Nil(t, removed)
	})

	t.Run("settle exactly once", func(t *testing.T) {
		player := testutil.CreateTestPlayer(t, testDB.DB, 100)
		bet := &entities.Bet{PlayerID: player.ID, Numbers: []int64{1, 2, 3}, Cost: 15}
		require.NoError(t, repo.Create(ctx, bet))
		draw, err := drawRepo.Create(ctx, []int64{1, 2, 3, 4, 5})
		require.NoError(t, err)

		settled, err := repo.MarkSettled(ctx, bet.ID, draw.ID)
		require.NoError(t, err)
		require.NotNil(t, settled.SettledDrawID)
		assert.Equal(t, draw.ID, *settled.SettledDrawID)
		assert.NotNil(t, settled.SettledAt)

		_, err = repo.MarkSettled(ctx, bet.ID, draw.ID)
		assert.ErrorIs(t, err, entities.ErrSettlementAnomaly)

		require.NoError(t, repo.RecordOutcome(ctx, bet.ID, 3, 30))

		byDraw, err := repo.GetByPlayerAndDraw(ctx, player.ID, draw.ID)
		require.NoError(t, err)
		require.NotNil(t, byDraw)
		require.NotNil(t, byDraw.CorrectCount)
		assert.Equal(t, 3, *byDraw.CorrectCount)
		assert.Equal(t, int64(30), *byDraw.Payout)

		active, err := repo.GetActiveByPlayer(ctx, player.ID)
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("mark settled on missing bet is an anomaly", func(t *testing.T) {
		draw, err := drawRepo.Create(ctx, []int64{10, 20, 30, 40, 50})
		require.NoError(t, err)

		_, err = repo.MarkSettled(ctx, 999999, draw.ID)
		assert.ErrorIs(t, err, entities.ErrSettlementAnomaly)
	})

	t.Run("snapshot only includes bets placed before cutoff", func(t *testing.T) {
		_, err := testDB.DB.Exec(ctx, `DELETE FROM bets WHERE settled_draw_id IS NULL`)
		require.NoError(t, err)

		early := testutil.CreateTestPlayer(t, testDB.DB, 100)
		late := testutil.CreateTestPlayer(t, testDB.DB, 100)

		require.NoError(t, repo.Create(ctx, &entities.Bet{PlayerID: early.ID, Numbers: []int64{1}, Cost: 5}))
		cutoff, err := drawRepo.Create(ctx, []int64{1, 2, 3, 4, 5})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, repo.Create(ctx, &entities.Bet{PlayerID: late.ID, Numbers: []int64{2}, Cost: 5}))

		snapshot, err := repo.GetActiveBefore(ctx, cutoff.CreatedAt)
		require.NoError(t, err)
		require.Len(t, snapshot, 1)
		assert.Equal(t, early.ID, snapshot[0].PlayerID)
	})

	t.Run("all bets newest first", func(t *testing.T) {
		player := testutil.CreateTestPlayer(t, testDB.DB, 100)
		first := &entities.Bet{PlayerID: player.ID, Numbers: []int64{1}, Cost: 5}
		require.NoError(t, repo.Create(ctx, first))
		draw, err := drawRepo.Create(ctx, []int64{6, 7, 8, 9, 10})
		require.NoError(t, err)
		_, err = repo.MarkSettled(ctx, first.ID, draw.ID)
		require.NoError(t, err)
		second := &entities.Bet{PlayerID: player.ID, Numbers: []int64{2}, Cost: 5}
		require.NoError(t, repo.Create(ctx, second))

		bets, err := repo.GetAllByPlayer(ctx, player.ID)
		require.NoError(t, err)
		require.Len(t, bets, 2)
		assert.Equal(t, second.ID, bets[0].ID)
		assert.Equal(t, first.ID, bets[1].ID)
	})
}
