package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotto/repository/testutil"
)

func TestDrawRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewDrawRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no draws yet", func(t *testing.T) {
		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		assert.Nil(t, latest)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("create keeps draw order", func(t *testing.T) {
		draw, err := repo.Create(ctx, []int64{44, 3, 90, 1, 17})
		require.NoError(t, err)
		assert.NotZero(t, draw.ID)
		assert.Equal(t, []int64{44, 3, 90, 1, 17}, draw.Numbers)
		assert.False(t, draw.CreatedAt.IsZero())

		fetched, err := repo.GetByID(ctx, draw.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, draw.Numbers, fetched.Numbers)
	})

	t.Run("invalid draw refused", func(t *testing.T) {
		_, err := repo.Create(ctx, []int64{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("latest and all are newest first", func(t *testing.T) {
		second, err := repo.Create(ctx, []int64{5, 6, 7, 8, 9})
		require.NoError(t, err)

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, second.ID, latest.ID)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)
		assert.True(t, all[0].ID > all[1].ID)
	})
}
