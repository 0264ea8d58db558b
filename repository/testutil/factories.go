package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"lotto/database"
	"lotto/domain/entities"

	"github.com/stretchr/testify/require"
)

var playerSeq atomic.Int64

// CreateTestPlayer inserts a player with a unique username and the given balance
func CreateTestPlayer(t *testing.T, db *database.DB, points int64) *entities.Player {
	t.Helper()

	username := fmt.Sprintf("player_%d", playerSeq.Add(1))

	var player entities.Player
	err := db.QueryRow(context.Background(),
		`INSERT INTO players (username, points) VALUES ($1, $2)
		 RETURNING id, username, points, created_at, updated_at`,
		username, points,
	).Scan(&player.ID, &player.Username, &player.Points, &player.CreatedAt, &player.UpdatedAt)
	require.NoError(t, err)

	return &player
}

// CreateTestBalanceHistory builds an unsaved balance history entry for a player
func CreateTestBalanceHistory(playerID int64, before, change int64, transactionType entities.TransactionType) *entities.BalanceHistory {
	return &entities.BalanceHistory{
		PlayerID:        playerID,
		BalanceBefore:   before,
		BalanceAfter:    before + change,
		ChangeAmount:    change,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}

// PlayerPoints reads a player's balance straight from the database
func PlayerPoints(t *testing.T, db *database.DB, playerID int64) int64 {
	t.Helper()

	var points int64
	err := db.QueryRow(context.Background(), `SELECT points FROM players WHERE id = $1`, playerID).Scan(&points)
	require.NoError(t, err)
	return points
}

// CountActiveBets returns how many active bets the player holds
func CountActiveBets(t *testing.T, db *database.DB, playerID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM bets WHERE player_id = $1 AND settled_draw_id IS NULL`, playerID,
	).Scan(&count)
	require.NoError(t, err)
	return count
}
