package interfaces

import (
	"context"
	"time"

	"lotto/domain/entities"
)

// DrawGenerator produces the winning numbers of a round
type DrawGenerator interface {
	// Generate returns DrawSize distinct numbers in [MinNumber, MaxNumber], in draw order
	Generate() ([]int64, error)
}

// PlaceBetResult describes the outcome of a successful placement
type PlaceBetResult struct {
	Bet      *entities.Bet
	Balance  int64
	Replaced bool
}

// CancelResult describes the outcome of a cancellation. Cancelled is false
// when the player had no active bet, in which case nothing changed.
type CancelResult struct {
	Player    *entities.Player
	Cancelled bool
	Refund    int64
}

// BetLedger owns the active bet of every player
type BetLedger interface {
	// PlaceBet places or replaces the player's active bet
	PlaceBet(ctx context.Context, playerID int64, numbers []int64) (*PlaceBetResult, error)

	// CancelActiveBet withdraws and refunds the player's active bet, if any
	CancelActiveBet(ctx context.Context, playerID int64) (*CancelResult, error)

	// GetActiveBet returns the player's active bet, nil when none
	GetActiveBet(ctx context.Context, playerID int64) (*entities.Bet, error)

	// GetLastSettledNumbers returns the numbers of the player's bet settled
	// against the most recent draw, empty when there is none
	GetLastSettledNumbers(ctx context.Context, playerID int64) ([]int64, error)

	// ActiveBetsForSettlement reads every active bet placed at or before cutoff
	ActiveBetsForSettlement(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error)

	// MarkSettled transitions a single active bet to settled against drawID
	MarkSettled(ctx context.Context, betID, drawID int64) error
}

// SettlementReport summarises one settlement pass over a draw
type SettlementReport struct {
	DrawID      int64
	Settled     int
	Anomalies   int
	Failed      int
	TotalPayout int64
	Results     []*entities.SettlementResult
}

// SettlementEngine settles bets against a draw
type SettlementEngine interface {
	// SettleBet settles one bet in its own transaction. Returns
	// ErrSettlementAnomaly when the bet was already settled or is gone.
	SettleBet(ctx context.Context, draw *entities.Draw, bet *entities.Bet) (*entities.SettlementResult, error)

	// SettleDraw settles every bet of the snapshot. Failures of single bets
	// are logged and counted, they never abort the pass.
	SettleDraw(ctx context.Context, draw *entities.Draw, snapshot []*entities.Bet) (*SettlementReport, error)
}

// QueryService exposes read-only reporting queries
type QueryService interface {
	// GetCurrentDraw returns the latest draw, nil when none exist
	GetCurrentDraw(ctx context.Context) (*entities.Draw, error)

	// GetAllDraws returns every draw, newest first
	GetAllDraws(ctx context.Context) ([]*entities.Draw, error)

	// GetTopPlayers returns the n players with the most points
	GetTopPlayers(ctx context.Context, n int) ([]*entities.Player, error)

	// GetAllBetsForPlayer returns every bet of the player, newest first
	GetAllBetsForPlayer(ctx context.Context, playerID int64) ([]*entities.Bet, error)

	// GetBalanceHistory returns the player's most recent balance changes
	GetBalanceHistory(ctx context.Context, playerID int64, limit int) ([]*entities.BalanceHistory, error)
}

// PlayerService manages player accounts
type PlayerService interface {
	// CreatePlayer registers a player with the starting balance
	CreatePlayer(ctx context.Context, username string, startingPoints int64) (*entities.Player, error)

	// GetPlayer returns a player by id, ErrPlayerNotFound when missing
	GetPlayer(ctx context.Context, playerID int64) (*entities.Player, error)
}
