package interfaces

import (
	"context"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"
)

// PlayerRepository defines the interface for player data access
type PlayerRepository interface {
	// GetByID retrieves a player, nil when not found
	GetByID(ctx context.Context, id int64) (*entities.Player, error)

	// GetByIDForUpdate retrieves a player and locks the row until the transaction ends.
	// Every balance or active-bet mutation takes this lock first.
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Player, error)

	// GetByUsername retrieves a player by username, nil when not found
	GetByUsername(ctx context.Context, username string) (*entities.Player, error)

	// Create creates a new player with the initial points balance
	Create(ctx context.Context, username string, initialPoints int64) (*entities.Player, error)

	// AddPoints applies delta to the player's balance and returns the new balance
	AddPoints(ctx context.Context, id int64, delta int64) (int64, error)

	// GetTop returns the n highest balances, ties broken by username
	GetTop(ctx context.Context, n int) ([]*entities.Player, error)
}

// DrawRepository defines the interface for draw data access
type DrawRepository interface {
	// Create persists numbers as a new draw and returns it with its id and timestamp
	Create(ctx context.Context, numbers []int64) (*entities.Draw, error)

	// GetLatest returns the most recent draw, nil when none exist
	GetLatest(ctx context.Context) (*entities.Draw, error)

	GetByID(ctx context.Context, id int64) (*entities.Draw, error)

	// GetAll returns every draw, newest first
	GetAll(ctx context.Context) ([]*entities.Draw, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create inserts an active bet. Returns ErrActiveBetConflict when the
	// player already holds one.
	Create(ctx context.Context, bet *entities.Bet) error

	// GetActiveByPlayer returns the player's active bet, nil when none
	GetActiveByPlayer(ctx context.Context, playerID int64) (*entities.Bet, error)

	// DeleteActive removes the player's active bet and returns it, nil when none
	DeleteActive(ctx context.Context, playerID int64) (*entities.Bet, error)

	// GetActiveBefore returns all active bets placed at or before cutoff, oldest first
	GetActiveBefore(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error)

	// MarkSettled transitions an active bet to settled against drawID.
	// Returns ErrSettlementAnomaly when the bet is missing or already settled.
	MarkSettled(ctx context.Context, betID, drawID int64) (*entities.Bet, error)

	// RecordOutcome stores the settlement outcome on a settled bet
	RecordOutcome(ctx context.Context, betID int64, correctCount int, payout int64) error

	// GetByPlayerAndDraw returns the player's bet settled against drawID, nil when none
	GetByPlayerAndDraw(ctx context.Context, playerID, drawID int64) (*entities.Bet, error)

	// GetAllByPlayer returns every bet of the player, newest first
	GetAllByPlayer(ctx context.Context, playerID int64) ([]*entities.Bet, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByPlayer returns the most recent entries for a player, newest first
	GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the owning transaction ends
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events, called after commit
	Flush(ctx context.Context) error

	// Discard drops all pending events, called on rollback
	Discard()
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	PlayerRepository() PlayerRepository
	DrawRepository() DrawRepository
	BetRepository() BetRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
