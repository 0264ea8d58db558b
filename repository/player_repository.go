package repository

import (
	"context"
	"errors"
	"fmt"

	"lotto/database"
	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type playerRepository struct {
	q Queryable
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *database.DB) interfaces.PlayerRepository {
	return &playerRepository{q: db.Pool}
}

func newPlayerRepositoryWithTx(tx Queryable) interfaces.PlayerRepository {
	return &playerRepository{q: tx}
}

const playerColumns = `id, username, points, created_at, updated_at`

func scanPlayer(row pgx.Row) (*entities.Player, error) {
	var player entities.Player
	err := row.Scan(
		&player.ID,
		&player.Username,
		&player.Points,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// GetByID retrieves a player by id
func (r *playerRepository) GetByID(ctx context.Context, id int64) (*entities.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return player, nil
}

// GetByIDForUpdate retrieves a player and holds its row lock until the transaction ends
func (r *playerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1 FOR UPDATE`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock player %d: %w", id, err)
	}
	return player, nil
}

// GetByUsername retrieves a player by username
func (r *playerRepository) GetByUsername(ctx context.Context, username string) (*entities.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE username = $1`

	player, err := scanPlayer(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %q: %w", username, err)
	}
	return player, nil
}

// Create inserts a new player with the initial points balance
func (r *playerRepository) Create(ctx context.Context, username string, initialPoints int64) (*entities.Player, error) {
	query := `
		INSERT INTO players (username, points)
		VALUES ($1, $2)
		RETURNING ` + playerColumns

	player, err := scanPlayer(r.q.QueryRow(ctx, query, username, initialPoints))
	if err != nil {
		return nil, fmt.Errorf("failed to create player %q: %w", username, err)
	}
	return player, nil
}

// AddPoints applies delta to the player's balance. The schema rejects a
// negative result, so callers check affordability under the row lock first.
func (r *playerRepository) AddPoints(ctx context.Context, id int64, delta int64) (int64, error) {
	query := `
		UPDATE players
		SET points = points + $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING points
	`

	var points int64
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %d", entities.ErrPlayerNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add %d points to player %d: %w", delta, id, err)
	}
	return points, nil
}

// GetTop returns the n players with the most points
func (r *playerRepository) GetTop(ctx context.Context, n int) ([]*entities.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		ORDER BY points DESC, username ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top players: %w", err)
	}
	defer rows.Close()

	players := make([]*entities.Player, 0, n)
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}
