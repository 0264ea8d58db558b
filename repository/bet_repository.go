package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lotto/database"
	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

type betRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) interfaces.BetRepository {
	return &betRepository{q: db.Pool}
}

func newBetRepositoryWithTx(tx Queryable) interfaces.BetRepository {
	return &betRepository{q: tx}
}

const betColumns = `id, player_id, numbers, cost, placed_at, settled_draw_id, correct_count, payout, settled_at`

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var bet entities.Bet
	err := row.Scan(
		&bet.ID,
		&bet.PlayerID,
		&bet.Numbers,
		&bet.Cost,
		&bet.PlacedAt,
		&bet.SettledDrawID,
		&bet.CorrectCount,
		&bet.Payout,
		&bet.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

func collectBets(rows pgx.Rows) ([]*entities.Bet, error) {
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bets: %w", err)
	}
	return bets, nil
}

// Create inserts a new active bet and fills in its id and placement time
func (r *betRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (player_id, numbers, cost)
		VALUES ($1, $2, $3)
		RETURNING id, placed_at
	`

	err := r.q.QueryRow(ctx, query, bet.PlayerID, bet.Numbers, bet.Cost).Scan(&bet.ID, &bet.PlacedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: player %d", entities.ErrActiveBetConflict, bet.PlayerID)
		}
		return fmt.Errorf("failed to create bet for player %d: %w", bet.PlayerID, err)
	}
	return nil
}

// GetActiveByPlayer returns the player's active bet
func (r *betRepository) GetActiveByPlayer(ctx context.Context, playerID int64) (*entities.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE player_id = $1 AND settled_draw_id IS NULL`

	bet, err := scanBet(r.q.QueryRow(ctx, query, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active bet for player %d: %w", playerID, err)
	}
	return bet, nil
}

// DeleteActive removes the player's active bet and returns what was removed
func (r *betRepository) DeleteActive(ctx context.Context, playerID int64) (*entities.Bet, error) {
	query := `DELETE FROM bets WHERE player_id = $1 AND settled_draw_id IS NULL RETURNING ` + betColumns

	bet, err := scanBet(r.q.QueryRow(ctx, query, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete active bet for player %d: %w", playerID, err)
	}
	return bet, nil
}

// GetActiveBefore returns the settlement snapshot: active bets placed at or before cutoff
func (r *betRepository) GetActiveBefore(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE settled_draw_id IS NULL AND placed_at <= $1
		ORDER BY placed_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query active bets: %w", err)
	}
	return collectBets(rows)
}

// MarkSettled moves an active bet to settled. Zero affected rows means the
// bet was cancelled, replaced or already settled.
func (r *betRepository) MarkSettled(ctx context.Context, betID, drawID int64) (*entities.Bet, error) {
	query := `
		UPDATE bets
		SET settled_draw_id = $2, settled_at = clock_timestamp()
		WHERE id = $1 AND settled_draw_id IS NULL
		RETURNING ` + betColumns

	bet, err := scanBet(r.q.QueryRow(ctx, query, betID, drawID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: bet %d is not active", entities.ErrSettlementAnomaly, betID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark bet %d settled: %w", betID, err)
	}
	return bet, nil
}

// RecordOutcome stores the match count and payout on a settled bet
func (r *betRepository) RecordOutcome(ctx context.Context, betID int64, correctCount int, payout int64) error {
	query := `
		UPDATE bets
		SET correct_count = $2, payout = $3
		WHERE id = $1 AND settled_draw_id IS NOT NULL
	`

	tag, err := r.q.Exec(ctx, query, betID, correctCount, payout)
	if err != nil {
		return fmt.Errorf("failed to record outcome for bet %d: %w", betID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bet %d is not settled", entities.ErrSettlementAnomaly, betID)
	}
	return nil
}

// GetByPlayerAndDraw returns the player's bet settled against drawID
func (r *betRepository) GetByPlayerAndDraw(ctx context.Context, playerID, drawID int64) (*entities.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE player_id = $1 AND settled_draw_id = $2`

	bet, err := scanBet(r.q.QueryRow(ctx, query, playerID, drawID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet for player %d on draw %d: %w", playerID, drawID, err)
	}
	return bet, nil
}

// GetAllByPlayer returns every bet of the player, newest first
func (r *betRepository) GetAllByPlayer(ctx context.Context, playerID int64) ([]*entities.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE player_id = $1
		ORDER BY placed_at DESC, id DESC
	`

	rows, err := r.q.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets for player %d: %w", playerID, err)
	}
	return collectBets(rows)
}
