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

type drawRepository struct {
	q Queryable
}

// NewDrawRepository creates a new draw repository
func NewDrawRepository(db *database.DB) interfaces.DrawRepository {
	return &drawRepository{q: db.Pool}
}

func newDrawRepositoryWithTx(tx Queryable) interfaces.DrawRepository {
	return &drawRepository{q: tx}
}

func scanDraw(row pgx.Row) (*entities.Draw, error) {
	var draw entities.Draw
	if err := row.Scan(&draw.ID, &draw.Numbers, &draw.CreatedAt); err != nil {
		return nil, err
	}
	return &draw, nil
}

// Create persists a new draw. created_at comes from clock_timestamp() and is
// the settlement cutoff for the round.
func (r *drawRepository) Create(ctx context.Context, numbers []int64) (*entities.Draw, error) {
	if err := entities.ValidateDrawNumbers(numbers); err != nil {
		return nil, fmt.Errorf("refusing to store invalid draw: %w", err)
	}

	query := `
		INSERT INTO draws (numbers)
		VALUES ($1)
		RETURNING id, numbers, created_at
	`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, numbers))
	if err != nil {
		return nil, fmt.Errorf("failed to create draw: %w", err)
	}
	return draw, nil
}

// GetLatest returns the most recent draw
func (r *drawRepository) GetLatest(ctx context.Context) (*entities.Draw, error) {
	query := `SELECT id, numbers, created_at FROM draws ORDER BY id DESC LIMIT 1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest draw: %w", err)
	}
	return draw, nil
}

// GetByID retrieves a draw by id
func (r *drawRepository) GetByID(ctx context.Context, id int64) (*entities.Draw, error) {
	query := `SELECT id, numbers, created_at FROM draws WHERE id = $1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw %d: %w", id, err)
	}
	return draw, nil
}

// GetAll returns every draw, newest first
func (r *drawRepository) GetAll(ctx context.Context) ([]*entities.Draw, error) {
	query := `SELECT id, numbers, created_at FROM draws ORDER BY id DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query draws: %w", err)
	}
	defer rows.Close()

	var draws []*entities.Draw
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draws: %w", err)
	}
	return draws, nil
}
