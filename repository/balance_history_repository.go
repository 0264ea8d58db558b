package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"lotto/database"
	"lotto/domain/entities"
	"lotto/domain/interfaces"
)

type balanceHistoryRepository struct {
	q Queryable
}

// NewBalanceHistoryRepository creates a new balance history repository
func NewBalanceHistoryRepository(db *database.DB) interfaces.BalanceHistoryRepository {
	return &balanceHistoryRepository{q: db.Pool}
}

func newBalanceHistoryRepositoryWithTx(tx Queryable) interfaces.BalanceHistoryRepository {
	return &balanceHistoryRepository{q: tx}
}

// Record creates a new balance history entry
func (r *balanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	metadata := history.TransactionMetadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO balance_history
		(player_id, balance_before, balance_after, change_amount, transaction_type, transaction_metadata, related_bet_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		history.PlayerID,
		history.BalanceBefore,
		history.BalanceAfter,
		history.ChangeAmount,
		history.TransactionType,
		metadataJSON,
		history.RelatedBetID,
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record balance history for player %d: %w", history.PlayerID, err)
	}

	return nil
}

// GetByPlayer returns the most recent balance history entries for a player
func (r *balanceHistoryRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.BalanceHistory, error) {
	query := `
		SELECT id, player_id, balance_before, balance_after, change_amount,
		       transaction_type, transaction_metadata, related_bet_id, created_at
		FROM balance_history
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance history: %w", err)
	}
	defer rows.Close()

	var histories []*entities.BalanceHistory
	for rows.Next() {
		var history entities.BalanceHistory
		var metadataJSON []byte

		err := rows.Scan(
			&history.ID,
			&history.PlayerID,
			&history.BalanceBefore,
			&history.BalanceAfter,
			&history.ChangeAmount,
			&history.TransactionType,
			&metadataJSON,
			&history.RelatedBetID,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.TransactionMetadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance history: %w", err)
	}
	return histories, nil
}
