package entities

import (
	"errors"
	"time"
)

// BalanceHistory represents a single change to a player's points
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	PlayerID            int64           `db:"player_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedBetID        *int64          `db:"related_bet_id"`
	CreatedAt           time.Time       `db:"created_at"`
}

// ValidateTransaction performs basic validation on the transaction
func (bh *BalanceHistory) ValidateTransaction() error {
	if bh.ChangeAmount == 0 {
		return errors.New("change amount cannot be zero")
	}

	if bh.BalanceAfter != bh.BalanceBefore+bh.ChangeAmount {
		return errors.New("balance calculation is inconsistent")
	}

	if bh.BalanceAfter < 0 {
		return errors.New("balance cannot go negative")
	}

	return nil
}
