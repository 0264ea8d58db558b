package entities

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MinBetNumbers and MaxBetNumbers bound how many numbers a bet may pick
	MinBetNumbers = 1
	MaxBetNumbers = 3

	// CostPerNumber is the points charged for each picked number
	CostPerNumber int64 = 5
)

// Bet is a player's wager on 1-3 numbers for the next draw.
// A bet is active until SettledDrawID is set.
type Bet struct {
	ID            int64      `db:"id"`
	PlayerID      int64      `db:"player_id"`
	Numbers       []int64    `db:"numbers"`
	Cost          int64      `db:"cost"`
	PlacedAt      time.Time  `db:"placed_at"`
	SettledDrawID *int64     `db:"settled_draw_id"`
	CorrectCount  *int       `db:"correct_count"`
	Payout        *int64     `db:"payout"`
	SettledAt     *time.Time `db:"settled_at"`
}

// IsActive returns true while the bet has not been settled against a draw
func (b *Bet) IsActive() bool {
	return b.SettledDrawID == nil
}

// SameNumbers reports whether the bet picks exactly numbers, in the same order
func (b *Bet) SameNumbers(numbers []int64) bool {
	return slices.Equal(b.Numbers, numbers)
}

// BetCost returns the price of a bet on the given numbers
func BetCost(numbers []int64) int64 {
	return CostPerNumber * int64(len(numbers))
}

// ValidateBetNumbers checks the shape of a bet before anything is mutated
func ValidateBetNumbers(numbers []int64) error {
	if len(numbers) < MinBetNumbers || len(numbers) > MaxBetNumbers {
		return fmt.Errorf("%w: expected %d to %d numbers, got %d", ErrInvalidBetShape, MinBetNumbers, MaxBetNumbers, len(numbers))
	}
	if err := validateDistinctInRange(numbers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBetShape, err)
	}
	return nil
}

// CorrectCount returns how many of the bet numbers appear in the draw
func CorrectCount(betNumbers []int64, draw *Draw) int {
	count := 0
	for _, n := range betNumbers {
		if draw.Contains(n) {
			count++
		}
	}
	return count
}

// CalculatePayout returns the points credited for a bet of size picks and
// the given cost with correct matches. A full match pays double the cost, a
// partial match pays the same proportion of it rounded half up.
func CalculatePayout(cost int64, size, correct int) int64 {
	if size <= 0 || correct <= 0 {
		return 0
	}
	if correct >= size {
		return 2 * cost
	}

	payout := decimal.NewFromInt(2 * cost).
		Mul(decimal.NewFromInt(int64(correct))).
		Div(decimal.NewFromInt(int64(size))).
		Round(0)
	return payout.IntPart()
}
