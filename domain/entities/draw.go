package entities

import (
	"fmt"
	"time"
)

const (
	// DrawSize is the number of values in every draw
	DrawSize = 5

	// MinNumber and MaxNumber bound the lottery number space, inclusive
	MinNumber int64 = 1
	MaxNumber int64 = 90
)

// Draw is an immutable set of winning numbers generated at the end of a round
type Draw struct {
	ID        int64     `db:"id"`
	Numbers   []int64   `db:"numbers"`
	CreatedAt time.Time `db:"created_at"`
}

// Contains reports whether n is one of the drawn numbers
func (d *Draw) Contains(n int64) bool {
	for _, v := range d.Numbers {
		if v == n {
			return true
		}
	}
	return false
}

// ValidateDrawNumbers checks that numbers form a legal draw
func ValidateDrawNumbers(numbers []int64) error {
	if len(numbers) != DrawSize {
		return fmt.Errorf("draw must have %d numbers, got %d", DrawSize, len(numbers))
	}
	return validateDistinctInRange(numbers)
}

func validateDistinctInRange(numbers []int64) error {
	seen := make(map[int64]struct{}, len(numbers))
	for _, n := range numbers {
		if n < MinNumber || n > MaxNumber {
			return fmt.Errorf("number %d out of range [%d,%d]", n, MinNumber, MaxNumber)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("number %d appears more than once", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
