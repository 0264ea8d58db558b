package services

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"lotto/domain/entities"
)

// RandomDrawGenerator draws numbers uniformly without replacement using a
// partial Fisher-Yates shuffle over the whole number space
type RandomDrawGenerator struct {
	source io.Reader
}

// NewRandomDrawGenerator creates a generator backed by crypto/rand
func NewRandomDrawGenerator() *RandomDrawGenerator {
	return &RandomDrawGenerator{source: rand.Reader}
}

// NewRandomDrawGeneratorWithSource creates a generator reading entropy from source
func NewRandomDrawGeneratorWithSource(source io.Reader) *RandomDrawGenerator {
	return &RandomDrawGenerator{source: source}
}

// Generate returns DrawSize distinct numbers in draw order
func (g *RandomDrawGenerator) Generate() ([]int64, error) {
	span := entities.MaxNumber - entities.MinNumber + 1
	pool := make([]int64, span)
	for i := range pool {
		pool[i] = entities.MinNumber + int64(i)
	}

	for i := 0; i < entities.DrawSize; i++ {
		remaining := big.NewInt(span - int64(i))
		offset, err := rand.Int(g.source, remaining)
		if err != nil {
			return nil, fmt.Errorf("failed to read random source: %w", err)
		}
		j := i + int(offset.Int64())
		pool[i], pool[j] = pool[j], pool[i]
	}

	numbers := make([]int64, entities.DrawSize)
	copy(numbers, pool[:entities.DrawSize])
	return numbers, nil
}
