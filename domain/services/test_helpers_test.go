package services

import (
	"time"

	"lotto/domain/entities"
	"lotto/domain/testhelpers"
)

const (
	testPlayerID = int64(42)
	testDrawID   = int64(7)
)

// newTestFactory returns a factory that hands out uow for every Create call
func newTestFactory(uow *testhelpers.MockUnitOfWork) *testhelpers.MockUnitOfWorkFactory {
	factory := new(testhelpers.MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	return factory
}

func createTestPlayer(id, points int64) *entities.Player {
	return &entities.Player{
		ID:        id,
		Username:  "player",
		Points:    points,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func createTestBet(id, playerID int64, numbers ...int64) *entities.Bet {
	return &entities.Bet{
		ID:       id,
		PlayerID: playerID,
		Numbers:  numbers,
		Cost:     entities.BetCost(numbers),
		PlacedAt: time.Now().Add(-time.Minute),
	}
}

func settledCopy(bet *entities.Bet, drawID int64) *entities.Bet {
	settled := *bet
	settled.SettledDrawID = &drawID
	return &settled
}

func createTestDraw(id int64, numbers ...int64) *entities.Draw {
	return &entities.Draw{
		ID:        id,
		Numbers:   numbers,
		CreatedAt: time.Now(),
	}
}
