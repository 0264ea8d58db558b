package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"lotto/config"
	"lotto/database"
	"lotto/domain/entities"
	"lotto/domain/interfaces"
	"lotto/domain/services"
	"lotto/infrastructure"
)

// Admin commands run against the database directly. Events are dropped
// since no subscriber lives in this process.
func withUnitOfWorkFactory(ctx context.Context, fn func(interfaces.UnitOfWorkFactory) error) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher()))
}

// AddPlayer handles: lotto add-player <username> [points]
func AddPlayer(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: lotto add-player <username> [points]")
	}

	points := config.Get().StartingPoints
	if len(args) > 1 {
		p, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid points %q: %w", args[1], err)
		}
		points = p
	}

	return withUnitOfWorkFactory(ctx, func(f interfaces.UnitOfWorkFactory) error {
		player, err := services.NewPlayerService(f).CreatePlayer(ctx, args[0], points)
		if err != nil {
			return err
		}
		fmt.Printf("created player %d (%s) with %d points\n", player.ID, player.Username, player.Points)
		return nil
	})
}

// PlaceBet handles: lotto place-bet <playerID> <n> [n] [n]
func PlaceBet(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: lotto place-bet <playerID> <n> [n] [n]")
	}

	playerID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid player id %q: %w", args[0], err)
	}

	numbers := make([]int64, 0, len(args)-1)
	for _, arg := range args[1:] {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", arg, err)
		}
		numbers = append(numbers, n)
	}

	return withUnitOfWorkFactory(ctx, func(f interfaces.UnitOfWorkFactory) error {
		result, err := services.NewBetLedger(f).PlaceBet(ctx, playerID, numbers)
		if err != nil {
			return err
		}
		verb := "placed"
		if result.Replaced {
			verb = "replaced active bet with"
		}
		fmt.Printf("%s bet %d on %v for %d points, balance %d\n", verb, result.Bet.ID, result.Bet.Numbers, result.Bet.Cost, result.Balance)
		return nil
	})
}

// CancelBet handles: lotto cancel-bet <playerID>
func CancelBet(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: lotto cancel-bet <playerID>")
	}

	playerID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid player id %q: %w", args[0], err)
	}

	return withUnitOfWorkFactory(ctx, func(f interfaces.UnitOfWorkFactory) error {
		result, err := services.NewBetLedger(f).CancelActiveBet(ctx, playerID)
		if errors.Is(err, entities.ErrPlayerNotFound) {
			return fmt.Errorf("no player with id %d", playerID)
		}
		if err != nil {
			return err
		}
		if !result.Cancelled {
			fmt.Printf("player %d has no active bet, balance %d\n", playerID, result.Player.Points)
			return nil
		}
		fmt.Printf("cancelled bet, refunded %d points, balance %d\n", result.Refund, result.Player.Points)
		return nil
	})
}
