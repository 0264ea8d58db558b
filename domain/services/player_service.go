package services

import (
	"context"
	"fmt"
	"strings"

	"lotto/domain/entities"
	"lotto/domain/interfaces"
	"lotto/domain/utils"

	log "github.com/sirupsen/logrus"
)

type playerService struct {
	uowFactory interfaces.UnitOfWorkFactory
}

// NewPlayerService creates a new player service
func NewPlayerService(uowFactory interfaces.UnitOfWorkFactory) interfaces.PlayerService {
	return &playerService{uowFactory: uowFactory}
}

// CreatePlayer registers a player and records the starting balance
func (s *playerService) CreatePlayer(ctx context.Context, username string, startingPoints int64) (*entities.Player, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if startingPoints < 0 {
		return nil, fmt.Errorf("starting points cannot be negative")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.PlayerRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("username %q is already taken", username)
	}

	player, err := uow.PlayerRepository().Create(ctx, username, startingPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	if startingPoints > 0 {
		history := &entities.BalanceHistory{
			PlayerID:        player.ID,
			BalanceBefore:   0,
			BalanceAfter:    startingPoints,
			ChangeAmount:    startingPoints,
			TransactionType: entities.TransactionTypeInitial,
			TransactionMetadata: map[string]any{
				"username": username,
			},
		}
		if err := utils.RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"playerID": player.ID,
		"username": username,
		"points":   startingPoints,
	}).Info("Player created")

	return player, nil
}

func (s *playerService) GetPlayer(ctx context.Context, playerID int64) (*entities.Player, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	player, err := uow.PlayerRepository().GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrPlayerNotFound, playerID)
	}
	return player, nil
}
