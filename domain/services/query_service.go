package services

import (
	"context"
	"fmt"

	"lotto/domain/entities"
	"lotto/domain/interfaces"
)

type queryService struct {
	uowFactory interfaces.UnitOfWorkFactory
}

// NewQueryService creates a new read-only reporting service
func NewQueryService(uowFactory interfaces.UnitOfWorkFactory) interfaces.QueryService {
	return &queryService{uowFactory: uowFactory}
}

func (s *queryService) GetCurrentDraw(ctx context.Context) (*entities.Draw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	draw, err := uow.DrawRepository().GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current draw: %w", err)
	}
	return draw, nil
}

func (s *queryService) GetAllDraws(ctx context.Context) ([]*entities.Draw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	draws, err := uow.DrawRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get draws: %w", err)
	}
	return draws, nil
}

func (s *queryService) GetTopPlayers(ctx context.Context, n int) ([]*entities.Player, error) {
	if n <= 0 {
		return []*entities.Player{}, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	players, err := uow.PlayerRepository().GetTop(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}
	return players, nil
}

func (s *queryService) GetAllBetsForPlayer(ctx context.Context, playerID int64) ([]*entities.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetAllByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for player %d: %w", playerID, err)
	}
	return bets, nil
}

func (s *queryService) GetBalanceHistory(ctx context.Context, playerID int64, limit int) ([]*entities.BalanceHistory, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history for player %d: %w", playerID, err)
	}
	return history, nil
}
