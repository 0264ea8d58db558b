package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"
	"lotto/domain/utils"

	log "github.com/sirupsen/logrus"
)

type betLedger struct {
	uowFactory interfaces.UnitOfWorkFactory
}

// NewBetLedger creates a new bet ledger. Every operation runs in its own
// unit of work and locks the player row before touching balances or bets.
func NewBetLedger(uowFactory interfaces.UnitOfWorkFactory) interfaces.BetLedger {
	return &betLedger{uowFactory: uowFactory}
}

// PlaceBet places a new active bet for the player, replacing and refunding
// any existing one
func (l *betLedger) PlaceBet(ctx context.Context, playerID int64, numbers []int64) (*interfaces.PlaceBetResult, error) {
	if err := entities.ValidateBetNumbers(numbers); err != nil {
		return nil, err
	}
	numbers = slices.Clone(numbers)
	cost := entities.BetCost(numbers)

	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	playerRepo := uow.PlayerRepository()
	betRepo := uow.BetRepository()

	player, err := playerRepo.GetByIDForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player: %w", err)
	}
	if player == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrPlayerNotFound, playerID)
	}

	existing, err := betRepo.GetActiveByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active bet: %w", err)
	}

	if existing != nil && existing.SameNumbers(numbers) {
		return nil, fmt.Errorf("%w: bet %d", entities.ErrBetAlreadyPlaced, existing.ID)
	}
	// The current balance must cover the new bet on its own; a pending refund does not count
	if player.Points < cost {
		return nil, fmt.Errorf("%w: need %d, have %d", entities.ErrInsufficientBalance, cost, player.Points)
	}

	balance := player.Points
	if existing != nil {
		balance, err = l.refund(ctx, uow, player.ID, balance, "replaced")
		if err != nil {
			return nil, err
		}
	}

	newBalance, err := playerRepo.AddPoints(ctx, playerID, -cost)
	if err != nil {
		return nil, fmt.Errorf("failed to debit bet cost: %w", err)
	}

	bet := &entities.Bet{
		PlayerID: playerID,
		Numbers:  numbers,
		Cost:     cost,
	}
	if err := betRepo.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	history := &entities.BalanceHistory{
		PlayerID:        playerID,
		BalanceBefore:   balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    -cost,
		TransactionType: entities.TransactionTypeBetPlaced,
		TransactionMetadata: map[string]any{
			"numbers": numbers,
		},
		RelatedBetID: &bet.ID,
	}
	if err := utils.RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
		return nil, err
	}

	if err := uow.EventBus().Publish(events.BetPlacedEvent{
		PlayerID: playerID,
		BetID:    bet.ID,
		Numbers:  numbers,
		Cost:     cost,
		Replaced: existing != nil,
	}); err != nil {
		log.WithError(err).Error("Failed to publish bet placed event")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"playerID": playerID,
		"betID":    bet.ID,
		"numbers":  numbers,
		"cost":     cost,
		"replaced": existing != nil,
		"balance":  newBalance,
	}).Info("Bet placed")

	return &interfaces.PlaceBetResult{
		Bet:      bet,
		Balance:  newBalance,
		Replaced: existing != nil,
	}, nil
}

// CancelActiveBet removes the player's active bet and refunds its cost.
// A player without an active bet gets Cancelled=false and nothing changes.
func (l *betLedger) CancelActiveBet(ctx context.Context, playerID int64) (*interfaces.CancelResult, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	player, err := uow.PlayerRepository().GetByIDForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player: %w", err)
	}
	if player == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrPlayerNotFound, playerID)
	}

	active, err := uow.BetRepository().GetActiveByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active bet: %w", err)
	}
	if active == nil {
		return &interfaces.CancelResult{Player: player}, nil
	}

	newBalance, err := l.refund(ctx, uow, playerID, player.Points, "cancelled")
	if err != nil {
		return nil, err
	}

	if err := uow.EventBus().Publish(events.BetCancelledEvent{
		PlayerID: playerID,
		BetID:    active.ID,
		Refund:   active.Cost,
	}); err != nil {
		log.WithError(err).Error("Failed to publish bet cancelled event")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	player.Points = newBalance

	log.WithFields(log.Fields{
		"playerID": playerID,
		"betID":    active.ID,
		"refund":   active.Cost,
	}).Info("Bet cancelled")

	return &interfaces.CancelResult{
		Player:    player,
		Cancelled: true,
		Refund:    active.Cost,
	}, nil
}

// refund deletes the player's active bet and credits its cost back.
// The caller must hold the player lock.
func (l *betLedger) refund(ctx context.Context, uow interfaces.UnitOfWork, playerID, balance int64, reason string) (int64, error) {
	removed, err := uow.BetRepository().DeleteActive(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete active bet: %w", err)
	}
	if removed == nil {
		return balance, nil
	}

	newBalance, err := uow.PlayerRepository().AddPoints(ctx, playerID, removed.Cost)
	if err != nil {
		return 0, fmt.Errorf("failed to refund bet cost: %w", err)
	}

	history := &entities.BalanceHistory{
		PlayerID:        playerID,
		BalanceBefore:   balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    removed.Cost,
		TransactionType: entities.TransactionTypeBetRefund,
		TransactionMetadata: map[string]any{
			"bet_id":  removed.ID,
			"numbers": removed.Numbers,
			"reason":  reason,
		},
	}
	if err := utils.RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// GetActiveBet returns the player's active bet, nil when there is none
func (l *betLedger) GetActiveBet(ctx context.Context, playerID int64) (*entities.Bet, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetActiveByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active bet: %w", err)
	}
	return bet, nil
}

// GetLastSettledNumbers returns the numbers the player bet on the latest draw
func (l *betLedger) GetLastSettledNumbers(ctx context.Context, playerID int64) ([]int64, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	draw, err := uow.DrawRepository().GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest draw: %w", err)
	}
	if draw == nil {
		return []int64{}, nil
	}

	bet, err := uow.BetRepository().GetByPlayerAndDraw(ctx, playerID, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet for draw %d: %w", draw.ID, err)
	}
	if bet == nil {
		return []int64{}, nil
	}
	return bet.Numbers, nil
}

// ActiveBetsForSettlement returns every active bet placed at or before cutoff
// in a single read, so each bet is either wholly present or absent
func (l *betLedger) ActiveBetsForSettlement(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetActiveBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to read active bets: %w", err)
	}
	return bets, nil
}

// MarkSettled transitions one active bet to settled against drawID
func (l *betLedger) MarkSettled(ctx context.Context, betID, drawID int64) error {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.BetRepository().MarkSettled(ctx, betID, drawID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
