package services

import (
	"context"
	"errors"
	"fmt"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"
	"lotto/domain/utils"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory interfaces.UnitOfWorkFactory
}

// NewSettlementService creates a new settlement engine
func NewSettlementService(uowFactory interfaces.UnitOfWorkFactory) interfaces.SettlementEngine {
	return &settlementService{uowFactory: uowFactory}
}

// SettleBet settles a single bet against draw. The active-to-settled
// transition, the payout credit and the result event commit together.
func (s *settlementService) SettleBet(ctx context.Context, draw *entities.Draw, bet *entities.Bet) (*entities.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	playerRepo := uow.PlayerRepository()
	betRepo := uow.BetRepository()

	player, err := playerRepo.GetByIDForUpdate(ctx, bet.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player: %w", err)
	}
	if player == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrPlayerNotFound, bet.PlayerID)
	}

	// Guards against settling twice: only an active bet transitions
	settled, err := betRepo.MarkSettled(ctx, bet.ID, draw.ID)
	if err != nil {
		return nil, err
	}

	correct := entities.CorrectCount(settled.Numbers, draw)
	payout := entities.CalculatePayout(settled.Cost, len(settled.Numbers), correct)

	if err := betRepo.RecordOutcome(ctx, settled.ID, correct, payout); err != nil {
		return nil, fmt.Errorf("failed to record bet outcome: %w", err)
	}

	balance := player.Points
	if payout > 0 {
		balance, err = playerRepo.AddPoints(ctx, player.ID, payout)
		if err != nil {
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}

		history := &entities.BalanceHistory{
			PlayerID:        player.ID,
			BalanceBefore:   player.Points,
			BalanceAfter:    balance,
			ChangeAmount:    payout,
			TransactionType: entities.TransactionTypeBetPayout,
			TransactionMetadata: map[string]any{
				"draw_id":       draw.ID,
				"correct_count": correct,
			},
			RelatedBetID: &settled.ID,
		}
		if err := utils.RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
			return nil, err
		}
	}

	result := &entities.SettlementResult{
		BetID:        settled.ID,
		PlayerID:     player.ID,
		DrawID:       draw.ID,
		Numbers:      settled.Numbers,
		CorrectCount: correct,
		Payout:       payout,
		Balance:      balance,
	}

	if err := uow.EventBus().Publish(events.SettlementResultEvent{
		PlayerID:     result.PlayerID,
		DrawID:       result.DrawID,
		BetID:        result.BetID,
		Balance:      result.Balance,
		CorrectCount: result.CorrectCount,
		Numbers:      result.Numbers,
		Payout:       result.Payout,
	}); err != nil {
		log.WithError(err).Error("Failed to publish settlement result event")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// SettleDraw settles every bet in snapshot against draw, one transaction per bet
func (s *settlementService) SettleDraw(ctx context.Context, draw *entities.Draw, snapshot []*entities.Bet) (*interfaces.SettlementReport, error) {
	if draw == nil {
		return nil, fmt.Errorf("cannot settle without a draw")
	}

	report := &interfaces.SettlementReport{
		DrawID:  draw.ID,
		Results: make([]*entities.SettlementResult, 0, len(snapshot)),
	}

	for _, bet := range snapshot {
		result, err := s.SettleBet(ctx, draw, bet)
		if err != nil {
			if errors.Is(err, entities.ErrSettlementAnomaly) {
				report.Anomalies++
				log.WithFields(log.Fields{
					"betID":    bet.ID,
					"playerID": bet.PlayerID,
					"drawID":   draw.ID,
				}).Warn("Skipping bet that was not active at settlement")
				continue
			}

			report.Failed++
			log.WithFields(log.Fields{
				"betID":    bet.ID,
				"playerID": bet.PlayerID,
				"drawID":   draw.ID,
				"error":    err,
			}).Error("Failed to settle bet")
			continue
		}

		report.Settled++
		report.TotalPayout += result.Payout
		report.Results = append(report.Results, result)
	}

	log.WithFields(log.Fields{
		"drawID":      draw.ID,
		"snapshot":    len(snapshot),
		"settled":     report.Settled,
		"anomalies":   report.Anomalies,
		"failed":      report.Failed,
		"totalPayout": report.TotalPayout,
	}).Info("Completed draw settlement")

	return report, nil
}
