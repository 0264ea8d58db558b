package utils

import (
	"context"
	"fmt"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordBalanceChange records a balance history entry and emits a balance change event.
// Every mutation of a player's points goes through here, inside the mutating transaction.
func RecordBalanceChange(ctx context.Context, balanceHistoryRepo interfaces.BalanceHistoryRepository, eventPublisher interfaces.EventPublisher, history *entities.BalanceHistory) error {
	if err := history.ValidateTransaction(); err != nil {
		return fmt.Errorf("invalid balance change for player %d: %w", history.PlayerID, err)
	}

	if err := balanceHistoryRepo.Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	event := events.BalanceChangeEvent{
		PlayerID:        history.PlayerID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	}
	log.WithFields(log.Fields{
		"playerID":        event.PlayerID,
		"oldBalance":      event.OldBalance,
		"newBalance":      event.NewBalance,
		"transactionType": event.TransactionType,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
