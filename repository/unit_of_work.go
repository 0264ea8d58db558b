package repository

import (
	"context"
	"errors"
	"fmt"

	"lotto/database"
	"lotto/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	playerRepo             interfaces.PlayerRepository
	drawRepo               interfaces.DrawRepository
	betRepo                interfaces.BetRepository
	balanceHistoryRepo     interfaces.BalanceHistoryRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

// CreateWithPublisher creates a new UnitOfWork whose events go through transactionalPublisher
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) interfaces.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.playerRepo = newPlayerRepositoryWithTx(tx)
	u.drawRepo = newDrawRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithError(err).Error("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// PlayerRepository returns the player repository for this unit of work
func (u *unitOfWork) PlayerRepository() interfaces.PlayerRepository {
	if u.playerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.playerRepo
}

// DrawRepository returns the draw repository for this unit of work
func (u *unitOfWork) DrawRepository() interfaces.DrawRepository {
	if u.drawRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work has no event publisher")
	}
	return u.transactionalPublisher
}
