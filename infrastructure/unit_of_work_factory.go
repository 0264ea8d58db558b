package infrastructure

import (
	"lotto/database"
	"lotto/domain/interfaces"
	"lotto/repository"
)

// UnitOfWorkFactory creates units of work whose events reach eventPublisher
// only after the database transaction commits
type UnitOfWorkFactory struct {
	repoFactory interface {
		CreateWithPublisher(interfaces.TransactionalEventPublisher) interfaces.UnitOfWork
	}
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with its own transactional publisher
func (f *UnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.repoFactory.CreateWithPublisher(NewTransactionalPublisher(f.eventPublisher))
}
