package infrastructure

import (
	"context"

	"lotto/domain/events"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// TransactionalPublisher holds events until the owning transaction commits
type TransactionalPublisher struct {
	realPublisher interfaces.EventPublisher
	pending       []events.Event
}

// NewTransactionalPublisher creates a new transactional publisher
func NewTransactionalPublisher(realPublisher interfaces.EventPublisher) *TransactionalPublisher {
	return &TransactionalPublisher{
		realPublisher: realPublisher,
		pending:       make([]events.Event, 0),
	}
}

// Publish queues an event
func (p *TransactionalPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	return nil
}

// Flush publishes all pending events in the order they were queued.
// Call after a successful commit.
func (p *TransactionalPublisher) Flush(_ context.Context) error {
	log.WithField("pendingEventCount", len(p.pending)).Debug("Flushing pending events")

	for _, event := range p.pending {
		if err := p.realPublisher.Publish(event); err != nil {
			// Partial failure must not block the remaining events
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}

	p.pending = p.pending[:0]
	return nil
}

// Discard drops all pending events. Call on rollback.
func (p *TransactionalPublisher) Discard() {
	if len(p.pending) > 0 {
		log.WithField("discardedEventCount", len(p.pending)).Debug("Discarding pending events")
	}
	p.pending = p.pending[:0]
}

// Pending returns the number of queued events
func (p *TransactionalPublisher) Pending() int {
	return len(p.pending)
}
