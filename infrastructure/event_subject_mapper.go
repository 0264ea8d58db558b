package infrastructure

import (
	"fmt"

	"lotto/domain/events"
)

const (
	SubjectDrawCreated    = "lottery.draws.created"
	SubjectBetSettled     = "lottery.bets.settled"
	SubjectBetPlaced      = "lottery.bets.placed"
	SubjectBetCancelled   = "lottery.bets.cancelled"
	SubjectBalanceChanged = "lottery.players.balance_changed"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeDraw:
		return SubjectDrawCreated
	case events.EventTypeSettlementResult:
		return SubjectBetSettled
	case events.EventTypeBetPlaced:
		return SubjectBetPlaced
	case events.EventTypeBetCancelled:
		return SubjectBetCancelled
	case events.EventTypeBalanceChange:
		return SubjectBalanceChanged
	default:
		return fmt.Sprintf("lottery.unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectDrawCreated:
		return events.EventTypeDraw
	case SubjectBetSettled:
		return events.EventTypeSettlementResult
	case SubjectBetPlaced:
		return events.EventTypeBetPlaced
	case SubjectBetCancelled:
		return events.EventTypeBetCancelled
	case SubjectBalanceChanged:
		return events.EventTypeBalanceChange
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectDrawCreated,
		SubjectBetSettled,
		SubjectBetPlaced,
		SubjectBetCancelled,
		SubjectBalanceChanged,
	}
}
