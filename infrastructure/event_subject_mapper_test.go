package infrastructure

import (
	"testing"

	"lotto/domain/events"

	"github.com/stretchr/testify/assert"
)

func TestEventSubjectMapper(t *testing.T) {
	m := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.DrawEvent{}, "lottery.draws.created"},
		{events.SettlementResultEvent{}, "lottery.bets.settled"},
		{events.BetPlacedEvent{}, "lottery.bets.placed"},
		{events.BetCancelledEvent{}, "lottery.bets.cancelled"},
		{events.BalanceChangeEvent{}, "lottery.players.balance_changed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			subject := m.MapEventToSubject(tt.event)
			assert.Equal(t, tt.subject, subject)
			assert.Equal(t, tt.event.Type(), m.MapSubjectToEventType(subject))
			assert.Contains(t, m.GetAllSubjects(), subject)
		})
	}
}
