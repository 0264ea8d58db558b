package infrastructure

import (
	"context"
	"testing"

	"lotto/domain/events"
	"lotto/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransactionalPublisher_FlushInOrder(t *testing.T) {
	sink := new(testhelpers.MockEventPublisher)
	draw := events.DrawEvent{DrawID: 1}
	result := events.SettlementResultEvent{PlayerID: 2, DrawID: 1}

	var order []events.EventType
	sink.On("Publish", mock.Anything).Run(func(args mock.Arguments) {
		order = append(order, args.Get(0).(events.Event).Type())
	}).Return(nil)

	p := NewTransactionalPublisher(sink)
	require.NoError(t, p.Publish(draw))
	require.NoError(t, p.Publish(result))

	sink.AssertNotCalled(t, "Publish", mock.Anything)
	assert.Equal(t, 2, p.Pending())

	require.NoError(t, p.Flush(context.Background()))

	assert.Equal(t, []events.EventType{events.EventTypeDraw, events.EventTypeSettlementResult}, order)
	assert.Equal(t, 0, p.Pending())
}

func TestTransactionalPublisher_Discard(t *testing.T) {
	sink := new(testhelpers.MockEventPublisher)

	p := NewTransactionalPublisher(sink)
	require.NoError(t, p.Publish(events.BetPlacedEvent{PlayerID: 1}))

	p.Discard()
	require.NoError(t, p.Flush(context.Background()))

	sink.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestTransactionalPublisher_FlushContinuesAfterError(t *testing.T) {
	sink := new(testhelpers.MockEventPublisher)
	failing := events.BetPlacedEvent{PlayerID: 1}
	ok := events.BetCancelledEvent{PlayerID: 1}
	sink.On("Publish", failing).Return(assert.AnError).Once()
	sink.On("Publish", ok).Return(nil).Once()

	p := NewTransactionalPublisher(sink)
	require.NoError(t, p.Publish(failing))
	require.NoError(t, p.Publish(ok))

	require.NoError(t, p.Flush(context.Background()))

	sink.AssertExpectations(t)
}
