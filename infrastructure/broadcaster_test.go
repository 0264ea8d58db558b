package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"lotto/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dropCounter struct {
	mu    sync.Mutex
	drops map[string]int
}

func (d *dropCounter) RecordBroadcastDropped(subscriber string, _ events.EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drops == nil {
		d.drops = make(map[string]int)
	}
	d.drops[subscriber]++
}

func TestBroadcaster_DeliversInEmissionOrder(t *testing.T) {
	b := NewBroadcaster(nil)

	first, err := b.Subscribe("first", 8)
	require.NoError(t, err)
	second, err := b.Subscribe("second", 8)
	require.NoError(t, err)

	published := []events.Event{
		events.DrawEvent{DrawID: 1, Numbers: []int64{1, 2, 3, 4, 5}},
		events.SettlementResultEvent{PlayerID: 10, DrawID: 1, BetID: 100},
		events.SettlementResultEvent{PlayerID: 11, DrawID: 1, BetID: 101},
	}
	for _, e := range published {
		require.NoError(t, b.Publish(e))
	}

	for _, sub := range []*Subscription{first, second} {
		for _, want := range published {
			select {
			case got := <-sub.Events():
				assert.Equal(t, want, got, sub.Name())
			case <-time.After(time.Second):
				t.Fatalf("%s: timed out waiting for %s", sub.Name(), want.Type())
			}
		}
	}
}

func TestBroadcaster_FullQueueDropsWithoutBlocking(t *testing.T) {
	drops := &dropCounter{}
	b := NewBroadcaster(drops)

	slow, err := b.Subscribe("slow", 1)
	require.NoError(t, err)
	fast, err := b.Subscribe("fast", 4)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := int64(1); i <= 3; i++ {
			_ = b.Publish(events.DrawEvent{DrawID: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, uint64(2), slow.Dropped())
	assert.Equal(t, uint64(0), fast.Dropped())
	assert.Equal(t, 2, drops.drops["slow"])
	assert.Len(t, fast.Events(), 3)

	got := <-slow.Events()
	assert.Equal(t, int64(1), got.(events.DrawEvent).DrawID)
}

func TestBroadcaster_SubscriptionClose(t *testing.T) {
	b := NewBroadcaster(nil)

	sub, err := b.Subscribe("client", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, b.SubscriberCount())

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, b.SubscriberCount())
	_, ok := <-sub.Events()
	assert.False(t, ok)

	require.NoError(t, b.Publish(events.DrawEvent{DrawID: 1}))
}

func TestBroadcaster_CloseEndsSubscriptions(t *testing.T) {
	b := NewBroadcaster(nil)

	sub, err := b.Subscribe("client", 4)
	require.NoError(t, err)

	b.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.NoError(t, b.Publish(events.DrawEvent{DrawID: 1}))

	_, err = b.Subscribe("late", 4)
	assert.Error(t, err)

	// closing a subscription after the broadcaster is closed is harmless
	sub.Close()
}

func TestSubscription_Consume(t *testing.T) {
	b := NewBroadcaster(nil)
	sub, err := b.Subscribe("consumer", 8)
	require.NoError(t, err)

	var got []int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.Consume(context.Background(), func(_ context.Context, e events.Event) error {
			got = append(got, e.(events.DrawEvent).DrawID)
			if len(got) == 2 {
				return assert.AnError
			}
			return nil
		})
	}()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, b.Publish(events.DrawEvent{DrawID: i}))
	}
	require.Eventually(t, func() bool { return len(sub.Events()) == 0 }, time.Second, 5*time.Millisecond)

	sub.Close()
	<-done

	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestSubscription_ConsumeStopsOnContext(t *testing.T) {
	b := NewBroadcaster(nil)
	sub, err := b.Subscribe("consumer", 8)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.Consume(ctx, func(context.Context, events.Event) error { return nil })
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}

func TestSubscription_ConsumeSurvivesPanics(t *testing.T) {
	b := NewBroadcaster(nil)
	sub, err := b.Subscribe("consumer", 8)
	require.NoError(t, err)

	var handled []int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.Consume(context.Background(), func(_ context.Context, e events.Event) error {
			id := e.(events.DrawEvent).DrawID
			if id == 1 {
				panic("boom")
			}
			handled = append(handled, id)
			return nil
		})
	}()

	require.NoError(t, b.Publish(events.DrawEvent{DrawID: 1}))
	require.NoError(t, b.Publish(events.DrawEvent{DrawID: 2}))
	sub.Close()
	<-done

	assert.Equal(t, []int64{2}, handled)
}
