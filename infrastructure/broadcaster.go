package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"lotto/domain/events"

	log "github.com/sirupsen/logrus"
)

// DropRecorder is notified when a subscriber misses an event
type DropRecorder interface {
	RecordBroadcastDropped(subscriber string, eventType events.EventType)
}

// Broadcaster fans events out to every subscriber. Each subscriber has its
// own bounded queue, so a slow or gone subscriber only loses its own events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	drops       DropRecorder
	closed      bool
}

// NewBroadcaster creates a broadcaster. drops may be nil.
func NewBroadcaster(drops DropRecorder) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[*Subscription]struct{}),
		drops:       drops,
	}
}

// Subscription is one subscriber's view of the event stream
type Subscription struct {
	name        string
	events      chan events.Event
	broadcaster *Broadcaster
	once        sync.Once
	dropped     atomic.Uint64
}

// Subscribe registers a new subscriber with a queue of buffer events
func (b *Broadcaster) Subscribe(name string, buffer int) (*Subscription, error) {
	if buffer < 1 {
		buffer = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broadcaster is closed")
	}

	sub := &Subscription{
		name:        name,
		events:      make(chan events.Event, buffer),
		broadcaster: b,
	}
	b.subscribers[sub] = struct{}{}

	log.WithFields(log.Fields{
		"subscriber":  name,
		"buffer":      buffer,
		"subscribers": len(b.subscribers),
	}).Debug("Subscriber added")

	return sub, nil
}

// Publish delivers event to every subscriber without blocking
func (b *Broadcaster) Publish(event events.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for sub := range b.subscribers {
		select {
		case sub.events <- event:
		default:
			sub.dropped.Add(1)
			log.WithFields(log.Fields{
				"subscriber": sub.name,
				"eventType":  event.Type(),
			}).Warn("Subscriber queue full, dropping event")
			if b.drops != nil {
				b.drops.RecordBroadcastDropped(sub.name, event.Type())
			}
		}
	}
	return nil
}

// SubscriberCount returns the number of live subscribers
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscription. Later publishes are ignored.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for sub := range b.subscribers {
		sub.once.Do(func() { close(sub.events) })
		delete(b.subscribers, sub)
	}
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	sub.once.Do(func() { close(sub.events) })
}

// Name returns the subscriber name
func (s *Subscription) Name() string {
	return s.name
}

// Events returns the subscriber's queue. It is closed when the subscription
// or the broadcaster is closed.
func (s *Subscription) Events() <-chan events.Event {
	return s.events
}

// Dropped returns how many events this subscriber missed
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unsubscribes
func (s *Subscription) Close() {
	s.broadcaster.remove(s)
}

// Consume calls handler for each event until ctx is done or the subscription
// closes. Handler errors and panics are logged and do not stop consumption.
func (s *Subscription) Consume(ctx context.Context, handler func(context.Context, events.Event) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.events:
			if !ok {
				return
			}
			s.handle(ctx, handler, event)
		}
	}
}

func (s *Subscription) handle(ctx context.Context, handler func(context.Context, events.Event) error, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"subscriber": s.name,
				"eventType":  event.Type(),
				"panic":      r,
			}).Error("Subscriber handler panicked")
		}
	}()

	if err := handler(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"subscriber": s.name,
			"eventType":  event.Type(),
			"error":      err,
		}).Error("Subscriber failed to handle event")
	}
}
