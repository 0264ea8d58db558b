package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lotto/domain/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const sourceService = "lotto"

// EventEnvelope wraps every event published to NATS
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// MessagePublisher sends raw bytes to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// PublishRecorder is notified after an event leaves the process
type PublishRecorder interface {
	RecordEventPublished(sink string, eventType events.EventType)
}

// NATSEventPublisher forwards broadcast events to NATS subjects
type NATSEventPublisher struct {
	client        MessagePublisher
	subjectMapper *EventSubjectMapper
	recorder      PublishRecorder
	timeout       time.Duration
}

// NewNATSEventPublisher creates a new NATS event publisher. recorder may be nil.
func NewNATSEventPublisher(client MessagePublisher, subjectMapper *EventSubjectMapper, recorder PublishRecorder) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		recorder:      recorder,
		timeout:       5 * time.Second,
	}
}

// NewEventEnvelope wraps event in an envelope with a fresh id
func NewEventEnvelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}, nil
}

// PublishEvent publishes one event to its subject
func (p *NATSEventPublisher) PublishEvent(ctx context.Context, event events.Event) error {
	subject := p.subjectMapper.MapEventToSubject(event)

	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.Publish(publishCtx, subject, data); err != nil {
		// Stream not provisioned; the event is best effort
		if errors.Is(err, nats.ErrNoStreamResponse) || errors.Is(err, nats.ErrNoResponders) {
			log.WithField("subject", subject).Debug("No JetStream responders for subject")
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if p.recorder != nil {
		p.recorder.RecordEventPublished("nats", event.Type())
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Published event to NATS")
	return nil
}

// Forward publishes every event from sub until ctx is done or sub closes
func (p *NATSEventPublisher) Forward(ctx context.Context, sub *Subscription) {
	sub.Consume(ctx, p.PublishEvent)
}
