package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// LotteryEventStream is the JetStream stream carrying every lottery event
const LotteryEventStream = "lottery_events"

// NATSClient publishes to NATS with JetStream
type NATSClient struct {
	servers              string
	nc                   *nats.Conn
	js                   nats.JetStreamContext
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// NewNATSClient creates a new NATS client
func NewNATSClient(servers string) *NATSClient {
	return &NATSClient{
		servers:              servers,
		reconnectDelay:       2 * time.Second,
		maxReconnectAttempts: 10,
	}
}

// Connect establishes a connection to the NATS server with JetStream
func (c *NATSClient) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name("lotto"),
		nats.MaxReconnects(c.maxReconnectAttempts),
		nats.ReconnectWait(c.reconnectDelay),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			fields := log.Fields{"error": err}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			log.WithFields(fields).Error("NATS async error")
		}),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(c.servers, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.nc = nc
	c.js = js

	log.WithField("servers", c.servers).Info("Connected to NATS with JetStream")
	return nil
}

// Close drains and closes the NATS connection
func (c *NATSClient) Close() error {
	if c.nc == nil {
		return nil
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	log.Info("NATS connection closed")
	return nil
}

// IsConnected returns true if the client is connected to NATS
func (c *NATSClient) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// ensureStream creates the stream when it does not exist yet
func (c *NATSClient) ensureStream(streamName string, subjects []string) error {
	if c.js == nil {
		return fmt.Errorf("not connected to NATS JetStream")
	}

	if _, err := c.js.StreamInfo(streamName); err == nil {
		log.WithField("stream", streamName).Info("JetStream stream already exists")
		return nil
	}

	cfg := &nats.StreamConfig{
		Name:        streamName,
		Subjects:    subjects,
		Retention:   nats.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     1000000,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Description: "Lottery draws, bets and settlement results",
	}

	if _, err := c.js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}

	log.WithFields(log.Fields{
		"stream":   streamName,
		"subjects": subjects,
	}).Info("Created JetStream stream")
	return nil
}

// EnsureLotteryEventStream ensures the lottery_events stream covers subjects
func (c *NATSClient) EnsureLotteryEventStream(subjects []string) error {
	return c.ensureStream(LotteryEventStream, subjects)
}

// Publish publishes a message to the specified subject using JetStream
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	if c.js == nil {
		return fmt.Errorf("not connected to NATS JetStream")
	}

	if _, err := c.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"size":    len(data),
	}).Debug("Published message to NATS")
	return nil
}
