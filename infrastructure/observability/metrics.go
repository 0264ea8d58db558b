package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lotto/config"
	"lotto/domain/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the lottery service.
// Every Record method is a no-op until Initialize has created the instruments.
type MetricsProvider struct {
	config        *config.Config
	reader        sdkmetric.Reader
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	roundsCounter          metric.Int64Counter
	roundDurationHist      metric.Float64Histogram
	schedulerFaultsCounter metric.Int64Counter
	betsPlacedCounter      metric.Int64Counter
	betsCancelledCounter   metric.Int64Counter
	betsSettledCounter     metric.Int64Counter
	anomaliesCounter       metric.Int64Counter
	failuresCounter        metric.Int64Counter
	payoutCounter          metric.Int64Counter
	droppedCounter         metric.Int64Counter
	publishedCounter       metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// NewMetricsProviderWithReader creates a provider that exports through reader
// instead of the configured exporter
func NewMetricsProviderWithReader(cfg *config.Config, reader sdkmetric.Reader) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
		reader: reader,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	reader := mp.reader
	if reader == nil {
		var exporter sdkmetric.Exporter
		switch mp.config.OTelExporterType {
		case "console":
			exporter, err = stdoutmetric.New()
			if err != nil {
				return fmt.Errorf("failed to create console exporter: %w", err)
			}
			log.Info("Using console metric exporter")

		case "otlp":
			dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			exporter, err = otlpmetricgrpc.New(dialCtx,
				otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
				otlpmetricgrpc.WithInsecure(),
			)
			if err != nil {
				return fmt.Errorf("failed to create OTLP exporter: %w", err)
			}
			log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

		case "none":
			log.Info("Metrics export disabled (exporter_type='none')")
			mp.initialized = true
			return nil

		default:
			return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
		}

		reader = sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
		)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("lotto")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&mp.roundsCounter, RoundsTotal, "Total number of completed lottery rounds", "1"},
		{&mp.schedulerFaultsCounter, SchedulerFaultsTotal, "Total number of scheduler timer faults", "1"},
		{&mp.betsPlacedCounter, BetsPlacedTotal, "Total number of bets placed", "1"},
		{&mp.betsCancelledCounter, BetsCancelledTotal, "Total number of bets cancelled", "1"},
		{&mp.betsSettledCounter, BetsSettledTotal, "Total number of bets settled", "1"},
		{&mp.anomaliesCounter, SettlementAnomaliesTotal, "Bets found missing or already settled during settlement", "1"},
		{&mp.failuresCounter, SettlementFailuresTotal, "Bets whose settlement transaction failed", "1"},
		{&mp.payoutCounter, PayoutPointsTotal, "Total points paid out", "{point}"},
		{&mp.droppedCounter, BroadcastDroppedTotal, "Events dropped because a subscriber queue was full", "1"},
		{&mp.publishedCounter, EventsPublishedTotal, "Events delivered to an external sink", "1"},
	}

	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(
			c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}

	mp.roundDurationHist, err = mp.meter.Float64Histogram(
		RoundDuration,
		metric.WithDescription("Duration of a lottery round from draw to last settlement in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create round duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordRound records a finished round and its settlement counts
func (mp *MetricsProvider) RecordRound(duration time.Duration, settled, anomalies, failed int, payout int64) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	mp.roundsCounter.Add(ctx, 1)
	mp.roundDurationHist.Record(ctx, duration.Seconds())
	mp.betsSettledCounter.Add(ctx, int64(settled))
	mp.anomaliesCounter.Add(ctx, int64(anomalies))
	mp.failuresCounter.Add(ctx, int64(failed))
	mp.payoutCounter.Add(ctx, payout)
}

// RecordSchedulerFault counts a round that could not run on time
func (mp *MetricsProvider) RecordSchedulerFault() {
	if !mp.isEnabled() {
		return
	}
	mp.schedulerFaultsCounter.Add(context.Background(), 1)
}

// ObserveEvent counts ledger activity seen on the broadcast stream
func (mp *MetricsProvider) ObserveEvent(_ context.Context, event events.Event) error {
	if !mp.isEnabled() {
		return nil
	}

	switch e := event.(type) {
	case events.BetPlacedEvent:
		mp.betsPlacedCounter.Add(context.Background(), 1,
			metric.WithAttributes(attribute.Bool(LabelReplaced, e.Replaced)),
		)
	case events.BetCancelledEvent:
		mp.betsCancelledCounter.Add(context.Background(), 1)
	}
	return nil
}

// RecordBroadcastDropped counts an event dropped for a slow subscriber
func (mp *MetricsProvider) RecordBroadcastDropped(subscriber string, eventType events.EventType) {
	if !mp.isEnabled() {
		return
	}

	mp.droppedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelSubscriber, subscriber),
			attribute.String(LabelEventType, string(eventType)),
		),
	)
}

// RecordEventPublished counts an event delivered to an external sink such as NATS
func (mp *MetricsProvider) RecordEventPublished(sink string, eventType events.EventType) {
	if !mp.isEnabled() {
		return
	}

	mp.publishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelSink, sink),
			attribute.String(LabelEventType, string(eventType)),
		),
	)
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
