package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"lotto/application"
	"lotto/config"
	"lotto/database"
	"lotto/domain/services"
	"lotto/infrastructure"
	"lotto/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured level and format to logrus
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// Run wires the lottery service and blocks until ctx is cancelled or the
// round scheduler reports a fault
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting lotto...")

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	log.Info("Running database migrations...")
	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	broadcaster := infrastructure.NewBroadcaster(metrics)
	var consumers sync.WaitGroup

	metricsSub, err := broadcaster.Subscribe("metrics", cfg.SubscriberBuffer)
	if err != nil {
		return fmt.Errorf("failed to subscribe metrics: %w", err)
	}
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		metricsSub.Consume(context.Background(), metrics.ObserveEvent)
	}()

	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient, err = startNATSForwarder(ctx, cfg, broadcaster, metrics, &consumers)
		if err != nil {
			return err
		}
	} else {
		log.Info("NATS_SERVERS not set, event forwarding disabled")
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, broadcaster)

	ledger := services.NewBetLedger(uowFactory)
	settlement := services.NewSettlementService(uowFactory)
	queries := services.NewQueryService(uowFactory)

	scheduler := application.NewRoundScheduler(
		uowFactory,
		services.NewRandomDrawGenerator(),
		ledger,
		settlement,
		cfg.DrawInterval,
		metrics,
	)
	stopScheduler := scheduler.Start(ctx)

	hub := infrastructure.NewWebsocketHub(broadcaster, cfg.AllowedOrigins, cfg.SubscriberBuffer)
	httpServer := infrastructure.NewHTTPServer(cfg.HTTPAddr, hub, scheduler, queries)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down lotto...")
	case fault := <-scheduler.Faults():
		runErr = fmt.Errorf("round scheduler fault: %w", fault)
		log.WithError(fault).Error("Stopping after scheduler fault")
	case err := <-serveErr:
		if err != nil {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	log.Info("Waiting for in-flight round to finish...")
	stopScheduler()

	broadcaster.Close()
	consumers.Wait()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}

	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics provider")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return runErr
}

func startNATSForwarder(
	ctx context.Context,
	cfg *config.Config,
	broadcaster *infrastructure.Broadcaster,
	metrics *observability.MetricsProvider,
	consumers *sync.WaitGroup,
) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(cfg.NATSServers)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureLotteryEventStream(mapper.GetAllSubjects()); err != nil {
		client.Close()
		return nil, err
	}

	sub, err := broadcaster.Subscribe("nats", cfg.SubscriberBuffer)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to subscribe NATS forwarder: %w", err)
	}

	publisher := infrastructure.NewNATSEventPublisher(client, mapper, metrics)
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		publisher.Forward(context.Background(), sub)
	}()

	log.WithField("stream", infrastructure.LotteryEventStream).Info("Forwarding lottery events to NATS")
	return client, nil
}
