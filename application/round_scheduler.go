package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RoundState is the scheduler's position in the round cycle
type RoundState int32

const (
	RoundStateIdle RoundState = iota
	RoundStateSettling
)

func (s RoundState) String() string {
	switch s {
	case RoundStateIdle:
		return "idle"
	case RoundStateSettling:
		return "settling"
	default:
		return fmt.Sprintf("RoundState(%d)", int32(s))
	}
}

// RoundMetrics records round outcomes
type RoundMetrics interface {
	RecordRound(duration time.Duration, settled, anomalies, failed int, payout int64)
	RecordSchedulerFault()
}

// RoundScheduler runs a draw and a settlement pass once per interval. It is
// the only writer of draws. Ticks are fixed-rate: slot k fires at
// start + k*interval regardless of how long earlier ticks took.
type RoundScheduler struct {
	uowFactory interfaces.UnitOfWorkFactory
	generator  interfaces.DrawGenerator
	ledger     interfaces.BetLedger
	settlement interfaces.SettlementEngine
	interval   time.Duration
	metrics    RoundMetrics
	now        func() time.Time

	mu         sync.RWMutex
	state      RoundState
	anchor     time.Time
	nextDrawAt time.Time
	lastDrawAt time.Time

	faults chan error
}

// NewRoundScheduler creates a new round scheduler. metrics may be nil.
func NewRoundScheduler(
	uowFactory interfaces.UnitOfWorkFactory,
	generator interfaces.DrawGenerator,
	ledger interfaces.BetLedger,
	settlement interfaces.SettlementEngine,
	interval time.Duration,
	metrics RoundMetrics,
) *RoundScheduler {
	return &RoundScheduler{
		uowFactory: uowFactory,
		generator:  generator,
		ledger:     ledger,
		settlement: settlement,
		interval:   interval,
		metrics:    metrics,
		now:        time.Now,
		faults:     make(chan error, 1),
	}
}

// Faults delivers timer faults. A fault means a round did not happen on
// schedule; the owner is expected to stop the process.
func (s *RoundScheduler) Faults() <-chan error {
	return s.faults
}

// State returns the current round state
func (s *RoundScheduler) State() RoundState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// NextDrawAt returns when the next tick is due, zero before Start
func (s *RoundScheduler) NextDrawAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextDrawAt
}

// LastDrawAt returns the time of the latest draw, zero when none is known
func (s *RoundScheduler) LastDrawAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDrawAt
}

// TimeLeft returns the time until the next tick, never negative
func (s *RoundScheduler) TimeLeft() time.Duration {
	next := s.NextDrawAt()
	if next.IsZero() {
		return 0
	}
	left := next.Sub(s.now())
	if left < 0 {
		return 0
	}
	return left
}

// Start settles anything a previous run left behind and then ticks every
// interval. The returned function stops scheduling and blocks until an
// in-flight tick has finished.
func (s *RoundScheduler) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	done := make(chan struct{})

	anchor := s.now()
	s.mu.Lock()
	s.anchor = anchor
	s.nextDrawAt = anchor.Add(s.interval)
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		log.WithFields(log.Fields{
			"interval":   s.interval,
			"nextDrawAt": anchor.Add(s.interval).UTC(),
		}).Info("Round scheduler started")

		// Ticks run to completion even when ctx is cancelled mid-round
		tickCtx := context.WithoutCancel(ctx)

		if _, err := s.RecoverPendingSettlement(tickCtx); err != nil {
			log.WithError(err).Error("Failed to settle bets left from a previous run")
		}

		for {
			select {
			case <-ctx.Done():
				log.Info("Round scheduler shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Round scheduler shutting down (stop requested)...")
				return
			case fired := <-ticker.C:
				s.advance(fired)
				if _, err := s.RunTick(tickCtx); err != nil {
					if errors.Is(err, entities.ErrSchedulerTimerFault) {
						s.reportFault(err)
					} else {
						log.WithError(err).Error("Round failed")
					}
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopChan) })
		<-done
	}
}

// advance moves nextDrawAt to the first slot after fired and reports any
// slot the ticker skipped
func (s *RoundScheduler) advance(fired time.Time) {
	s.mu.Lock()
	expected := s.nextDrawAt
	slots := fired.Sub(s.anchor)/s.interval + 1
	s.nextDrawAt = s.anchor.Add(slots * s.interval)
	s.mu.Unlock()

	if late := fired.Sub(expected); late >= s.interval {
		s.reportFault(fmt.Errorf("%w: tick due at %s fired %s late", entities.ErrSchedulerTimerFault, expected.UTC(), late))
	}
}

func (s *RoundScheduler) reportFault(err error) {
	if s.metrics != nil {
		s.metrics.RecordSchedulerFault()
	}
	log.WithError(err).Error("Round scheduler fault")

	select {
	case s.faults <- err:
	default:
	}
}

func (s *RoundScheduler) setState(state RoundState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// RunTick runs one round: settle leftovers, draw, persist, snapshot and
// settle. Failing to produce or persist the draw is a timer fault.
func (s *RoundScheduler) RunTick(ctx context.Context) (*interfaces.SettlementReport, error) {
	s.setState(RoundStateSettling)
	defer s.setState(RoundStateIdle)

	start := s.now()

	// Bets an earlier failed pass left active belong to the draw they were placed before
	if _, err := s.RecoverPendingSettlement(ctx); err != nil {
		log.WithError(err).Error("Failed to settle bets left from an earlier round")
	}

	numbers, err := s.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate draw: %v", entities.ErrSchedulerTimerFault, err)
	}

	draw, err := s.persistDraw(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSchedulerTimerFault, err)
	}

	s.mu.Lock()
	s.lastDrawAt = draw.CreatedAt
	s.mu.Unlock()

	report, err := s.settleAgainst(ctx, draw)
	if err != nil {
		return nil, err
	}

	duration := s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.RecordRound(duration, report.Settled, report.Anomalies, report.Failed, report.TotalPayout)
	}

	log.WithFields(log.Fields{
		"drawID":      draw.ID,
		"numbers":     draw.Numbers,
		"settled":     report.Settled,
		"anomalies":   report.Anomalies,
		"failed":      report.Failed,
		"totalPayout": report.TotalPayout,
		"duration":    duration,
	}).Info("Round completed")

	return report, nil
}

// persistDraw stores the draw and queues its event. The event reaches
// subscribers on commit, ahead of every settlement result for this draw.
func (s *RoundScheduler) persistDraw(ctx context.Context, numbers []int64) (*entities.Draw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	draw, err := uow.DrawRepository().Create(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to persist draw: %w", err)
	}

	if err := uow.EventBus().Publish(events.DrawEvent{
		DrawID:  draw.ID,
		Numbers: draw.Numbers,
		Time:    draw.CreatedAt,
	}); err != nil {
		log.WithError(err).Error("Failed to publish draw event")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit draw: %w", err)
	}
	return draw, nil
}

func (s *RoundScheduler) settleAgainst(ctx context.Context, draw *entities.Draw) (*interfaces.SettlementReport, error) {
	snapshot, err := s.ledger.ActiveBetsForSettlement(ctx, draw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot active bets for draw %d: %w", draw.ID, err)
	}

	report, err := s.settlement.SettleDraw(ctx, draw, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to settle draw %d: %w", draw.ID, err)
	}
	return report, nil
}

// RecoverPendingSettlement settles active bets placed before the latest
// draw against that draw. Such bets exist only when a run stopped between
// persisting a draw and finishing its settlement pass, or when that pass
// failed part way.
func (s *RoundScheduler) RecoverPendingSettlement(ctx context.Context) (*interfaces.SettlementReport, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	draw, err := uow.DrawRepository().GetLatest(ctx)
	uow.Rollback()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest draw: %w", err)
	}
	if draw == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.lastDrawAt = draw.CreatedAt
	s.mu.Unlock()

	report, err := s.settleAgainst(ctx, draw)
	if err != nil {
		return nil, err
	}

	if report.Settled+report.Anomalies+report.Failed > 0 {
		log.WithFields(log.Fields{
			"drawID":    draw.ID,
			"settled":   report.Settled,
			"anomalies": report.Anomalies,
			"failed":    report.Failed,
		}).Warn("Settled bets left over from an interrupted round")
	}
	return report, nil
}
