package observability

// Metric name prefixes
const (
	MetricPrefix = "lottery"
)

// Metric names
const (
	// Round metrics
	RoundsTotal          = MetricPrefix + ".rounds_total"
	RoundDuration        = MetricPrefix + ".round_duration"
	SchedulerFaultsTotal = MetricPrefix + ".scheduler_faults_total"

	// Bet metrics
	BetsPlacedTotal          = MetricPrefix + ".bets_placed_total"
	BetsCancelledTotal       = MetricPrefix + ".bets_cancelled_total"
	BetsSettledTotal         = MetricPrefix + ".bets_settled_total"
	SettlementAnomaliesTotal = MetricPrefix + ".settlement_anomalies_total"
	SettlementFailuresTotal  = MetricPrefix + ".settlement_failures_total"
	PayoutPointsTotal        = MetricPrefix + ".payout_points_total"

	// Broadcast metrics
	BroadcastDroppedTotal = MetricPrefix + ".broadcast_dropped_total"
	EventsPublishedTotal  = MetricPrefix + ".events_published_total"
)

// Label keys
const (
	LabelEventType  = "event_type"
	LabelSubscriber = "subscriber"
	LabelReplaced   = "replaced"
	LabelSink       = "sink"
)
