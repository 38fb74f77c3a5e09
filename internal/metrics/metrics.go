package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and histograms for the ingestion path, partitioned by chain.

var (
	// Dispatcher
	DispatcherEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "dispatcher",
		Name:      "events_total",
		Help:      "Total change notifications consumed, by outcome",
	}, []string{"outcome"})

	// Ingester
	IngestRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "ingest",
		Name:      "runs_total",
		Help:      "Total per-address ingestion runs, by status",
	}, []string{"chain", "status"})

	IngestBalancesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "ingest",
		Name:      "balances_written_total",
		Help:      "Total balance records inserted",
	}, []string{"chain"})

	IngestTxSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "ingest",
		Name:      "transactions_skipped_total",
		Help:      "Total transactions skipped after per-transaction failures",
	}, []string{"chain", "reason"})

	IngestNonParticipant = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "ingest",
		Name:      "non_participant_total",
		Help:      "Total extractions where the address was absent from the account list",
	}, []string{"chain"})

	IngestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "indexer",
		Subsystem: "ingest",
		Name:      "run_duration_seconds",
		Help:      "Per-address ingestion duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"chain"})

	// Paginator
	PaginatorPagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "paginator",
		Name:      "pages_fetched_total",
		Help:      "Total signature pages fetched",
	}, []string{"chain"})

	// RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total chain RPC calls, by method and status class",
	}, []string{"chain", "method", "status"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Total RPC calls delayed by the client-side rate limiter",
	}, []string{"chain"})

	RPCCircuitOpen = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "rpc",
		Name:      "circuit_open_total",
		Help:      "Total RPC calls rejected by an open circuit breaker",
	}, []string{"chain"})

	TxCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "rpc",
		Name:      "tx_cache_hits_total",
		Help:      "Transaction detail cache hits",
	}, []string{"chain"})

	TxCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "rpc",
		Name:      "tx_cache_misses_total",
		Help:      "Transaction detail cache misses",
	}, []string{"chain"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Total alerts delivered, by channel and type",
	}, []string{"channel", "type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "alerts",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts suppressed by cooldown, by channel and type",
	}, []string{"channel", "type"})
)
