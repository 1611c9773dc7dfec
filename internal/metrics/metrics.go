// Package metrics exposes Prometheus instrumentation for the indexer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPC metrics
	rpcRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starkscope_rpc_requests_total",
			Help: "Total number of Starknet RPC requests by method",
		},
		[]string{"method"},
	)

	rpcErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starkscope_rpc_errors_total",
			Help: "Total number of Starknet RPC errors by method",
		},
		[]string{"method"},
	)

	rpcDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starkscope_rpc_request_duration_seconds",
			Help:    "Duration of Starknet RPC requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Indexing metrics
	LastIndexedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "starkscope_last_indexed_block",
			Help: "The last block number successfully indexed",
		},
		[]string{"indexer"},
	)

	blocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starkscope_blocks_processed_total",
			Help: "Total number of blocks processed, by outcome",
		},
		[]string{"indexer", "outcome"},
	)

	eventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starkscope_events_processed_total",
			Help: "Total number of emitted events processed, by kind",
		},
		[]string{"kind"},
	)

	eventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starkscope_events_skipped_total",
			Help: "Total number of emitted events skipped, by reason",
		},
		[]string{"reason"},
	)

	handlerDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starkscope_handler_notifications_dropped_total",
			Help: "Observer notifications dropped because the handler queue was full",
		},
	)
)

func RPCMethodInc(method string) {
	rpcRequests.WithLabelValues(method).Inc()
}

func RPCMethodError(method string) {
	rpcErrors.WithLabelValues(method).Inc()
}

func RPCMethodDuration(method string, duration time.Duration) {
	rpcDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// BlockProcessed records a block outcome ("indexed", "skipped", "failed").
func BlockProcessed(indexer, outcome string) {
	blocksProcessed.WithLabelValues(indexer, outcome).Inc()
}

func EventProcessed(kind string) {
	eventsProcessed.WithLabelValues(kind).Inc()
}

func EventSkipped(reason string) {
	eventsSkipped.WithLabelValues(reason).Inc()
}

func HandlerDropped() {
	handlerDropped.Inc()
}
