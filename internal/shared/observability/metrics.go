package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cproof_resolve_seconds",
		Help:    "Time spent resolving the include graph of an entry file.",
		Buckets: prometheus.DefBuckets,
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cproof_graph_nodes_total",
		Help: "Number of local files in the most recent dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cproof_graph_edges_total",
		Help: "Number of local include edges in the most recent dependency graph.",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cproof_stage_seconds",
		Help:    "Time spent in each pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cproof_runs_total",
		Help: "Total number of pipeline runs by terminal status.",
	}, []string{"status"})

	APICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cproof_api_calls_total",
		Help: "Total number of external service calls by outcome.",
	}, []string{"service", "outcome"})

	APICallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cproof_api_call_seconds",
		Help:    "Latency of external annotator/verifier calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})

	MergedUnitBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cproof_merged_unit_bytes",
		Help:    "Size of produced merged translation units.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 10),
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cproof_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
