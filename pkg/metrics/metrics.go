package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions counts document visibility resolutions by action (view|download)
	// and outcome (allow|deny).
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealroom_access_decisions_total",
			Help: "Total number of document access decisions",
		},
		[]string{"action", "result"},
	)

	// NDATransitions counts NDA state machine transitions by target status.
	NDATransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealroom_nda_transitions_total",
			Help: "Total number of NDA lifecycle transitions",
		},
		[]string{"target"},
	)

	// ReadinessRecomputes counts readiness score recomputations.
	ReadinessRecomputes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealroom_readiness_recomputes_total",
			Help: "Total number of readiness score recomputations",
		},
	)

	// AuditWriteFailures counts audit log writes that could not be persisted.
	// Audit failures never propagate to callers, so this is the only signal.
	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealroom_audit_write_failures_total",
			Help: "Total number of failed audit log writes",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealroom_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
