package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement counters, partitioned by network so several deployments can
// share one prometheus.

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "settler",
		Name:      "runs_total",
		Help:      "Total settlement runs by result (ok, skipped, error)",
	}, []string{"network", "result"})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bridge",
		Subsystem: "settler",
		Name:      "run_duration_seconds",
		Help:      "Settlement run duration",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"network"})

	PendingRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "settler",
		Name:      "pending_requests",
		Help:      "Pending bridge requests found by the last run",
	}, []string{"network"})

	RequestOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "settler",
		Name:      "request_outcomes_total",
		Help:      "Bridge request outcomes (settled, failed, deferred, skipped)",
	}, []string{"network", "outcome"})

	RecoveredAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "settler",
		Name:      "recovered_attempts_total",
		Help:      "Transfers found on chain for an unrecorded attempt, by source (status, memo)",
	}, []string{"network", "source"})

	RetryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "settler",
		Name:      "retry_attempts_total",
		Help:      "Retries after a transient error, by operation",
	}, []string{"operation"})

	// Solana RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total Solana RPC calls by method and status",
	}, []string{"method", "status"})

	RPCRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "RPC calls delayed by the local rate limiter",
	})
)
