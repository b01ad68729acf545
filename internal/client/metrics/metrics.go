// Package metrics holds the Prometheus collectors of the engagement engine.
// Collectors are registered with the default registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты мутаций
const (
	ResultSuccess    = "success"
	ResultQueued     = "queued"
	ResultRejected   = "rejected"
	ResultExhausted  = "exhausted"
	ResultSuperseded = "superseded"
)

var (
	// MutationsTotal counts mutations by kind and final result
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forkful_mutations_total",
		Help: "Total engagement mutations by kind and result",
	}, []string{"kind", "result"})

	// MutationRetries counts replays performed by the retry scheduler
	MutationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forkful_mutation_retries_total",
		Help: "Total mutation replays by kind",
	}, []string{"kind"})

	// Rollbacks counts optimistic updates reverted, by reason
	Rollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forkful_rollbacks_total",
		Help: "Total optimistic rollbacks by kind and reason",
	}, []string{"kind", "reason"})

	// RealtimeEvents counts realtime deliveries by channel kind and result
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forkful_realtime_events_total",
		Help: "Total realtime events by channel and result",
	}, []string{"channel", "result"})

	// RemoteCallDuration tracks remote API latency
	RemoteCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forkful_remote_call_duration_seconds",
		Help:    "Remote API call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
	}, []string{"operation"})
)

// ObserveRemoteCall records the duration of a remote call started at start.
func ObserveRemoteCall(operation string, start time.Time) {
	RemoteCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
