// Package metrics exposes prometheus instruments for the pool
// coordination protocol. Conflict and exhaustion counts are the main
// signals of contention collapse; release failures indicate pods stuck
// busy with no holder (there is no reclaim mechanism, an external
// relabeling job has to act on this).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pool groups the instruments updated by the pool coordinator.
type Pool struct {
	AcquireTotal     prometheus.Counter
	AcquireConflicts prometheus.Counter
	AcquireExhausted prometheus.Counter
	AcquireEmpty     prometheus.Counter
	AcquireDuration  prometheus.Histogram
	ReleaseFailures  prometheus.Counter
}

// NewPool registers the pool instruments with reg.
func NewPool(reg prometheus.Registerer) *Pool {
	return &Pool{
		AcquireTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "facegate_pool_acquire_total",
			Help: "Successful pod acquisitions.",
		}),
		AcquireConflicts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "facegate_pool_acquire_conflicts_total",
			Help: "Label patches lost to a concurrent acquirer.",
		}),
		AcquireExhausted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "facegate_pool_acquire_exhausted_total",
			Help: "Acquire calls that gave up after the attempt budget.",
		}),
		AcquireEmpty: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "facegate_pool_acquire_empty_total",
			Help: "Acquire calls that found no ready pods at all.",
		}),
		AcquireDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "facegate_pool_acquire_duration_seconds",
			Help:    "Wall time of acquire calls, successful or not.",
			Buckets: prometheus.DefBuckets,
		}),
		ReleaseFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "facegate_pool_release_failures_total",
			Help: "Release attempts that failed and left a pod busy.",
		}),
	}
}
