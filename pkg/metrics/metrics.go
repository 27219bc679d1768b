package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Paging job metrics
	JobsProcessed  *prometheus.CounterVec
	JobsSkipped    *prometheus.CounterVec
	JobsFailed     prometheus.Counter
	JobsRequeued   prometheus.Counter
	JobDuration    prometheus.Histogram
	QueueDepth     prometheus.Gauge
	StepsEnqueued  *prometheus.CounterVec
	DispatchTotal  *prometheus.CounterVec
	AttemptsStored prometheus.Counter
}

// New creates and registers all application metrics under the namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Total number of paging jobs executed, by outcome",
		}, []string{"outcome"}),
		JobsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_skipped_total",
			Help:      "Total number of paging jobs skipped, by reason",
		}, []string{"reason"}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of paging jobs that exhausted their deliveries",
		}),
		JobsRequeued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_requeued_total",
			Help:      "Total number of paging jobs requeued after an infrastructure failure",
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time spent executing paging jobs",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Current number of scheduled paging jobs",
		}),
		StepsEnqueued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_enqueued_total",
			Help:      "Total number of step enqueues, by kind (trigger, repeat, next)",
		}, []string{"kind"}),
		DispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_dispatch_total",
			Help:      "Total number of channel dispatches, by channel and status",
		}, []string{"channel", "status"}),
		AttemptsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_stored_total",
			Help:      "Total number of paging attempt records persisted",
		}),
	}
}
