// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsRequested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_requested_total",
			Help: "Total number of notification requests by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ChannelDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channel_deliveries_total",
			Help: "Channel attempts by channel and status (sent, skipped, failed)",
		},
		[]string{"channel", "status"},
	)

	ChannelDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_channel_delivery_duration_seconds",
			Help:    "Duration of a single channel task in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	TemplateCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_cache_lookups_total",
			Help: "Template cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	IngressMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_messages_total",
			Help: "Stream messages consumed by outcome (dispatched, rejected, failed)",
		},
		[]string{"outcome"},
	)
)
