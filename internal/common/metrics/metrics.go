// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usahud_notifications_total",
			Help: "Notifications attempted by event, channel and outcome",
		},
		[]string{"event", "channel", "status"},
	)

	CommunicationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usahud_communications_total",
			Help: "Broker messages sent per channel and outcome",
		},
		[]string{"channel", "status"},
	)

	WorkflowStepsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usahud_workflow_steps_total",
			Help: "Workflow steps executed by action and outcome",
		},
		[]string{"action", "status"},
	)

	WorkflowSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "usahud_workflow_sweeps_total",
			Help: "Scheduled workflow sweeps run",
		},
	)

	PropertyMatchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "usahud_property_match_results",
			Help:    "Number of properties passing the match filter",
			Buckets: []float64{0, 1, 5, 10, 20},
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usahud_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "usahud_http_request_duration_seconds",
			Help: "HTTP request latency",
		},
		[]string{"method", "route"},
	)
)
