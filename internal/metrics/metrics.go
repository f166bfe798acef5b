package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for ReqWing
type Metrics struct {
	// Workflow metrics
	StepDuration  *prometheus.HistogramVec
	StepsTotal    *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec

	// Portfolio metrics
	Projects         prometheus.Gauge
	Requirements     prometheus.Gauge
	PriorityBuckets  *prometheus.GaugeVec
	ActiveSessions   prometheus.Gauge
	DocumentsWritten prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			StepDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "reqwing_step_duration_seconds",
					Help:    "Duration of transformation steps in seconds",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to 51s
				},
				[]string{"step"},
			),
			StepsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reqwing_steps_total",
					Help: "Total number of transformation step calls",
				},
				[]string{"step", "success"},
			),
			Transitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reqwing_stage_transitions_total",
					Help: "Total number of committed stage transitions",
				},
				[]string{"from_stage", "to_stage"},
			),
			StageDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "reqwing_finalize_stage_duration_seconds",
					Help:    "Duration of finalize pipeline stages in seconds",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
				},
				[]string{"stage"},
			),
			StageErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reqwing_finalize_stage_errors_total",
					Help: "Total number of failed finalize pipeline stages",
				},
				[]string{"stage"},
			),

			Projects: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "reqwing_projects",
				Help: "Number of saved projects in the last computed dashboard",
			}),
			Requirements: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "reqwing_requirements",
				Help: "Number of requirements in the last computed dashboard",
			}),
			PriorityBuckets: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "reqwing_requirements_by_priority",
					Help: "Requirements per priority bucket in the last computed dashboard",
				},
				[]string{"priority"},
			),
			ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "reqwing_sessions_active",
				Help: "Number of live sessions",
			}),
			DocumentsWritten: promauto.NewCounter(prometheus.CounterOpts{
				Name: "reqwing_documents_exported_total",
				Help: "Total number of requirement documents exported",
			}),

			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reqwing_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "reqwing_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})
	return sharedMetrics
}

// StepDone records a transformation step call.
func (m *Metrics) StepDone(step string, d time.Duration, err error) {
	m.StepDuration.WithLabelValues(step).Observe(d.Seconds())
	m.StepsTotal.WithLabelValues(step, strconv.FormatBool(err == nil)).Inc()
}

// Transitioned records a committed stage transition.
func (m *Metrics) Transitioned(from, to project.Stage) {
	m.Transitions.WithLabelValues(string(from), string(to)).Inc()
}

// StageDone records one finalize pipeline stage.
func (m *Metrics) StageDone(stage string, d time.Duration, err error) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.StageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordDashboard publishes the latest dashboard aggregate.
func (m *Metrics) RecordDashboard(stats dashboard.Stats) {
	m.Projects.Set(float64(stats.TotalProjects))
	m.Requirements.Set(float64(stats.TotalRequirements))
	for _, p := range dashboard.Priorities {
		m.PriorityBuckets.WithLabelValues(string(p)).Set(float64(stats.Count(p)))
	}
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
