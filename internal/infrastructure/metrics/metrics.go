// Package metrics provides Prometheus metrics for the drive-thru service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts HTTP requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivethru_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPDuration tracks HTTP request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drivethru_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveSessions tracks the number of lanes with an open session.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivethru_active_sessions",
			Help: "Number of currently open lane sessions",
		},
	)

	// SessionsCreated tracks the total number of sessions created.
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drivethru_sessions_created_total",
			Help: "Total number of lane sessions created",
		},
	)

	// SessionsEnded tracks sessions ended by reason.
	SessionsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivethru_sessions_ended_total",
			Help: "Total number of lane sessions ended",
		},
		[]string{"reason"},
	)

	// Utterances counts processed utterances by classified intent.
	Utterances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivethru_utterances_total",
			Help: "Total number of utterances processed",
		},
		[]string{"intent"},
	)

	// WorkflowOutcomes counts workflow results.
	WorkflowOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivethru_workflow_outcomes_total",
			Help: "Workflow results by workflow type and outcome",
		},
		[]string{"workflow", "outcome"},
	)

	// StageDuration tracks pipeline stage latency.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drivethru_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"},
	)

	// TurnDuration tracks end-to-end utterance latency.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drivethru_turn_duration_seconds",
			Help:    "Duration from utterance received to response ready",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
	)

	// ContextResolutions counts context resolver verdicts.
	ContextResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivethru_context_resolutions_total",
			Help: "Context resolution results by status and whether the rewrite was used",
		},
		[]string{"status", "used"},
	)

	// LLMCalls counts calls to the language model by stage and result.
	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivethru_llm_calls_total",
			Help: "Language model calls by stage and result",
		},
		[]string{"stage", "result"},
	)

	// LLMDuration tracks language model latency by stage.
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drivethru_llm_duration_seconds",
			Help:    "Duration of language model calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"stage"},
	)

	// OrdersArchived counts archive attempts by result.
	OrdersArchived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivethru_orders_archived_total",
			Help: "Confirmed orders written to the archive",
		},
		[]string{"result"},
	)
)

// RecordRequest records one HTTP request.
func RecordRequest(method, endpoint, status string, duration float64) {
	HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	HTTPDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordSessionCreated increments session creation metrics.
func RecordSessionCreated() {
	SessionsCreated.Inc()
	ActiveSessions.Inc()
}

// RecordSessionEnded records a session ending for reason.
func RecordSessionEnded(reason string) {
	SessionsEnded.WithLabelValues(reason).Inc()
	ActiveSessions.Dec()
}

// RecordLLMCall records one language model call.
func RecordLLMCall(stage string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	LLMCalls.WithLabelValues(stage, result).Inc()
	LLMDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordArchive records an archive attempt.
func RecordArchive(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	OrdersArchived.WithLabelValues(result).Inc()
}
