// Package metrics provides Prometheus-based metrics recording and querying
// for the reply bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcome labels.
const (
	OutcomeReplied   = "replied"
	OutcomeRetracted = "retracted"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeIgnored   = "ignored"
)

// Recorder records pipeline and backend metrics to Prometheus.
type Recorder struct {
	eventsTotal        *prometheus.CounterVec
	generationAttempts *prometheus.CounterVec
	generationFallback prometheus.Counter
	requestsTotal      *prometheus.CounterVec
	tokensTotal        *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// NewRecorder creates a Prometheus-backed recorder registered on reg.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh registry
// to avoid duplicate registration.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replybot_events_total",
				Help: "Total feedback events by message type and outcome",
			},
			[]string{"message_type", "outcome"},
		),
		generationAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replybot_generation_attempts_total",
				Help: "Generation attempts by result (ok, too_short, backend_error)",
			},
			[]string{"result"},
		),
		generationFallback: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "replybot_generation_fallback_total",
				Help: "Times the fixed fallback reply was used after exhausting attempts",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by model, status, and error type",
			},
			[]string{"model", "status", "error_type"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in LLM requests",
			},
			[]string{"model", "type"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
	}
}

// ObserveEvent records the final outcome of one inbound event.
func (r *Recorder) ObserveEvent(messageType, outcome string) {
	r.eventsTotal.WithLabelValues(messageType, outcome).Inc()
}

// ObserveAttempt records one generation attempt result.
func (r *Recorder) ObserveAttempt(result string) {
	r.generationAttempts.WithLabelValues(result).Inc()
}

// ObserveFallback records use of the fallback reply.
func (r *Recorder) ObserveFallback() {
	r.generationFallback.Inc()
}

// ObserveRequest records metrics for a completed LLM request.
func (r *Recorder) ObserveRequest(model string, promptTokens, completionTokens int, success bool, errorType string, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	r.requestsTotal.WithLabelValues(model, status, errorType).Inc()

	if success {
		r.tokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
		r.tokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	r.requestDuration.WithLabelValues(model).Observe(duration.Seconds())
}
