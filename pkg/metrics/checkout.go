package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	OutcomeCommitted   = "committed"
	OutcomeRolledBack  = "rolled_back"
	OutcomeRejected    = "rejected"
	OutcomeClearFailed = "cart_clear_failed"
)

// CheckoutMetrics records saga step latency and checkout outcomes.
type CheckoutMetrics struct {
	stepDuration *prometheus.HistogramVec
	stepFailure  *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	stepDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_step_duration_seconds",
		Help:    "Duration of checkout saga steps in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
	stepFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_step_failures_total",
		Help: "Failed checkout saga steps.",
	}, []string{"step"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(stepDuration, stepFailure, outcomes)
	return &CheckoutMetrics{
		stepDuration: stepDuration,
		stepFailure:  stepFailure,
		outcomes:     outcomes,
	}
}

// ObserveStep records one saga step execution.
func (c *CheckoutMetrics) ObserveStep(step string, duration time.Duration, err error) {
	if c == nil || c.stepDuration == nil {
		return
	}
	label := normalizeLabel(step)
	c.stepDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		c.stepFailure.WithLabelValues(label).Inc()
	}
}

// IncOutcome counts a finished checkout attempt.
func (c *CheckoutMetrics) IncOutcome(outcome string) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
