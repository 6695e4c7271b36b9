// Package metrics exposes prometheus collectors for the checkout service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout outcomes. A nil *CheckoutMetrics is valid
// and records nothing.
type CheckoutMetrics struct {
	submissions *prometheus.CounterVec
	clamps      *prometheus.CounterVec
	degraded    *prometheus.CounterVec
	sessions    prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	clamps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_redemption_clamps_total",
		Help: "Redemption requests adjusted to the allowed maximum.",
	}, []string{"reason"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_degraded_fetches_total",
		Help: "Collaborator fetches that failed and fell back to a default.",
	}, []string{"collaborator"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_open_sessions",
		Help: "Checkout sessions currently open.",
	})
	reg.MustRegister(submissions, clamps, degraded, sessions)
	return &CheckoutMetrics{
		submissions: submissions,
		clamps:      clamps,
		degraded:    degraded,
		sessions:    sessions,
	}
}

// IncSubmission counts a submission with outcome "succeeded" or an error
// category.
func (m *CheckoutMetrics) IncSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRedemptionClamp counts an automatic redemption adjustment.
func (m *CheckoutMetrics) IncRedemptionClamp(reason string) {
	if m == nil || m.clamps == nil {
		return
	}
	m.clamps.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncDegradedFetch counts a failed fetch that degraded to a default value.
func (m *CheckoutMetrics) IncDegradedFetch(collaborator string) {
	if m == nil || m.degraded == nil {
		return
	}
	m.degraded.WithLabelValues(normalizeLabel(collaborator)).Inc()
}

// SessionOpened increments the open session gauge.
func (m *CheckoutMetrics) SessionOpened() {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Inc()
}

// SessionClosed decrements the open session gauge.
func (m *CheckoutMetrics) SessionClosed() {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Dec()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
