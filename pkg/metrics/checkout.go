package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records payment attempt transitions and order persistence.
type CheckoutMetrics struct {
	transitions  *prometheus.CounterVec
	verification *prometheus.HistogramVec
	persist      *prometheus.CounterVec
	sessions     prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transitions_total",
		Help: "Payment attempt transitions by resulting status and reason.",
	}, []string{"status", "reason"})
	verification := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_verification_seconds",
		Help:    "Latency of payment verification calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	persist := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_order_persist_total",
		Help: "Order persistence attempts after a verified payment.",
	}, []string{"result"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_sessions_active",
		Help: "Checkout sessions currently held in memory.",
	})
	reg.MustRegister(transitions, verification, persist, sessions)
	return &CheckoutMetrics{
		transitions:  transitions,
		verification: verification,
		persist:      persist,
		sessions:     sessions,
	}
}

// IncTransition counts an attempt entering status.
func (c *CheckoutMetrics) IncTransition(status, reason string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(status), normalizeReason(reason)).Inc()
}

// ObserveVerification records how long a verification call took.
func (c *CheckoutMetrics) ObserveVerification(result string, duration time.Duration) {
	if c == nil || c.verification == nil {
		return
	}
	c.verification.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

// IncPersist counts one order persistence try.
func (c *CheckoutMetrics) IncPersist(result string) {
	if c == nil || c.persist == nil {
		return
	}
	c.persist.WithLabelValues(normalizeLabel(result)).Inc()
}

// SetSessions reports the number of live sessions.
func (c *CheckoutMetrics) SetSessions(n int) {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func normalizeReason(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
