package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics records email chain step outcomes.
type NotificationMetrics struct {
	steps    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	exhaust  *prometheus.CounterVec
}

// NewNotificationMetrics registers the notification metrics on the provided registerer.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_step_total",
		Help: "Email delivery step attempts by chain, step and result.",
	}, []string{"chain", "step", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_step_seconds",
		Help:    "Duration of email delivery steps.",
		Buckets: prometheus.DefBuckets,
	}, []string{"chain", "step"})
	exhaust := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_chain_exhausted_total",
		Help: "Chains where every delivery step failed.",
	}, []string{"chain"})
	reg.MustRegister(steps, duration, exhaust)
	return &NotificationMetrics{steps: steps, duration: duration, exhaust: exhaust}
}

// ObserveStep records one step attempt.
func (n *NotificationMetrics) ObserveStep(chain, step string, ok bool, d time.Duration) {
	if n == nil || n.steps == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	n.steps.WithLabelValues(normalizeLabel(chain), normalizeLabel(step), result).Inc()
	n.duration.WithLabelValues(normalizeLabel(chain), normalizeLabel(step)).Observe(d.Seconds())
}

// IncExhausted counts a chain that ran out of steps.
func (n *NotificationMetrics) IncExhausted(chain string) {
	if n == nil || n.exhaust == nil {
		return
	}
	n.exhaust.WithLabelValues(normalizeLabel(chain)).Inc()
}
