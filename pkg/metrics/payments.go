package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records poll and reconciliation activity.
type PaymentMetrics struct {
	pollTicks    *prometheus.CounterVec
	pollTerminal *prometheus.CounterVec
	pollDuration *prometheus.HistogramVec
	reconcile    *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment flow metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_poll_ticks_total",
		Help: "Status checks issued against the league API.",
	}, []string{"status"})
	terminal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_poll_terminal_total",
		Help: "Poll sessions finished, by terminal outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_poll_session_seconds",
		Help:    "Duration of poll sessions from start to terminal state.",
		Buckets: []float64{1, 5, 15, 30, 60, 90, 120, 150},
	}, []string{"outcome"})
	reconcile := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconcile_items_total",
		Help: "Reconciliation mutations applied after approval, by result.",
	}, []string{"result"})
	reg.MustRegister(ticks, terminal, duration, reconcile)
	return &PaymentMetrics{
		pollTicks:    ticks,
		pollTerminal: terminal,
		pollDuration: duration,
		reconcile:    reconcile,
	}
}

// IncPollTick counts one status check and the status it returned.
func (m *PaymentMetrics) IncPollTick(status string) {
	if m == nil || m.pollTicks == nil {
		return
	}
	m.pollTicks.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncPollTerminal counts a finished poll session.
func (m *PaymentMetrics) IncPollTerminal(outcome string) {
	if m == nil || m.pollTerminal == nil {
		return
	}
	m.pollTerminal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObservePollDuration records how long a poll session ran before ending.
func (m *PaymentMetrics) ObservePollDuration(outcome string, d time.Duration) {
	if m == nil || m.pollDuration == nil {
		return
	}
	m.pollDuration.WithLabelValues(normalizeLabel(outcome)).Observe(d.Seconds())
}

// IncReconcileItem counts one reconciliation mutation result.
func (m *PaymentMetrics) IncReconcileItem(result string) {
	if m == nil || m.reconcile == nil {
		return
	}
	m.reconcile.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
