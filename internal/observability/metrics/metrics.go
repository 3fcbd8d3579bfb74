package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking lifecycle.
type BookingMetrics struct {
	createdTotal    prometheus.Counter
	conflictTotal   prometheus.Counter
	transitionTotal *prometheus.CounterVec
	rejectedTotal   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		createdTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "careai",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Total bookings created",
		}),
		conflictTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "careai",
			Subsystem: "booking",
			Name:      "slot_conflict_total",
			Help:      "Total create attempts rejected because the slot was already booked",
		}),
		transitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careai",
			Subsystem: "booking",
			Name:      "transition_total",
			Help:      "Total successful status transitions",
		}, []string{"from", "to"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careai",
			Subsystem: "booking",
			Name:      "rejected_total",
			Help:      "Total rejected booking operations",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.conflictTotal, m.transitionTotal, m.rejectedTotal)
	return m
}

func (m *BookingMetrics) ObserveCreated() {
	if m == nil {
		return
	}
	m.createdTotal.Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictTotal.Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(reason).Inc()
}

// TriageMetrics exposes counters/histograms for triage conversations.
type TriageMetrics struct {
	turnsTotal     *prometheus.CounterVec
	directiveTotal *prometheus.CounterVec
	agentFailures  prometheus.Counter
	agentLatency   prometheus.Histogram
}

func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careai",
			Subsystem: "triage",
			Name:      "turns_total",
			Help:      "Total conversation turns processed",
		}, []string{"status"}),
		directiveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careai",
			Subsystem: "triage",
			Name:      "directive_total",
			Help:      "Total directives decoded from agent replies",
		}, []string{"kind"}),
		agentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "careai",
			Subsystem: "triage",
			Name:      "agent_failures_total",
			Help:      "Total failed calls to the conversational agent",
		}),
		agentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "careai",
			Subsystem: "triage",
			Name:      "agent_latency_seconds",
			Help:      "Latency of conversational agent calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.directiveTotal, m.agentFailures, m.agentLatency)
	return m
}

func (m *TriageMetrics) ObserveTurn(status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
}

func (m *TriageMetrics) ObserveDirective(kind string) {
	if m == nil {
		return
	}
	m.directiveTotal.WithLabelValues(kind).Inc()
}

func (m *TriageMetrics) ObserveAgentFailure() {
	if m == nil {
		return
	}
	m.agentFailures.Inc()
}

func (m *TriageMetrics) ObserveAgentLatency(seconds float64) {
	if m == nil {
		return
	}
	m.agentLatency.Observe(seconds)
}
