package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveCreated()
	m.ObserveConflict()
	m.ObserveTransition("pending", "confirmed")
	m.ObserveRejected("invalid_transition")
}

func TestTriageMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTriageMetrics(reg)
	m.ObserveTurn("ok")
	m.ObserveDirective("specialty")
	m.ObserveAgentFailure()
	m.ObserveAgentLatency(0.5)
}

func TestMetricsNilSafe(t *testing.T) {
	var b *BookingMetrics
	b.ObserveCreated()
	b.ObserveConflict()
	b.ObserveTransition("pending", "cancelled")
	b.ObserveRejected("slot_conflict")

	var tr *TriageMetrics
	tr.ObserveTurn("error")
	tr.ObserveDirective("summary")
	tr.ObserveAgentFailure()
	tr.ObserveAgentLatency(0.1)
}
