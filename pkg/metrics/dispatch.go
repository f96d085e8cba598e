package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records assignment and live-tracking activity.
type DispatchMetrics struct {
	assignments     *prometheus.CounterVec
	locationReports *prometheus.CounterVec
	hubSubscribers  prometheus.Gauge
	hubDropped      prometheus.Counter
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Order assignment attempts by outcome.",
	}, []string{"outcome"})
	locationReports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_location_reports_total",
		Help: "Agent location reports by outcome.",
	}, []string{"outcome"})
	hubSubscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracking_hub_subscribers",
		Help: "Current number of live location subscribers.",
	})
	hubDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_hub_dropped_events_total",
		Help: "Events dropped because a subscriber buffer was full.",
	})
	reg.MustRegister(assignments, locationReports, hubSubscribers, hubDropped)
	return &DispatchMetrics{
		assignments:     assignments,
		locationReports: locationReports,
		hubSubscribers:  hubSubscribers,
		hubDropped:      hubDropped,
	}
}

// IncAssignment counts one assignment attempt with the given outcome label.
func (d *DispatchMetrics) IncAssignment(outcome string) {
	if d == nil || d.assignments == nil {
		return
	}
	d.assignments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncLocationReport counts one location report with the given outcome label.
func (d *DispatchMetrics) IncLocationReport(outcome string) {
	if d == nil || d.locationReports == nil {
		return
	}
	d.locationReports.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SubscriberAdded bumps the live subscriber gauge.
func (d *DispatchMetrics) SubscriberAdded() {
	if d == nil || d.hubSubscribers == nil {
		return
	}
	d.hubSubscribers.Inc()
}

// SubscriberRemoved lowers the live subscriber gauge.
func (d *DispatchMetrics) SubscriberRemoved() {
	if d == nil || d.hubSubscribers == nil {
		return
	}
	d.hubSubscribers.Dec()
}

// IncDroppedEvent counts a fan-out event discarded due to a full buffer.
func (d *DispatchMetrics) IncDroppedEvent() {
	if d == nil || d.hubDropped == nil {
		return
	}
	d.hubDropped.Inc()
}
