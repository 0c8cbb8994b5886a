// Package metrics declares the Prometheus collectors of the alarm portal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons an event is not forwarded.
const (
	IgnoredEntity  = "entity"
	IgnoredNoState = "no_state"
	IgnoredState   = "state"
)

// Delivery outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
)

var (
	// EventsReceived counts state changes handed to the forwarder.
	EventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alarm_portal_events_received_total",
		Help: "Total number of state change events handed to the forwarder.",
	})

	// EventsIgnored counts events dropped before delivery, by reason.
	EventsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alarm_portal_events_ignored_total",
		Help: "Total number of events not forwarded, labelled by reason.",
	}, []string{"reason"})

	// Deliveries counts delivery attempts, by outcome.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alarm_portal_deliveries_total",
		Help: "Total number of delivery attempts, labelled by outcome.",
	}, []string{"outcome"})

	// DeliveryDuration observes portal request latency.
	DeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alarm_portal_delivery_duration_seconds",
		Help:    "Duration of portal POST requests.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// SourceConnected is 1 while the event source is connected.
	SourceConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alarm_portal_source_connected",
		Help: "1 while the event source is connected, 0 otherwise.",
	})
)
