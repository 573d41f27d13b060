// Package metrics provides Prometheus metrics for video state handling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts engine events recorded, by decoded state.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidstate_events_total",
		Help: "Total number of engine video state events recorded, by state.",
	}, []string{"state"})

	// InvalidCodesTotal counts engine codes that map to no known state.
	// No code label: unknown codes are unbounded.
	InvalidCodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidstate_invalid_codes_total",
		Help: "Total number of engine events rejected for an unknown video state code.",
	})

	// CommandsTotal counts video state commands handed to the engine bridge, by state.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidstate_commands_total",
		Help: "Total number of video state commands issued to the engine, by state.",
	}, []string{"state"})
)
