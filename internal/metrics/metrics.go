// Package metrics defines the Prometheus metrics exposed on /metrics.
//
// Naming follows Prometheus conventions: scout_ prefix, _total suffix
// for counters, _seconds suffix for duration histograms.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScansTotal counts port sweeps by mode (quick|full) and outcome.
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_scans_total",
			Help: "Total number of port sweeps by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	// ScanDurationSeconds is a histogram of full sweep duration by mode.
	ScanDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scout_scan_duration_seconds",
			Help:    "Duration of port sweeps in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	// HealthChecksTotal counts individual health checks by resulting status.
	HealthChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_health_checks_total",
			Help: "Total health checks by resulting status.",
		},
		[]string{"status"},
	)

	// EventsDroppedTotal counts events dropped because an observer or the
	// broadcast queue was full.
	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_events_dropped_total",
			Help: "Total broadcast events dropped under backpressure.",
		},
	)

	// ScreenshotCapturesTotal counts capture attempts by outcome.
	ScreenshotCapturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_screenshot_captures_total",
			Help: "Total screenshot capture attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		ScansTotal,
		ScanDurationSeconds,
		HealthChecksTotal,
		EventsDroppedTotal,
		ScreenshotCapturesTotal,
	)
}
