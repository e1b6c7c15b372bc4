// Package metrics exposes Prometheus instrumentation for the check-in flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_admissions_total",
			Help: "Total number of processed credentials by outcome",
		},
		[]string{"outcome"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkin_scan_duration_seconds",
			Help:    "Operator-reported time from scan start to admission",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkin_active_sessions",
			Help: "Number of open scan sessions",
		},
	)

	QueuedCredentials = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkin_queued_credentials",
			Help: "Credentials waiting in admission queues across all sessions",
		},
	)
)

// RecordOutcome counts one processed credential.
func RecordOutcome(outcome string) {
	AdmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordScanDuration observes a scan duration reported in milliseconds.
func RecordScanDuration(ms int64) {
	ScanDuration.Observe((time.Duration(ms) * time.Millisecond).Seconds())
}
