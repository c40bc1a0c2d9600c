// Package metrics holds the process-wide Prometheus collectors. The tools are
// short-lived batch jobs, so collectors are exported to a node-exporter
// textfile at exit rather than scraped.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ocean_build_info",
			Help: "Build information of the ocean tools",
		},
		[]string{"version", "commit", "date"},
	)

	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocean_fetch_attempts_total",
			Help: "Download attempts by outcome",
		},
		[]string{"outcome"},
	)

	FetchAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ocean_fetch_attempt_duration_seconds",
			Help:    "Duration of individual download attempts",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)

	FetchBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ocean_fetch_bytes_total",
			Help: "Bytes written by successful downloads",
		},
	)

	IngestDaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocean_ingest_days_total",
			Help: "Days processed by the HYCOM ingestion by result",
		},
		[]string{"result"},
	)
)

// WriteTextfile writes every registered collector to path in the text
// exposition format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
