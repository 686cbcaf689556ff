// Package metrics provides Prometheus metrics for the explorer client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdexplorer_transfers_total",
			Help: "Total number of transfer mutations dispatched",
		},
		[]string{"route", "mutation", "status"},
	)

	transferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sdexplorer_transfer_duration_seconds",
			Help:    "Transfer mutation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mutation"},
	)

	transfersInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sdexplorer_transfers_in_flight",
			Help: "Number of transfer mutations currently in flight",
		},
	)

	conflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sdexplorer_transfer_conflicts_total",
			Help: "Transfers aborted because source and destination were identical",
		},
	)

	itemsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdexplorer_items_skipped_total",
			Help: "Items excluded from a dispatch batch",
		},
		[]string{"reason"},
	)

	pathResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdexplorer_path_resolutions_total",
			Help: "Absolute path resolutions by outcome",
		},
		[]string{"outcome"}, // cache_hit, fetched, failed
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdexplorer_invalidations_total",
			Help: "Listing invalidation events received",
		},
		[]string{"type"},
	)
)

// RecordTransfer records one dispatched mutation.
func RecordTransfer(route, mutation, status string) {
	transfersTotal.WithLabelValues(route, mutation, status).Inc()
}

// ObserveTransferDuration records how long a mutation took.
func ObserveTransferDuration(mutation string, d time.Duration) {
	transferDuration.WithLabelValues(mutation).Observe(d.Seconds())
}

// TransferStarted marks a mutation in flight.
func TransferStarted() { transfersInFlight.Inc() }

// TransferFinished marks a mutation settled.
func TransferFinished() { transfersInFlight.Dec() }

// RecordConflict counts a source==destination abort.
func RecordConflict() { conflictsTotal.Inc() }

// RecordSkipped counts an item excluded from a batch.
func RecordSkipped(reason string) {
	itemsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordPathResolution counts a files.getPath resolution by outcome.
func RecordPathResolution(outcome string) {
	pathResolutionsTotal.WithLabelValues(outcome).Inc()
}

// RecordInvalidation counts a received invalidation event.
func RecordInvalidation(eventType string) {
	invalidationsTotal.WithLabelValues(eventType).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
