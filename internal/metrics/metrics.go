// Package metrics exposes Prometheus collectors for the discovery pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal              *prometheus.CounterVec
	runDurationSeconds     *prometheus.HistogramVec
	itemsAddedTotal        prometheus.Counter
	duplicatesTotal        prometheus.Counter
	connectorResultsTotal  *prometheus.CounterVec
	connectorFailuresTotal *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times; the Record helpers are no-ops until it runs.
func Init() {
	once.Do(func() {
		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_runs_total",
				Help: "Total pipeline runs, labeled by result.",
			},
			[]string{"result"},
		)

		runDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "discovery_run_duration_seconds",
				Help:    "Wall time per pipeline run, labeled by result.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"result"},
		)

		itemsAddedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "discovery_items_added_total",
				Help: "Total new content items persisted.",
			},
		)

		duplicatesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "discovery_duplicates_total",
				Help: "Total candidates rejected as already stored.",
			},
		)

		connectorResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_connector_results_total",
				Help: "Candidate records returned, labeled by source.",
			},
			[]string{"source"},
		)

		connectorFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_connector_failures_total",
				Help: "Connector fetches absorbed as failures, labeled by source.",
			},
			[]string{"source"},
		)
	})
}

// RecordRun counts one completed run and observes its duration.
func RecordRun(result string, elapsed time.Duration) {
	if runsTotal == nil {
		return
	}
	runsTotal.WithLabelValues(result).Inc()
	runDurationSeconds.WithLabelValues(result).Observe(elapsed.Seconds())
}

// RecordItemsAdded counts newly persisted content items.
func RecordItemsAdded(n int) {
	if itemsAddedTotal == nil || n <= 0 {
		return
	}
	itemsAddedTotal.Add(float64(n))
}

// RecordDuplicates counts candidates rejected as duplicates.
func RecordDuplicates(n int) {
	if duplicatesTotal == nil || n <= 0 {
		return
	}
	duplicatesTotal.Add(float64(n))
}

// RecordConnectorResults counts candidates returned by one source.
func RecordConnectorResults(source string, n int) {
	if connectorResultsTotal == nil {
		return
	}
	connectorResultsTotal.WithLabelValues(source).Add(float64(n))
}

// RecordConnectorFailure counts one absorbed connector failure.
func RecordConnectorFailure(source string) {
	if connectorFailuresTotal == nil {
		return
	}
	connectorFailuresTotal.WithLabelValues(source).Inc()
}

// Handler returns the exposition handler for the optional metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
