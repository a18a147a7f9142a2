// Package metrics records run statistics for tour-snoop with Prometheus
// collectors on a private registry.
//
// A run is a short-lived CLI invocation, so nothing is served over HTTP.
// Instead the registry can be written once at the end of the run in the text
// exposition format, for node_exporter's textfile collector to pick up.
//
// All methods are safe for concurrent use and are no-ops on a nil *Recorder.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tour_snoop"

// Fetch outcomes used as the "status" label.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Recorder owns the collectors of one run.
type Recorder struct {
	registry *prometheus.Registry

	documents     *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	events        *prometheus.CounterVec
	changes       *prometheus.CounterVec
	subjects      *prometheus.CounterVec
	lastRun       prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.documents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_fetched_total",
		Help:      "Listing documents fetched, by outcome",
	}, []string{"status"})
	r.fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Time spent fetching and parsing one listing document",
		Buckets:   prometheus.DefBuckets,
	})
	r.events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_parsed_total",
		Help:      "Events extracted from listing documents, by extraction strategy",
	}, []string{"strategy"})
	r.changes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "changes_total",
		Help:      "Reported changes, by direction",
	}, []string{"symbol"})
	r.subjects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subjects_total",
		Help:      "Subjects processed, by outcome",
	}, []string{"status"})
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the end of the last run",
	})

	r.registry.MustRegister(r.documents, r.fetchDuration, r.events, r.changes, r.subjects, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records one document fetch.
func (r *Recorder) ObserveFetch(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.documents.WithLabelValues(status).Inc()
	r.fetchDuration.Observe(d.Seconds())
}

// AddEvents counts events produced by an extraction strategy.
func (r *Recorder) AddEvents(strategy string, n int) {
	if r == nil || n == 0 {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	r.events.WithLabelValues(strategy).Add(float64(n))
}

// AddChange counts one reported change.
func (r *Recorder) AddChange(symbol string) {
	if r == nil {
		return
	}
	r.changes.WithLabelValues(symbol).Inc()
}

// SubjectDone counts a processed subject.
func (r *Recorder) SubjectDone(status string) {
	if r == nil {
		return
	}
	r.subjects.WithLabelValues(status).Inc()
}

// WriteTextfile stamps the run end time and writes every metric to path in
// the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	r.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
