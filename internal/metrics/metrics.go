// Package metrics counts what each pipeline run fetched, resolved and
// skipped. Metrics live in a private registry that the collections server
// exposes and that a one-shot run can dump to a node_exporter textfile.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes.
const (
	Resolved   = "resolved"
	Unresolved = "unresolved"
	Failed     = "failed"
)

// Metrics provides observability for harvesting runs. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Pages persisted per partition
	PagesFetched *prometheus.CounterVec

	// Failed page attempts per partition
	PageFailures *prometheus.CounterVec

	// Provider and geocode lookups by stage and outcome
	Lookups *prometheus.CounterVec

	// Records dropped by stage and reason
	RecordsSkipped *prometheus.CounterVec

	// Entries in each output collection after the last merge
	CollectionEntries *prometheus.GaugeVec

	// Duration of each pipeline stage
	StageDuration *prometheus.HistogramVec

	// Finished partitions by status
	Partitions *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nhsmongifyer_pages_fetched_total",
			Help: "Agreement pages fetched and persisted",
		}, []string{"branch", "service"}),

		PageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nhsmongifyer_page_failures_total",
			Help: "Failed attempts to fetch or persist an agreement page",
		}, []string{"branch", "service"}),

		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nhsmongifyer_lookups_total",
			Help: "Cross-reference and geocoding lookups by outcome",
		}, []string{"stage", "outcome"}), // stage: "provider", "geocode"

		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nhsmongifyer_records_skipped_total",
			Help: "Records dropped during ingestion or merge",
		}, []string{"stage", "reason"}),

		CollectionEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nhsmongifyer_collection_entries",
			Help: "Entries in an output collection after the last merge",
		}, []string{"collection", "branch", "service"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nhsmongifyer_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"stage"}),

		Partitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nhsmongifyer_partitions_total",
			Help: "Finished partitions by status",
		}, []string{"status"}),
	}
}

// PageFetched records a persisted page.
func (m *Metrics) PageFetched(branch, service string) {
	if m != nil {
		m.PagesFetched.WithLabelValues(branch, service).Inc()
	}
}

// PageFailed records a failed page attempt.
func (m *Metrics) PageFailed(branch, service string) {
	if m != nil {
		m.PageFailures.WithLabelValues(branch, service).Inc()
	}
}

// Lookup records one lookup outcome.
func (m *Metrics) Lookup(stage, outcome string) {
	if m != nil {
		m.Lookups.WithLabelValues(stage, outcome).Inc()
	}
}

// Skipped records a dropped record.
func (m *Metrics) Skipped(stage, reason string) {
	if m != nil {
		m.RecordsSkipped.WithLabelValues(stage, reason).Inc()
	}
}

// SetCollection records the size of a collection.
func (m *Metrics) SetCollection(collection, branch, service string, n int) {
	if m != nil {
		m.CollectionEntries.WithLabelValues(collection, branch, service).Set(float64(n))
	}
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// PartitionDone records a finished partition.
func (m *Metrics) PartitionDone(status string) {
	if m != nil {
		m.Partitions.WithLabelValues(status).Inc()
	}
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry())
}
