// Package metrics records edit and validation activity as Prometheus
// metrics. A CLI run has no scrape endpoint, so collected values are written
// to a node_exporter textfile on request.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors of one process. A nil *Metrics discards
// every observation.
type Metrics struct {
	registry *prometheus.Registry

	editsTotal         *prometheus.CounterVec
	editDuration       *prometheus.HistogramVec
	tracksCreated      prometheus.Counter
	validationRuns     prometheus.Counter
	validationFindings *prometheus.GaugeVec
}

// New returns collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		editsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gardener_edits_total",
			Help: "Track database edit operations by operation and outcome",
		}, []string{"op", "outcome"}),
		editDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gardener_edit_duration_seconds",
			Help:    "Duration of track database edit transactions",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		tracksCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "gardener_tracks_created_total",
			Help: "Tracks created by splitting during edits",
		}),
		validationRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "gardener_validation_runs_total",
			Help: "Validator passes over the store",
		}),
		validationFindings: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gardener_validation_findings",
			Help: "Findings reported by the last validator pass, by check",
		}, []string{"check"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveEdit records one edit operation that started at start.
func (m *Metrics) ObserveEdit(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.editsTotal.WithLabelValues(op, outcome).Inc()
	m.editDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// TrackCreated counts a track allocated by a split.
func (m *Metrics) TrackCreated() {
	if m == nil {
		return
	}
	m.tracksCreated.Inc()
}

// ObserveValidation records the finding count of each check in one pass.
func (m *Metrics) ObserveValidation(findings map[string]int) {
	if m == nil {
		return
	}
	m.validationRuns.Inc()
	for check, n := range findings {
		m.validationFindings.WithLabelValues(check).Set(float64(n))
	}
}

// WriteTextfile writes every collected metric to path in the Prometheus
// text format, replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return errors.New("metrics are not enabled")
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
