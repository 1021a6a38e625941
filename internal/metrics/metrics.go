// Package metrics exposes Prometheus counters for recording runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/keypoints"
	"github.com/ayusman/signset/internal/recorder"
)

// Metrics holds Prometheus counters and gauges for the recorder.
// It implements recorder.Observer.
type Metrics struct {
	recorder.NopObserver

	registry           *prometheus.Registry
	framesStored       *prometheus.CounterVec
	sequencesCompleted *prometheus.CounterVec
	groupsAbsent       *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	activeRuns         prometheus.Gauge
}

// New creates and registers the recorder metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	framesStored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signset_frames_stored_total",
		Help: "Total number of frame vectors written to the dataset",
	}, []string{"label"})
	sequencesCompleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signset_sequences_completed_total",
		Help: "Total number of sequences recorded in full",
	}, []string{"label"})
	groupsAbsent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signset_landmark_groups_absent_total",
		Help: "Stored frames in which a landmark group was not detected",
	}, []string{"group"})
	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signset_runs_total",
		Help: "Recording runs by final status",
	}, []string{"status"})
	activeRuns := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signset_active_runs",
		Help: "Number of recording runs in progress",
	})

	registry.MustRegister(
		framesStored,
		sequencesCompleted,
		groupsAbsent,
		runsTotal,
		activeRuns,
	)

	return &Metrics{
		registry:           registry,
		framesStored:       framesStored,
		sequencesCompleted: sequencesCompleted,
		groupsAbsent:       groupsAbsent,
		runsTotal:          runsTotal,
		activeRuns:         activeRuns,
	}
}

func (m *Metrics) FrameStored(addr dataset.Address, v *keypoints.Vector) {
	m.framesStored.WithLabelValues(addr.Label).Inc()
	if v == nil {
		return
	}
	for _, g := range keypoints.Groups {
		if !v.Present(g) {
			m.groupsAbsent.WithLabelValues(g.String()).Inc()
		}
	}
}

func (m *Metrics) SequenceCompleted(label string, _ int) {
	m.sequencesCompleted.WithLabelValues(label).Inc()
}

// RunStarted marks a run as in progress.
func (m *Metrics) RunStarted() {
	m.activeRuns.Inc()
}

// RunFinished records the final status of a run.
func (m *Metrics) RunFinished(status string) {
	m.activeRuns.Dec()
	m.runsTotal.WithLabelValues(status).Inc()
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
