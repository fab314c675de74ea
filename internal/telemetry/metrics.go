// Package telemetry wires the sync finder's pipeline stages into
// Prometheus instrumentation: how long a Search takes and how many
// candidates survive each filtering stage. Grounded on the standard
// prometheus/client_golang HistogramVec/CounterVec + Registry pattern,
// carried into this module because madpsy-ka9q_ubersdr depends on
// prometheus/client_golang and a detection pipeline is exactly the kind of
// component that dependency exists for.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stage names used as the "stage" label on Metrics.Candidates.
const (
	StageCoarse   = "coarse"
	StageFiltered = "filtered"
	StageRefined  = "refined"
	StageEmitted  = "emitted"
)

// Metrics holds the Prometheus collectors a Finder reports through.
type Metrics struct {
	SearchDuration prometheus.Histogram
	Candidates     *prometheus.CounterVec
}

// New registers and returns a fresh Metrics on reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests, multiple
// Finders) or prometheus.DefaultRegisterer to expose via the default
// /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "syncfinder_search_duration_seconds",
			Help:    "Wall-clock duration of a single Search invocation.",
			Buckets: prometheus.DefBuckets,
		}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "syncfinder_candidates_total",
			Help: "Number of sync candidates observed at each pipeline stage.",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.SearchDuration, m.Candidates)
	return m
}

// ObserveSearch records the duration of one Search call, in seconds.
func (m *Metrics) ObserveSearch(seconds float64) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(seconds)
}

// AddCandidates increments the candidate counter for stage by n.
func (m *Metrics) AddCandidates(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Candidates.WithLabelValues(stage).Add(float64(n))
}
