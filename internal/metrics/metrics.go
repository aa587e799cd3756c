// Package metrics exports solve statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/binpack/internal/binpacking"
)

const namespace = "binpack"

// Recorder counts solves and their outcomes. It implements
// binpacking.Observer.
type Recorder struct {
	engine string

	solves      *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	items       prometheus.Histogram
	variables   prometheus.Gauge
	constraints prometheus.Gauge
	bins        prometheus.Histogram
}

var _ binpacking.Observer = (*Recorder)(nil)

// New creates a Recorder for engine and registers its collectors with reg.
func New(reg prometheus.Registerer, engine string) (*Recorder, error) {
	r := &Recorder{
		engine: engine,
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Solves by engine and final status.",
		}, []string{"engine", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solve_failures_total",
			Help:      "Solves that ended with an error rather than a status.",
		}, []string{"engine"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a solve, model building included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"engine"}),
		items: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "instance_items",
			Help:      "Number of items per solved instance.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
		}),
		variables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_variables",
			Help:      "Variables in the most recently built model.",
		}),
		constraints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_constraints",
			Help:      "Constraints in the most recently built model.",
		}),
		bins: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solution_bins",
			Help:      "Bins used by solutions found.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
		}),
	}

	for _, c := range []prometheus.Collector{r.solves, r.failures, r.duration, r.items, r.variables, r.constraints, r.bins} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveSolve records one solve.
func (r *Recorder) ObserveSolve(rep binpacking.SolveReport) {
	r.duration.WithLabelValues(r.engine).Observe(rep.Elapsed.Seconds())
	r.items.Observe(float64(rep.NumItems))
	r.variables.Set(float64(rep.NumVars))
	r.constraints.Set(float64(rep.NumConstraints))

	if rep.Err != nil {
		r.failures.WithLabelValues(r.engine).Inc()
		return
	}
	r.solves.WithLabelValues(r.engine, rep.Status.String()).Inc()
	if rep.Status.HasSolution() {
		r.bins.Observe(rep.Objective)
	}
}
