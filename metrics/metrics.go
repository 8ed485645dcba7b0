// Package metrics exports grid search activity as Prometheus metrics
package metrics

import (
	"fmt"
	"time"

	"github.com/aouyang1/go-holt/gridsearch"
	"github.com/aouyang1/go-holt/smoothing"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "holt"

// Recorder implements gridsearch.Observer using Prometheus collectors
type Recorder struct {
	cellsEvaluated prometheus.Counter
	searches       prometheus.Counter
	searchDuration prometheus.Histogram
	bestMSE        prometheus.Gauge
	bestAlpha      prometheus.Gauge
	bestBeta       prometheus.Gauge
}

var _ gridsearch.Observer = (*Recorder)(nil)

// NewRecorder creates the grid search collectors and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		cellsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "cells_evaluated_total",
			Help:      "Total number of alpha/beta pairs smoothed and scored",
		}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "searches_total",
			Help:      "Total number of completed grid searches",
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "search_duration_seconds",
			Help:      "Duration of a full grid search in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		bestMSE: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "best_mse",
			Help:      "Lowest mean squared error of the last grid search",
		}),
		bestAlpha: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "best_alpha",
			Help:      "Alpha selected by the last grid search",
		}),
		bestBeta: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "best_beta",
			Help:      "Beta selected by the last grid search",
		}),
	}

	for _, c := range []prometheus.Collector{
		r.cellsEvaluated,
		r.searches,
		r.searchDuration,
		r.bestMSE,
		r.bestAlpha,
		r.bestBeta,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("unable to register grid search metric, %w", err)
		}
	}
	return r, nil
}

// ObserveCell counts one evaluated parameter pair
func (r *Recorder) ObserveCell(_ smoothing.Params, _ float64) {
	r.cellsEvaluated.Inc()
}

// ObserveSearch records the duration and winner of a completed search
func (r *Recorder) ObserveSearch(res *gridsearch.Result, elapsed time.Duration) {
	r.searches.Inc()
	r.searchDuration.Observe(elapsed.Seconds())
	if res == nil {
		return
	}
	r.bestMSE.Set(res.MSE)
	r.bestAlpha.Set(res.Params.Alpha)
	r.bestBeta.Set(res.Params.Beta)
}
