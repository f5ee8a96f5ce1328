package calculator

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "himeno"

var (
	sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Number of completed Jacobi sweeps.",
		},
		[]string{"strategy", "kernel"},
	)

	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one sweep, from dispatch to join.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 18),
		},
		[]string{"strategy", "kernel"},
	)

	workerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_panics_total",
			Help:      "Workers that terminated abnormally; their residual counts as zero.",
		},
	)

	lastResidual = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_residual",
			Help:      "Residual of the final sweep of the most recent run.",
		},
	)

	runsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Calculators currently in the Running state.",
		},
	)
)

func init() {
	prometheus.MustRegister(sweepsTotal, sweepDuration, workerPanics, lastResidual, runsInFlight)
}
