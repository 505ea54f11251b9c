// Package router metrics for upstream call accounting.
package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// attemptsTotal counts upstream attempts.
	// Labels: provider, outcome (success, transient, terminal)
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftgate",
			Subsystem: "router",
			Name:      "attempts_total",
			Help:      "Total number of upstream model attempts",
		},
		[]string{"provider", "outcome"},
	)

	// fallbacksTotal counts advances past the first model in a chain.
	fallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "draftgate",
			Subsystem: "router",
			Name:      "fallbacks_total",
			Help:      "Total number of fallback advances within chains",
		},
	)

	// chainExhaustedTotal counts calls in which every model failed.
	chainExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "draftgate",
			Subsystem: "router",
			Name:      "chain_exhausted_total",
			Help:      "Total number of calls that exhausted their fallback chain",
		},
	)
)
