// Package cache metrics for hit-rate monitoring.
package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// hitsTotal counts cache hits. Labels: tier (memory, disk)
	hitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftgate",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by tier",
		},
		[]string{"tier"},
	)

	missesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "draftgate",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		},
	)

	setsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "draftgate",
			Subsystem: "cache",
			Name:      "sets_total",
			Help:      "Total number of cache writes",
		},
	)

	evictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "draftgate",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total number of memory-tier evictions under capacity pressure",
		},
	)
)
