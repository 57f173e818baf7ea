package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	SolvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auction",
		Subsystem: "solver",
		Name:      "solves_total",
		Help:      "Allocation solves by backend status.",
	}, []string{"status"})

	SolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "auction",
		Subsystem: "solver",
		Name:      "solve_duration_seconds",
		Help:      "Wall time of one allocation solve.",
		Buckets:   prometheus.DefBuckets,
	})

	AutoBidRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "auction",
		Subsystem: "autobid",
		Name:      "rounds",
		Help:      "Rounds needed before the auto-bid heuristic reached a fixed point.",
		Buckets:   []float64{1, 2, 3, 5, 10, 20, 30},
	})

	AutoBidPriceRaises = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auction",
		Subsystem: "autobid",
		Name:      "price_raises_total",
		Help:      "Accepted per-line price increases across all auto-bid runs.",
	})
)
