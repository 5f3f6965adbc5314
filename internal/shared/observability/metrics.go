package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smellwatch_parsing_seconds",
		Help:    "Time spent parsing a source unit.",
		Buckets: prometheus.DefBuckets,
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smellwatch_analysis_seconds",
		Help:    "Time spent on each analysis stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smellwatch_findings_total",
		Help: "Total number of findings produced, by rule.",
	}, []string{"rule"})

	SkippedUnitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smellwatch_skipped_units_total",
		Help: "Total number of source units skipped as unparseable.",
	})

	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smellwatch_runs_total",
		Help: "Total number of completed analysis runs.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smellwatch_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
