package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stray_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stray_analysis_seconds",
		Help:    "Time spent on an analysis stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	ModulesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stray_modules_total",
		Help: "Number of modules in the last built graph.",
	})

	ImportsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stray_import_bindings_total",
		Help: "Number of import bindings examined in the last run.",
	})

	UnusedImportsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stray_unused_imports_total",
		Help: "Number of bindings classified unused in the last run.",
	})

	ResolutionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stray_resolution_failures_total",
		Help: "Import resolution failures by status.",
	}, []string{"status"})

	ParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stray_parse_failures_total",
		Help: "Source files that failed to parse.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stray_watcher_events_total",
		Help: "File system events received by the watcher.",
	})
)
