package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	orchestrator = "jarvis_orchestrator"

	// Job metrics
	jobsTotal  = "jobs_total"
	jobsActive = "jobs_active"

	// Stage metrics
	stageDuration = "stage_duration_seconds"
	stageTotal    = "stage_total"

	// Cache metrics
	cacheLookupsTotal = "cache_lookups_total"

	// Labels
	statusLabel  = "status"
	stageLabel   = "stage"
	outcomeLabel = "outcome"
	resultLabel  = "result"
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeDegraded = "degraded"
)

/**
* Metrics definition
**/
var jobsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: orchestrator,
		Name:      jobsTotal,
		Help:      "number of jobs that reached each status",
	},
	[]string{statusLabel},
)

var jobsActiveMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: orchestrator,
		Name:      jobsActive,
		Help:      "number of pipelines currently running",
	},
)

var stageDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: orchestrator,
		Name:      stageDuration,
		Help:      "time spent in each pipeline stage",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
	},
	[]string{stageLabel},
)

var stageTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: orchestrator,
		Name:      stageTotal,
		Help:      "number of pipeline stages run partitioned by outcome",
	},
	[]string{stageLabel, outcomeLabel},
)

var cacheLookupsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: orchestrator,
		Name:      cacheLookupsTotal,
		Help:      "result cache lookups partitioned by hit or miss",
	},
	[]string{resultLabel},
)

func IncreaseJobsTotalMetric(status string) {
	jobsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseActiveJobs() {
	jobsActiveMetric.Inc()
}

func DecreaseActiveJobs() {
	jobsActiveMetric.Dec()
}

func ObserveStage(stage, outcome string, seconds float64) {
	stageDurationMetric.With(prometheus.Labels{stageLabel: stage}).Observe(seconds)
	stageTotalMetric.With(prometheus.Labels{stageLabel: stage, outcomeLabel: outcome}).Inc()
}

func IncreaseCacheLookups(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsTotalMetric)
	prometheus.MustRegister(jobsActiveMetric)
	prometheus.MustRegister(stageDurationMetric)
	prometheus.MustRegister(stageTotalMetric)
	prometheus.MustRegister(cacheLookupsMetric)
}
