// Package metrics provides the Prometheus metrics a judging run reports on
// its own execution: per-verdict test case counts, compile outcomes,
// overall judge duration, and active worker count.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds every Prometheus collector a judging run updates.
type Metrics struct {
	TestcasesTotal  *prometheus.CounterVec
	CompileTotal    *prometheus.CounterVec
	JudgeDuration   prometheus.Histogram
	ActiveWorkers   prometheus.Gauge
}

// Get returns the process-wide singleton Metrics instance, registering
// collectors with the default registry on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.TestcasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "judgecore",
			Name:      "testcases_total",
			Help:      "Total number of test cases judged, by verdict",
		},
		[]string{"verdict"},
	)

	m.CompileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "judgecore",
			Name:      "compile_total",
			Help:      "Total number of compile attempts (submission and checker), by result",
		},
		[]string{"result"},
	)

	m.JudgeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "judgecore",
			Name:      "judge_duration_seconds",
			Help:      "Wall-clock duration of a full judging run",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "judgecore",
			Name:      "active_workers",
			Help:      "Number of sandbox workers currently judging a test case",
		},
	)

	return m
}
