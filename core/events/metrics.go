package events

import "github.com/prometheus/client_golang/prometheus"

// MetricsSink exposes engine events as prometheus metrics.
type MetricsSink struct {
	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	resultCount    prometheus.Histogram
	budgetOverruns *prometheus.CounterVec
}

// NewMetricsSink creates a MetricsSink and registers its collectors with the
// given registerer.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	s := &MetricsSink{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mealdex",
			Subsystem: "search",
			Name:      "completed_total",
			Help:      "Completed search aggregations.",
		}, []string{"degraded"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mealdex",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of search aggregations.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2},
		}),
		resultCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mealdex",
			Subsystem: "search",
			Name:      "result_count",
			Help:      "Ranked results returned per aggregation.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50},
		}),
		budgetOverruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mealdex",
			Subsystem: "search",
			Name:      "budget_overruns_total",
			Help:      "Operations that exceeded their latency budget.",
		}, []string{"operation"}),
	}

	if reg != nil {
		reg.MustRegister(s.searches, s.searchDuration, s.resultCount, s.budgetOverruns)
	}
	return s
}

// OnSearchCompleted records counters and latency for one aggregation.
func (s *MetricsSink) OnSearchCompleted(e SearchCompleted) {
	degraded := "false"
	if e.Degraded {
		degraded = "true"
	}
	s.searches.WithLabelValues(degraded).Inc()
	s.searchDuration.Observe(e.Elapsed.Seconds())
	s.resultCount.Observe(float64(e.ResultCount))
}

// OnBudgetExceeded counts a budget overrun for the operation.
func (s *MetricsSink) OnBudgetExceeded(e BudgetExceeded) {
	s.budgetOverruns.WithLabelValues(e.Operation).Inc()
}
