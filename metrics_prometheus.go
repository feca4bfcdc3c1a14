package treeman

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}

// PrometheusCollector exports MetricsCollector events as Prometheus
// metrics.
type PrometheusCollector struct {
	filters        *prometheus.CounterVec
	filterDuration prometheus.Histogram
	filterRecords  *prometheus.CounterVec
	storedLevels   prometheus.Gauge
	builds         *prometheus.CounterVec
	buildDuration  *prometheus.HistogramVec
	queries        *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	queryMatches   *prometheus.CounterVec
	groupBys       *prometheus.CounterVec
	groups         prometheus.Counter
	retries        prometheus.Counter
}

var _ MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers the treeman metrics on reg under
// namespace. A nil reg creates unregistered metrics.
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = "treeman"
	}
	f := promauto.With(reg)
	return &PrometheusCollector{
		filters: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filters_total",
				Help:      "Total number of filter operations",
			},
			[]string{"outcome"},
		),
		filterDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "filter_duration_seconds",
				Help:      "Latency of filter operations",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		filterRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_records_total",
				Help:      "Records entering and leaving committed filters",
			},
			[]string{"direction"}, // "in" | "out"
		),
		storedLevels: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stored_levels",
				Help:      "Stored history levels after the most recent filter",
			},
		),
		builds: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_builds_total",
				Help:      "Total number of index builds and rebuilds",
			},
			[]string{"kind", "outcome"},
		),
		buildDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "index_build_duration_seconds",
				Help:      "Latency of index builds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"kind"},
		),
		queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_queries_total",
				Help:      "Total number of index queries",
			},
			[]string{"kind", "outcome"},
		),
		queryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "index_query_duration_seconds",
				Help:      "Latency of index queries",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"kind"},
		),
		queryMatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_query_matches_total",
				Help:      "Positions returned by index queries",
			},
			[]string{"kind"},
		),
		groupBys: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "group_by_total",
				Help:      "Total number of group by operations",
			},
			[]string{"outcome"},
		),
		groups: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "groups_created_total",
				Help:      "Child groups created by group by",
			},
		),
		retries: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_retries_exhausted_total",
				Help:      "Filters dropped after losing every commit race",
			},
		),
	}
}

// RecordFilter implements MetricsCollector.
func (p *PrometheusCollector) RecordFilter(levels, in, out int, duration time.Duration, err error) {
	p.filters.WithLabelValues(outcome(err)).Inc()
	p.filterDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	p.filterRecords.WithLabelValues("in").Add(float64(in))
	p.filterRecords.WithLabelValues("out").Add(float64(out))
	p.storedLevels.Set(float64(levels))
}

// RecordIndexBuild implements MetricsCollector.
func (p *PrometheusCollector) RecordIndexBuild(kind string, duration time.Duration, err error) {
	p.builds.WithLabelValues(kind, outcome(err)).Inc()
	p.buildDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordQuery implements MetricsCollector.
func (p *PrometheusCollector) RecordQuery(kind string, duration time.Duration, matches int, err error) {
	p.queries.WithLabelValues(kind, outcome(err)).Inc()
	p.queryDuration.WithLabelValues(kind).Observe(duration.Seconds())
	p.queryMatches.WithLabelValues(kind).Add(float64(matches))
}

// RecordGroupBy implements MetricsCollector.
func (p *PrometheusCollector) RecordGroupBy(groups int, _ time.Duration, err error) {
	p.groupBys.WithLabelValues(outcome(err)).Inc()
	p.groups.Add(float64(groups))
}

// RecordRetryExhausted implements MetricsCollector.
func (p *PrometheusCollector) RecordRetryExhausted() { p.retries.Inc() }
