package treeman

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/treeman/collection"
	"github.com/hupe1980/treeman/group"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems, or use
// PrometheusCollector.
type MetricsCollector interface {
	// RecordFilter is called after each committed or failed filter.
	// levels is the stored level count afterwards, in and out are the record
	// counts before and after.
	RecordFilter(levels, in, out int, duration time.Duration, err error)

	// RecordIndexBuild is called after each index build or rebuild.
	RecordIndexBuild(kind string, duration time.Duration, err error)

	// RecordQuery is called after each index query.
	RecordQuery(kind string, duration time.Duration, matches int, err error)

	// RecordGroupBy is called after each grouping.
	RecordGroupBy(groups int, duration time.Duration, err error)

	// RecordRetryExhausted is called when a filter gives up after losing
	// every commit race.
	RecordRetryExhausted()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFilter(int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordIndexBuild(string, time.Duration, error)    {}
func (NoopMetricsCollector) RecordQuery(string, time.Duration, int, error)    {}
func (NoopMetricsCollector) RecordGroupBy(int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordRetryExhausted()                            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FilterCount      atomic.Int64
	FilterErrors     atomic.Int64
	FilterTotalNanos atomic.Int64
	RecordsIn        atomic.Int64
	RecordsOut       atomic.Int64
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
	BuildTotalNanos  atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryMatches     atomic.Int64
	QueryTotalNanos  atomic.Int64
	GroupByCount     atomic.Int64
	GroupByErrors    atomic.Int64
	GroupsCreated    atomic.Int64
	RetriesExhausted atomic.Int64
}

// RecordFilter implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFilter(_, in, out int, duration time.Duration, err error) {
	b.FilterCount.Add(1)
	b.FilterTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FilterErrors.Add(1)
		return
	}
	b.RecordsIn.Add(int64(in))
	b.RecordsOut.Add(int64(out))
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(_ string, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ string, duration time.Duration, matches int, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
		return
	}
	b.QueryMatches.Add(int64(matches))
}

// RecordGroupBy implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGroupBy(groups int, _ time.Duration, err error) {
	b.GroupByCount.Add(1)
	if err != nil {
		b.GroupByErrors.Add(1)
		return
	}
	b.GroupsCreated.Add(int64(groups))
}

// RecordRetryExhausted implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetryExhausted() {
	b.RetriesExhausted.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FilterCount:      b.FilterCount.Load(),
		FilterErrors:     b.FilterErrors.Load(),
		FilterAvgNanos:   avg(b.FilterTotalNanos.Load(), b.FilterCount.Load()),
		RecordsIn:        b.RecordsIn.Load(),
		RecordsOut:       b.RecordsOut.Load(),
		BuildCount:       b.BuildCount.Load(),
		BuildErrors:      b.BuildErrors.Load(),
		BuildAvgNanos:    avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		QueryCount:       b.QueryCount.Load(),
		QueryErrors:      b.QueryErrors.Load(),
		QueryMatches:     b.QueryMatches.Load(),
		QueryAvgNanos:    avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		GroupByCount:     b.GroupByCount.Load(),
		GroupByErrors:    b.GroupByErrors.Load(),
		GroupsCreated:    b.GroupsCreated.Load(),
		RetriesExhausted: b.RetriesExhausted.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FilterCount      int64 `json:"filter_count"`
	FilterErrors     int64 `json:"filter_errors"`
	FilterAvgNanos   int64 `json:"filter_avg_nanos"`
	RecordsIn        int64 `json:"records_in"`
	RecordsOut       int64 `json:"records_out"`
	BuildCount       int64 `json:"build_count"`
	BuildErrors      int64 `json:"build_errors"`
	BuildAvgNanos    int64 `json:"build_avg_nanos"`
	QueryCount       int64 `json:"query_count"`
	QueryErrors      int64 `json:"query_errors"`
	QueryMatches     int64 `json:"query_matches"`
	QueryAvgNanos    int64 `json:"query_avg_nanos"`
	GroupByCount     int64 `json:"group_by_count"`
	GroupByErrors    int64 `json:"group_by_errors"`
	GroupsCreated    int64 `json:"groups_created"`
	RetriesExhausted int64 `json:"retries_exhausted"`
}

// observer adapts a MetricsCollector to the package observers.
type observer struct {
	mc MetricsCollector
}

var (
	_ collection.MetricsObserver = observer{}
	_ group.MetricsObserver      = observer{}
)

func (o observer) OnFilter(d time.Duration, levels, in, out int, err error) {
	o.mc.RecordFilter(levels, in, out, d, err)
}

func (o observer) OnIndexBuild(d time.Duration, kind string, err error) {
	o.mc.RecordIndexBuild(kind, d, err)
}

func (o observer) OnQuery(d time.Duration, kind string, matches int, err error) {
	o.mc.RecordQuery(kind, d, matches, err)
}

func (o observer) OnGroupBy(d time.Duration, groups int, err error) {
	o.mc.RecordGroupBy(groups, d, err)
}

func (o observer) OnRetryExhausted() { o.mc.RecordRetryExhausted() }
