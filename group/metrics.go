package group

import "time"

// MetricsObserver defines the interface for observing grouping events.
type MetricsObserver interface {
	// OnGroupBy is called when a GroupBy completes.
	OnGroupBy(duration time.Duration, groups int, err error)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (o *NoopMetricsObserver) OnGroupBy(duration time.Duration, groups int, err error) {}
