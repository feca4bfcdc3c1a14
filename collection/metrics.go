package collection

import "time"

// MetricsObserver defines the interface for observing collection events.
type MetricsObserver interface {
	// OnFilter is called when a filter commits. levels is the stored level
	// count afterwards.
	OnFilter(duration time.Duration, levels, in, out int, err error)

	// OnIndexBuild is called when an index build or rebuild completes.
	OnIndexBuild(duration time.Duration, kind string, err error)

	// OnQuery is called when an index query completes.
	OnQuery(duration time.Duration, kind string, matches int, err error)

	// OnRetryExhausted is called when a filter gives up after losing every
	// commit race.
	OnRetryExhausted()
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (o *NoopMetricsObserver) OnFilter(duration time.Duration, levels, in, out int, err error)     {}
func (o *NoopMetricsObserver) OnIndexBuild(duration time.Duration, kind string, err error)         {}
func (o *NoopMetricsObserver) OnQuery(duration time.Duration, kind string, matches int, err error) {}
func (o *NoopMetricsObserver) OnRetryExhausted()                                                   {}
