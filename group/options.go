package group

import (
	"io"
	"log/slog"

	"github.com/hupe1980/treeman/internal/parallel"
)

type options struct {
	logger  *slog.Logger
	metrics MetricsObserver
	workers int
}

func defaultOptions() *options {
	return &options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: &NoopMetricsObserver{},
	}
}

// fan is the fan-out used across children. Two children already run
// concurrently.
func (o *options) fan() parallel.Config {
	return parallel.Config{Threshold: 2, Workers: o.workers}
}

// Option defines a configuration option for a tree.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsObserver sets the metrics observer.
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithMaxWorkers bounds the goroutines used across children. Zero means
// GOMAXPROCS.
func WithMaxWorkers(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.workers = n
		}
	}
}
