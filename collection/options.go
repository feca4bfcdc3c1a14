package collection

import (
	"io"
	"log/slog"

	"github.com/hupe1980/treeman/internal/parallel"
	"github.com/hupe1980/treeman/internal/resource"
)

// Config holds the tuning knobs of a collection.
type Config struct {
	// MaxHistory bounds the stored level count, level 0 included.
	MaxHistory int

	// ParallelThreshold is the record count at which predicates and
	// extractors fan out.
	ParallelThreshold int

	// GatherThreshold is the position count at which materialization fans out.
	GatherThreshold int

	// BitChunkSize is the chunk length of parallel bit index builds.
	BitChunkSize int

	// PlannerMinRows is the record count below which field filters scan
	// instead of using the index.
	PlannerMinRows int

	// PlannerMaxSelectivity is the estimated selectivity above which field
	// filters scan instead of using the index.
	PlannerMaxSelectivity float64

	// FilterRetries bounds optimistic commit attempts per filter.
	FilterRetries int

	// MaxWorkers bounds parallel fan-out. Zero means GOMAXPROCS.
	MaxWorkers int

	// NGramSize is the text index n-gram length.
	NGramSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistory:            50,
		ParallelThreshold:     10_000,
		GatherThreshold:       100_000,
		BitChunkSize:          4096,
		PlannerMinRows:        1000,
		PlannerMaxSelectivity: 0.1,
		FilterRetries:         8,
		NGramSize:             3,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MaxHistory < 2 {
		c.MaxHistory = d.MaxHistory
	}
	if c.ParallelThreshold <= 0 {
		c.ParallelThreshold = d.ParallelThreshold
	}
	if c.GatherThreshold <= 0 {
		c.GatherThreshold = d.GatherThreshold
	}
	if c.BitChunkSize <= 0 {
		c.BitChunkSize = d.BitChunkSize
	}
	if c.PlannerMinRows < 0 {
		c.PlannerMinRows = d.PlannerMinRows
	}
	if c.PlannerMaxSelectivity <= 0 {
		c.PlannerMaxSelectivity = d.PlannerMaxSelectivity
	}
	if c.FilterRetries <= 0 {
		c.FilterRetries = d.FilterRetries
	}
	if c.NGramSize <= 0 {
		c.NGramSize = d.NGramSize
	}
	return c
}

func (c Config) scan() parallel.Config {
	return parallel.Config{Threshold: c.ParallelThreshold, Workers: c.MaxWorkers}
}

func (c Config) gather() parallel.Config {
	return parallel.Config{Threshold: c.GatherThreshold, Workers: c.MaxWorkers}
}

type options struct {
	cfg        Config
	logger     *slog.Logger
	metrics    MetricsObserver
	controller *resource.Controller
}

func defaultOptions() options {
	return options{
		cfg:     DefaultConfig(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: &NoopMetricsObserver{},
	}
}

// Option defines a configuration option for a collection.
type Option func(*options)

// WithConfig sets the tuning knobs. Zero fields take their defaults.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg.normalized()
	}
}

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

// WithResourceController sets the controller that accounts index memory
// and throttles builds.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}
