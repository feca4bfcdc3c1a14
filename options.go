package treeman

import (
	"github.com/hupe1980/treeman/collection"
	"github.com/hupe1980/treeman/group"
	"github.com/hupe1980/treeman/internal/resource"
)

type options struct {
	cfg              Config
	logger           *Logger
	metricsCollector MetricsCollector
}

func defaultOptions() options {
	return options{
		cfg:              DefaultConfig(),
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
}

// Option configures the constructors of this package.
type Option func(*options)

// WithConfig sets the tuning knobs. See LoadConfig for reading them from
// the environment.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. If nil is passed,
// metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

func resolve(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CollectionOptions translates opts into collection options. Every call
// creates a new resource controller, so collections built from one result
// share an index memory budget.
func CollectionOptions(opts ...Option) []collection.Option {
	o := resolve(opts)
	return o.collectionOptions()
}

func (o options) collectionOptions() []collection.Option {
	return []collection.Option{
		collection.WithConfig(o.cfg.collection()),
		collection.WithLogger(o.logger.Logger),
		collection.WithMetricsObserver(observer{mc: o.metricsCollector}),
		collection.WithResourceController(resource.NewController(o.cfg.resource())),
	}
}

func (o options) groupOptions() []group.Option {
	return []group.Option{
		group.WithLogger(o.logger.Logger),
		group.WithMetricsObserver(observer{mc: o.metricsCollector}),
		group.WithMaxWorkers(o.cfg.MaxWorkers),
	}
}
