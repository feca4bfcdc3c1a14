package treeman

import (
	"fmt"

	"github.com/hupe1980/treeman/collection"
	"github.com/hupe1980/treeman/internal/resource"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "TREEMAN"

// Config holds engine-wide tuning knobs. Every field can be set from the
// environment, e.g. TREEMAN_MAX_HISTORY.
type Config struct {
	MaxHistory            int     `envconfig:"MAX_HISTORY" default:"50"`
	ParallelThreshold     int     `envconfig:"PARALLEL_THRESHOLD" default:"10000"`
	GatherThreshold       int     `envconfig:"GATHER_THRESHOLD" default:"100000"`
	BitChunkSize          int     `envconfig:"BIT_CHUNK_SIZE" default:"4096"`
	PlannerMinRows        int     `envconfig:"PLANNER_MIN_ROWS" default:"1000"`
	PlannerMaxSelectivity float64 `envconfig:"PLANNER_MAX_SELECTIVITY" default:"0.1"`
	FilterRetries         int     `envconfig:"FILTER_RETRIES" default:"8"`
	MaxWorkers            int     `envconfig:"MAX_WORKERS" default:"0"`        // 0 means GOMAXPROCS
	IndexMemoryLimit      int64   `envconfig:"INDEX_MEMORY_LIMIT" default:"0"` // bytes, 0 means unlimited
	MaxRebuilds           int64   `envconfig:"MAX_REBUILDS" default:"1"`
	BuildItemsPerSec      int64   `envconfig:"BUILD_ITEMS_PER_SEC" default:"0"` // 0 means unlimited
	NGramSize             int     `envconfig:"NGRAM_SIZE" default:"3"`
}

// DefaultConfig returns the configuration LoadConfig yields on an empty
// environment.
func DefaultConfig() Config {
	d := collection.DefaultConfig()
	return Config{
		MaxHistory:            d.MaxHistory,
		ParallelThreshold:     d.ParallelThreshold,
		GatherThreshold:       d.GatherThreshold,
		BitChunkSize:          d.BitChunkSize,
		PlannerMinRows:        d.PlannerMinRows,
		PlannerMaxSelectivity: d.PlannerMaxSelectivity,
		FilterRetries:         d.FilterRetries,
		MaxWorkers:            d.MaxWorkers,
		MaxRebuilds:           1,
		NGramSize:             d.NGramSize,
	}
}

// LoadConfig reads the configuration from TREEMAN_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) collection() collection.Config {
	return collection.Config{
		MaxHistory:            c.MaxHistory,
		ParallelThreshold:     c.ParallelThreshold,
		GatherThreshold:       c.GatherThreshold,
		BitChunkSize:          c.BitChunkSize,
		PlannerMinRows:        c.PlannerMinRows,
		PlannerMaxSelectivity: c.PlannerMaxSelectivity,
		FilterRetries:         c.FilterRetries,
		MaxWorkers:            c.MaxWorkers,
		NGramSize:             c.NGramSize,
	}
}

func (c Config) resource() resource.Config {
	return resource.Config{
		MemoryLimitBytes: c.IndexMemoryLimit,
		MaxRebuilds:      c.MaxRebuilds,
		BuildItemsPerSec: c.BuildItemsPerSec,
	}
}
