package treeman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
		assert.Equal(t, 50, cfg.MaxHistory)
		assert.Equal(t, 3, cfg.NGramSize)
		assert.InDelta(t, 0.1, cfg.PlannerMaxSelectivity, 1e-12)
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("TREEMAN_MAX_HISTORY", "10")
		t.Setenv("TREEMAN_PLANNER_MIN_ROWS", "0")
		t.Setenv("TREEMAN_INDEX_MEMORY_LIMIT", "1048576")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 10, cfg.MaxHistory)
		assert.Equal(t, 0, cfg.PlannerMinRows)
		assert.Equal(t, int64(1<<20), cfg.IndexMemoryLimit)
		assert.Equal(t, 10000, cfg.ParallelThreshold)
	})

	t.Run("Invalid", func(t *testing.T) {
		t.Setenv("TREEMAN_MAX_HISTORY", "many")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load config")
	})
}

func TestConfigApplied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistory = 3

	c := New([]int{1, 2, 3, 4, 5, 6}, WithConfig(cfg))
	for i := range 5 {
		require.NoError(t, c.Filter(func(v *int) bool { return *v > i }))
	}
	assert.Equal(t, 3, c.StoredLevelsCount())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 6, c.SourceLen())
}
