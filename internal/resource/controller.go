package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when an index would exceed the memory budget.
var ErrMemoryLimitExceeded = errors.New("index memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes caps the bytes held by registered indices.
	// If 0, usage is tracked but not limited.
	MemoryLimitBytes int64

	// MaxRebuilds is the number of concurrent index rebuild passes.
	// If 0, defaults to 1.
	MaxRebuilds int64

	// BuildItemsPerSec throttles records fed to extractors during builds.
	// If 0, unlimited.
	BuildItemsPerSec int64
}

// Controller manages index memory, rebuild concurrency and build throughput.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	rebuildSem *semaphore.Weighted

	buildLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxRebuilds <= 0 {
		cfg.MaxRebuilds = 1
	}

	c := &Controller{
		cfg:        cfg,
		rebuildSem: semaphore.NewWeighted(cfg.MaxRebuilds),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.BuildItemsPerSec > 0 {
		c.buildLimiter = rate.NewLimiter(rate.Limit(cfg.BuildItemsPerSec), int(cfg.BuildItemsPerSec))
	}

	return c
}

// AcquireMemory reserves bytes for an index.
// Returns ErrMemoryLimitExceeded if the limit would be exceeded.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return ErrMemoryLimitExceeded
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory returns bytes reserved by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the accounted index bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireRebuild reserves a rebuild slot, blocking while all are busy.
func (c *Controller) AcquireRebuild(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rebuildSem.Acquire(ctx, 1)
}

// TryAcquireRebuild reserves a rebuild slot without blocking.
func (c *Controller) TryAcquireRebuild() bool {
	if c == nil {
		return true
	}
	return c.rebuildSem.TryAcquire(1)
}

// ReleaseRebuild releases a rebuild slot.
func (c *Controller) ReleaseRebuild() {
	if c == nil {
		return
	}
	c.rebuildSem.Release(1)
}

// AcquireBuild waits until n more records may be fed to an extractor.
// Requests larger than one second of budget are paced in burst-sized steps.
func (c *Controller) AcquireBuild(ctx context.Context, n int) error {
	if c == nil || c.buildLimiter == nil || n <= 0 {
		return nil
	}
	burst := c.buildLimiter.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := c.buildLimiter.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
