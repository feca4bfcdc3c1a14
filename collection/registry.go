package collection

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/treeman/field"
	"github.com/hupe1980/treeman/index"
	"github.com/hupe1980/treeman/internal/conv"
	"github.com/hupe1980/treeman/internal/logging"
	"github.com/hupe1980/treeman/internal/parallel"
	"github.com/shopspring/decimal"
)

// entry is one registered index. The index and its rebuilder are replaced
// together, so every index can be rebuilt without the caller.
type entry[T any] struct {
	id      uint64
	kind    index.Kind
	idx     index.Index
	version uint64
	bytes   int64
	build   func(items []*T) (index.Index, error)
	// extract yields the indexed value of field and bucketed indices.
	extract func(*T) field.Value
}

type registry[T any] struct {
	mu      sync.Mutex
	entries atomic.Pointer[map[string]*entry[T]]
	ids     atomic.Uint64
}

func (r *registry[T]) snapshot() map[string]*entry[T] {
	if m := r.entries.Load(); m != nil {
		return *m
	}
	return nil
}

func (r *registry[T]) get(name string) (*entry[T], bool) {
	e, ok := r.snapshot()[name]
	return e, ok
}

// mutate applies fn to a copy of the map under the write lock and
// publishes the copy.
func (r *registry[T]) mutate(fn func(m map[string]*entry[T]) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := maps.Clone(r.snapshot())
	if m == nil {
		m = make(map[string]*entry[T])
	}
	if err := fn(m); err != nil {
		return err
	}
	r.entries.Store(&m)
	return nil
}

// IndexInfo describes a registered index.
type IndexInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Type        string `json:"type"`
	Records     int    `json:"records"`
	MemoryBytes int    `json:"memory_bytes"`
	Stale       bool   `json:"stale"`
}

func (c *Collection[T]) createIndex(name string, kind index.Kind, build func([]*T) (index.Index, error), extract func(*T) field.Value) error {
	if e, ok := c.reg.get(name); ok && e.kind != kind {
		return &index.CompatibilityError{Name: name, Existing: e.kind.String(), Requested: kind.String()}
	}

	st := c.state.Load()
	items := c.materialize(st)
	idx, bytes, err := c.buildIndex(kind, build, items)
	if err != nil {
		return index.NewBuildError(name, err)
	}

	e := &entry[T]{
		id:      c.reg.ids.Add(1),
		kind:    kind,
		idx:     idx,
		version: st.version,
		bytes:   bytes,
		build:   build,
		extract: extract,
	}
	err = c.reg.mutate(func(m map[string]*entry[T]) error {
		if old, ok := m[name]; ok {
			if old.kind != kind {
				return &index.CompatibilityError{Name: name, Existing: old.kind.String(), Requested: kind.String()}
			}
			c.opts.controller.ReleaseMemory(old.bytes)
		}
		m[name] = e
		return nil
	})
	if err != nil {
		c.opts.controller.ReleaseMemory(bytes)
		return err
	}
	logging.IndexBuild(context.Background(), c.opts.logger, name, kind.String(), idx.Len(), nil)
	return nil
}

// buildIndex runs build under the build throttle and reserves the
// resulting index's memory.
func (c *Collection[T]) buildIndex(kind index.Kind, build func([]*T) (index.Index, error), items []*T) (index.Index, int64, error) {
	start := time.Now()
	idx, bytes, err := func() (index.Index, int64, error) {
		if err := conv.CheckLen(len(items)); err != nil {
			return nil, 0, err
		}
		if err := c.opts.controller.AcquireBuild(context.Background(), len(items)); err != nil {
			return nil, 0, err
		}
		idx, err := build(items)
		if err != nil {
			return nil, 0, err
		}
		bytes := int64(idx.MemorySize())
		if err := c.opts.controller.AcquireMemory(bytes); err != nil {
			return nil, 0, err
		}
		return idx, bytes, nil
	}()
	c.opts.metrics.OnIndexBuild(time.Since(start), kind.String(), err)
	return idx, bytes, err
}

// refresh rebuilds a stale entry for st and publishes it if the registry
// still holds the same index. The rebuilt entry is returned either way.
func (c *Collection[T]) refresh(name string, e *entry[T], st *state[T], items []*T) (*entry[T], error) {
	idx, bytes, err := c.buildIndex(e.kind, e.build, items)
	if err != nil {
		return nil, index.NewBuildError(name, err)
	}
	fresh := *e
	fresh.idx, fresh.bytes, fresh.version = idx, bytes, st.version
	if !c.publish(name, &fresh) {
		c.opts.controller.ReleaseMemory(bytes)
	}
	return &fresh, nil
}

// publish replaces the entry with the same id if fresh is newer.
func (c *Collection[T]) publish(name string, fresh *entry[T]) bool {
	published := false
	_ = c.reg.mutate(func(m map[string]*entry[T]) error {
		old, ok := m[name]
		if !ok || old.id != fresh.id || old.version >= fresh.version {
			return nil
		}
		m[name] = fresh
		c.opts.controller.ReleaseMemory(old.bytes)
		published = true
		return nil
	})
	return published
}

// rebuildIndexes rebuilds every registered index against the level of st
// in parallel when a rebuild slot is free. Builds run outside the registry
// lock.
func (c *Collection[T]) rebuildIndexes(st *state[T], items []*T) {
	entries := c.reg.snapshot()
	if len(entries) == 0 {
		return
	}
	// Entries skipped here stay stale and are rebuilt by the next lookup.
	if !c.opts.controller.TryAcquireRebuild() {
		c.opts.logger.Debug("rebuild slots busy, deferring index rebuild", "indexes", len(entries))
		return
	}
	defer c.opts.controller.ReleaseRebuild()

	names := slices.Sorted(maps.Keys(entries))
	fan := parallel.Config{Threshold: 2, Workers: c.opts.cfg.MaxWorkers}
	_ = fan.Each(len(names), func(i int) error {
		name := names[i]
		e := entries[name]
		if e.version >= st.version {
			return nil
		}
		fresh, err := c.refresh(name, e, st, items)
		if err != nil {
			logging.IndexBuild(context.Background(), c.opts.logger, name, e.kind.String(), len(items), err)
			c.removeEntry(name, e.id)
			return nil
		}
		logging.IndexBuild(context.Background(), c.opts.logger, name, e.kind.String(), fresh.idx.Len(), nil)
		return nil
	})
}

func (c *Collection[T]) removeEntry(name string, id uint64) {
	_ = c.reg.mutate(func(m map[string]*entry[T]) error {
		if old, ok := m[name]; ok && old.id == id {
			delete(m, name)
			c.opts.controller.ReleaseMemory(old.bytes)
		}
		return nil
	})
}

func (c *Collection[T]) dropIndexes() {
	_ = c.reg.mutate(func(m map[string]*entry[T]) error {
		for name, e := range m {
			c.opts.controller.ReleaseMemory(e.bytes)
			delete(m, name)
		}
		return nil
	})
}

// CreateFieldIndex builds an ordered index over extract(record). Every
// record must yield a value of the same kind. An existing field index of
// the same name is replaced.
func (c *Collection[T]) CreateFieldIndex(name string, extract func(*T) field.Value) error {
	cfg := c.opts.cfg.scan()
	build := func(items []*T) (index.Index, error) {
		values := parallel.Map(cfg, items, func(_ int, it *T) field.Value { return extract(it) })
		return index.BuildField(values, cfg)
	}
	return c.createIndex(name, index.KindField, build, extract)
}

// CreateBucketedIndex builds a bucketed range index over decimal values.
func (c *Collection[T]) CreateBucketedIndex(name string, extract func(*T) decimal.Decimal, width decimal.Decimal) error {
	if !width.IsPositive() {
		return index.NewBuildError(name, index.ErrInvalidBucketSize)
	}
	cfg := c.opts.cfg.scan()
	build := func(items []*T) (index.Index, error) {
		values := parallel.Map(cfg, items, func(_ int, it *T) decimal.Decimal { return extract(it) })
		return index.BuildDecimalBuckets(values, width)
	}
	return c.createIndex(name, index.KindBucketed, build, func(it *T) field.Value {
		return field.Decimal(extract(it))
	})
}

// CreateBucketedFloatIndex builds a bucketed range index over float values.
func (c *Collection[T]) CreateBucketedFloatIndex(name string, extract func(*T) float64, width float64) error {
	if !(width > 0) {
		return index.NewBuildError(name, index.ErrInvalidBucketSize)
	}
	cfg := c.opts.cfg.scan()
	build := func(items []*T) (index.Index, error) {
		values := parallel.Map(cfg, items, func(_ int, it *T) float64 { return extract(it) })
		return index.BuildFloatBuckets(values, width)
	}
	return c.createIndex(name, index.KindBucketed, build, func(it *T) field.Value {
		return field.F64(extract(it))
	})
}

// CreateBitIndex builds a boolean index from pred.
func (c *Collection[T]) CreateBitIndex(name string, pred func(*T) bool) error {
	opts := index.BitBuildOptions{Parallel: c.opts.cfg.scan(), ChunkSize: c.opts.cfg.BitChunkSize}
	build := func(items []*T) (index.Index, error) {
		return index.BuildBit(items, pred, opts), nil
	}
	return c.createIndex(name, index.KindBit, build, nil)
}

// CreateTextIndex builds an n-gram index over extract(record).
func (c *Collection[T]) CreateTextIndex(name string, extract func(*T) string) error {
	opts := index.TextOptions{NGramSize: c.opts.cfg.NGramSize, Parallel: c.opts.cfg.scan()}
	build := func(items []*T) (index.Index, error) {
		return index.BuildText(items, extract, opts)
	}
	return c.createIndex(name, index.KindText, build, nil)
}

// DropIndex removes the named index. It reports whether it existed.
func (c *Collection[T]) DropIndex(name string) bool {
	dropped := false
	_ = c.reg.mutate(func(m map[string]*entry[T]) error {
		if e, ok := m[name]; ok {
			delete(m, name)
			c.opts.controller.ReleaseMemory(e.bytes)
			dropped = true
		}
		return nil
	})
	return dropped
}

// ClearAllIndexes removes every index.
func (c *Collection[T]) ClearAllIndexes() { c.dropIndexes() }

// HasIndex reports whether an index is registered under name.
func (c *Collection[T]) HasIndex(name string) bool {
	_, ok := c.reg.get(name)
	return ok
}

// IndexKind returns the kind of the named index.
func (c *Collection[T]) IndexKind(name string) (index.Kind, error) {
	e, ok := c.reg.get(name)
	if !ok {
		return 0, &index.NotFoundError{Names: []string{name}}
	}
	return e.kind, nil
}

// ListIndexes describes every registered index, sorted by name.
func (c *Collection[T]) ListIndexes() []IndexInfo {
	st := c.state.Load()
	entries := c.reg.snapshot()
	out := make([]IndexInfo, 0, len(entries))
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		e := entries[name]
		out = append(out, IndexInfo{
			Name:        name,
			Kind:        e.kind.String(),
			Type:        e.idx.Describe(),
			Records:     e.idx.Len(),
			MemoryBytes: e.idx.MemorySize(),
			Stale:       e.version != st.version,
		})
	}
	return out
}

// ValidateIndexes checks that every index carries its rebuilder and
// describes the current level.
func (c *Collection[T]) ValidateIndexes() error {
	st := c.state.Load()
	size := st.current().size
	var bad []string
	entries := c.reg.snapshot()
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		e := entries[name]
		if e.build == nil || e.version != st.version || e.idx.Len() != size {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		return &IndexMismatchError{Names: bad}
	}
	return nil
}

// lookup returns the named entry, rebuilt for st if stale, after checking
// it is one of kinds.
func (c *Collection[T]) lookup(name string, st *state[T], items []*T, kinds ...index.Kind) (*entry[T], error) {
	e, ok := c.reg.get(name)
	if !ok {
		return nil, &index.NotFoundError{Names: []string{name}}
	}
	if !slices.Contains(kinds, e.kind) {
		return nil, &index.CompatibilityError{Name: name, Existing: e.kind.String(), Requested: kinds[0].String()}
	}
	if e.version == st.version {
		return e, nil
	}
	if err := c.opts.controller.AcquireRebuild(context.Background()); err != nil {
		return nil, index.NewBuildError(name, err)
	}
	defer c.opts.controller.ReleaseRebuild()
	return c.refresh(name, e, st, items)
}

// lookupAll resolves several names, reporting every missing one at once.
func (c *Collection[T]) lookupAll(names []string, st *state[T], items []*T, kinds ...index.Kind) ([]*entry[T], error) {
	var missing []string
	for _, n := range names {
		if !c.HasIndex(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, &index.NotFoundError{Names: missing}
	}
	out := make([]*entry[T], len(names))
	for i, n := range names {
		e, err := c.lookup(n, st, items, kinds...)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
