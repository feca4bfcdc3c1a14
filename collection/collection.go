package collection

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"
	"weak"

	"github.com/hupe1980/treeman/internal/logging"
	"github.com/hupe1980/treeman/internal/parallel"
)

const (
	labelSource   = "source"
	labelFiltered = "filtered"
)

// source is the immutable record sequence of an owned collection.
type source[T any] struct {
	items []*T
}

// level is one history entry. items is the handle sequence of an owned
// level; positions index the owner's source and are nil on owned level 0.
type level[T any] struct {
	label     string
	items     []*T
	positions []int
	size      int
}

type state[T any] struct {
	version uint64
	levels  []level[T]
}

func (s *state[T]) current() level[T] { return s.levels[len(s.levels)-1] }

// LevelInfo describes one stored level.
type LevelInfo struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Items   int    `json:"items"`
	Current bool   `json:"current"`
}

// Collection is a filterable view over a sequence of records of type T.
// Records are held as *T handles and are never copied.
//
// All methods are safe for concurrent use.
type Collection[T any] struct {
	derived bool
	owned   atomic.Pointer[source[T]]
	parent  weak.Pointer[source[T]]

	state    atomic.Pointer[state[T]]
	versions atomic.Uint64
	reg      registry[T]

	opts options
}

func newCollection[T any](opts []Option) *Collection[T] {
	c := &Collection[T]{opts: defaultOptions()}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// FromRecords creates an owned collection holding a handle to a copy of
// every record.
func FromRecords[T any](records []T, opts ...Option) *Collection[T] {
	handles := make([]*T, len(records))
	for i := range records {
		r := records[i]
		handles[i] = &r
	}
	return FromShared(handles, opts...)
}

// FromShared creates an owned collection over existing record handles.
// The handles are shared, not copied.
func FromShared[T any](handles []*T, opts ...Option) *Collection[T] {
	c := newCollection[T](opts)
	src := &source[T]{items: slices.Clip(handles)}
	c.owned.Store(src)
	c.state.Store(&state[T]{
		version: c.versions.Add(1),
		levels:  []level[T]{{label: labelSource, items: src.items, size: len(src.items)}},
	})
	return c
}

// FromParentPositions creates a derived collection over the records of
// parent's source at the given positions. If parent is itself derived, the
// new collection refers to the same owner.
func FromParentPositions[T any](parent *Collection[T], positions []int, opts ...Option) (*Collection[T], error) {
	src, base, err := parent.ownerPositions()
	if err != nil {
		return nil, err
	}
	resolved := make([]int, len(positions))
	for i, p := range positions {
		if p < 0 || p >= len(base) {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidPosition, p, len(base))
		}
		resolved[i] = base[p]
	}
	if len(opts) == 0 {
		opts = []Option{inherit(parent.opts)}
	}
	return derive(src, resolved, opts), nil
}

// derive wraps positions into src, which the caller keeps alive for the
// duration of the call.
func derive[T any](src *source[T], positions []int, opts []Option) *Collection[T] {
	c := newCollection[T](opts)
	c.derived = true
	c.parent = weak.Make(src)
	c.state.Store(&state[T]{
		version: c.versions.Add(1),
		levels:  []level[T]{{label: labelSource, positions: positions, size: len(positions)}},
	})
	return c
}

func inherit(o options) Option {
	return func(dst *options) { *dst = o }
}

// ownerPositions returns the owner's source and this collection's source
// positions into it.
func (c *Collection[T]) ownerPositions() (*source[T], []int, error) {
	src := c.resolve()
	if src == nil {
		return nil, nil, ErrParentDataUnavailable
	}
	st := c.state.Load()
	return src, c.positionsOf(src, st.levels[0]), nil
}

// currentPositions returns the current level as positions into the owner's
// source, together with a handle that keeps the owner alive.
func (c *Collection[T]) currentPositions() (*source[T], []int, error) {
	src := c.resolve()
	if src == nil {
		return nil, nil, ErrParentDataUnavailable
	}
	return src, c.positionsOf(src, c.state.Load().current()), nil
}

func (c *Collection[T]) resolve() *source[T] {
	if c.derived {
		return c.parent.Value()
	}
	return c.owned.Load()
}

func (c *Collection[T]) positionsOf(src *source[T], l level[T]) []int {
	if l.positions != nil {
		return l.positions
	}
	ps := make([]int, len(src.items))
	for i := range ps {
		ps[i] = i
	}
	return ps
}

// materialize returns the handle sequence of the current level of st.
func (c *Collection[T]) materialize(st *state[T]) []*T {
	l := st.current()
	if !c.derived {
		if c.owned.Load() == nil {
			return []*T{}
		}
		return l.items
	}
	src := c.parent.Value()
	if src == nil {
		return []*T{}
	}
	return parallel.Gather(c.opts.cfg.gather(), src.items, l.positions)
}

// Items returns the current level's record handles. The returned slice must
// not be modified. A derived collection whose owner is gone returns an
// empty slice.
func (c *Collection[T]) Items() []*T {
	return c.materialize(c.state.Load())
}

// At returns the i-th record of the current level.
func (c *Collection[T]) At(i int) (*T, error) {
	items := c.Items()
	if i < 0 || i >= len(items) {
		return nil, fmt.Errorf("%w: position %d of %d", ErrDataNotFound, i, len(items))
	}
	return items[i], nil
}

// Len returns the record count of the current level.
func (c *Collection[T]) Len() int {
	if !c.IsValid() {
		return 0
	}
	return c.state.Load().current().size
}

// IsEmpty reports whether the current level is empty.
func (c *Collection[T]) IsEmpty() bool { return c.Len() == 0 }

// SourceLen returns the record count of level 0.
func (c *Collection[T]) SourceLen() int {
	if !c.IsValid() {
		return 0
	}
	return c.state.Load().levels[0].size
}

// IsValid reports whether the records are still reachable. It is false for
// a released owned collection and for a derived collection whose owner is
// gone.
func (c *Collection[T]) IsValid() bool { return c.resolve() != nil }

// IsDerived reports whether the collection is a derived view.
func (c *Collection[T]) IsDerived() bool { return c.derived }

// Release drops an owned collection's records. Derived collections over it
// become empty once the records are collected.
func (c *Collection[T]) Release() error {
	if c.derived {
		return ErrWrongStorageMode
	}
	c.owned.Store(nil)
	c.state.Store(&state[T]{
		version: c.versions.Add(1),
		levels:  []level[T]{{label: labelSource, items: []*T{}}},
	})
	c.dropIndexes()
	return nil
}

// Filter keeps the current records satisfying pred as a new level.
func (c *Collection[T]) Filter(pred func(*T) bool) error {
	return c.FilterLabeled(labelFiltered, pred)
}

// FilterLabeled is Filter with a level label.
func (c *Collection[T]) FilterLabeled(label string, pred func(*T) bool) error {
	return c.apply(label, func(_ *state[T], cur []*T) ([]int, error) {
		return parallel.FilterIndex(c.opts.cfg.scan(), cur, pred), nil
	})
}

// selector picks positions of cur, ascending.
type selector[T any] func(st *state[T], cur []*T) ([]int, error)

// selection is the outcome of a selector. items, when set, already holds
// cur[kept[i]] for every i.
type selection[T any] struct {
	kept  []int
	items []*T
}

// apply commits the selected positions as a new level, retrying against
// concurrent writers.
func (c *Collection[T]) apply(label string, sel selector[T]) error {
	return c.applySelection(label, func(st *state[T], cur []*T) (selection[T], error) {
		kept, err := sel(st, cur)
		return selection[T]{kept: kept}, err
	})
}

func (c *Collection[T]) applySelection(label string, sel func(st *state[T], cur []*T) (selection[T], error)) error {
	start := time.Now()
	for range c.opts.cfg.FilterRetries {
		st := c.state.Load()
		cur := c.materialize(st)
		picked, err := sel(st, cur)
		if err != nil {
			c.opts.metrics.OnFilter(time.Since(start), len(st.levels), len(cur), 0, err)
			logging.Filter(context.Background(), c.opts.logger, label, len(cur), 0, err)
			return err
		}
		kept := picked.kept
		next, items := c.push(st, label, cur, picked)
		if !c.state.CompareAndSwap(st, next) {
			continue
		}
		c.opts.metrics.OnFilter(time.Since(start), len(next.levels), len(cur), len(kept), nil)
		logging.Filter(context.Background(), c.opts.logger.With(logging.KeyHistoryLevel, len(next.levels)-1), label, len(cur), len(kept), nil)
		c.rebuildIndexes(next, items)
		return nil
	}
	c.opts.logger.Warn("filter retries exhausted", logging.KeyLabel, label, "retries", c.opts.cfg.FilterRetries)
	c.opts.metrics.OnRetryExhausted()
	return nil
}

func (c *Collection[T]) push(st *state[T], label string, cur []*T, picked selection[T]) (*state[T], []*T) {
	kept := picked.kept
	if kept == nil {
		kept = []int{}
	}
	prev := st.current()
	l := level[T]{label: label, size: len(kept)}
	items := picked.items
	if items == nil {
		items = parallel.Gather(c.opts.cfg.gather(), cur, kept)
	}
	if c.derived {
		l.positions = parallel.Gather(c.opts.cfg.gather(), prev.positions, kept)
	} else {
		l.items = items
		if prev.positions == nil {
			l.positions = kept
		} else {
			l.positions = parallel.Gather(c.opts.cfg.gather(), prev.positions, kept)
		}
	}

	levels := make([]level[T], 0, len(st.levels)+1)
	levels = append(levels, st.levels...)
	levels = append(levels, l)
	if limit := c.opts.cfg.MaxHistory; len(levels) > limit {
		levels = append(levels[:1], levels[len(levels)-limit+1:]...)
	}
	return &state[T]{version: c.versions.Add(1), levels: levels}, items
}

// GoToLevel truncates the history to levels 0..n and makes n current. All
// indices are dropped.
func (c *Collection[T]) GoToLevel(n int) error {
	for {
		st := c.state.Load()
		if n < 0 || n >= len(st.levels) {
			return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidLevel, n, len(st.levels))
		}
		next := &state[T]{version: c.versions.Add(1), levels: slices.Clone(st.levels[:n+1])}
		if c.state.CompareAndSwap(st, next) {
			c.dropIndexes()
			c.opts.logger.Debug("level restored", logging.KeyHistoryLevel, n)
			return nil
		}
	}
}

// Up moves to the previous level. It does nothing at level 0.
func (c *Collection[T]) Up() error {
	if cur := c.CurrentLevel(); cur > 0 {
		return c.GoToLevel(cur - 1)
	}
	return nil
}

// ResetToSource discards every filtered level and all indices.
func (c *Collection[T]) ResetToSource() error {
	return c.GoToLevel(0)
}

// CurrentLevel returns the index of the current level.
func (c *Collection[T]) CurrentLevel() int { return len(c.state.Load().levels) - 1 }

// StoredLevelsCount returns the number of stored levels, level 0 included.
func (c *Collection[T]) StoredLevelsCount() int { return len(c.state.Load().levels) }

// LevelName returns the label of level n.
func (c *Collection[T]) LevelName(n int) (string, error) {
	st := c.state.Load()
	if n < 0 || n >= len(st.levels) {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidLevel, n, len(st.levels))
	}
	return st.levels[n].label, nil
}

// LevelInfo describes every stored level.
func (c *Collection[T]) LevelInfo() []LevelInfo {
	st := c.state.Load()
	out := make([]LevelInfo, len(st.levels))
	for i, l := range st.levels {
		out[i] = LevelInfo{Index: i, Label: l.label, Items: l.size, Current: i == len(st.levels)-1}
	}
	return out
}

// ApplyIndices returns the current records at the given positions, in the
// given order.
func (c *Collection[T]) ApplyIndices(positions []int) ([]*T, error) {
	items := c.Items()
	for _, p := range positions {
		if p < 0 || p >= len(items) {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidPosition, p, len(items))
		}
	}
	return parallel.Gather(c.opts.cfg.gather(), items, positions), nil
}

// FilterStateInfo summarises the navigation state.
func (c *Collection[T]) FilterStateInfo() string {
	st := c.state.Load()
	cur := st.current()
	return fmt.Sprintf("level %d/%d %q: %d of %d items, %d indexes",
		len(st.levels)-1, c.opts.cfg.MaxHistory-1, cur.label, c.Len(), c.SourceLen(), len(c.reg.snapshot()))
}
