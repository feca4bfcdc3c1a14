package collection

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/treeman/field"
	"github.com/hupe1980/treeman/index"
	"github.com/hupe1980/treeman/internal/bitmap"
	"github.com/hupe1980/treeman/internal/parallel"
)

// FieldQuery is a step list evaluated against one field or bucketed index.
type FieldQuery struct {
	Name  string
	Steps []field.Step
}

// BitQuery is one link of a BitOperation chain. The first query's Op is
// ignored.
type BitQuery struct {
	Name string
	Op   index.BitOp
}

type stepFilter interface {
	CheckSteps(steps []field.Step) error
	FilterSteps(steps []field.Step) (*roaring.Bitmap, error)
}

type rangeQuerier interface {
	QueryRange(iv index.Interval) (*roaring.Bitmap, error)
}

// observe records a completed query.
func (c *Collection[T]) observe(start time.Time, kind index.Kind, matches int, err error) {
	c.opts.metrics.OnQuery(time.Since(start), kind.String(), matches, err)
}

// evalFields selects the current positions matching every query. Field
// indices are bypassed in favour of a predicate scan when they would not
// narrow the result enough; both paths select the same records.
func (c *Collection[T]) evalFields(queries []FieldQuery, st *state[T], items []*T) ([]int, error) {
	if len(queries) == 0 {
		return nil, ErrEmptyOperations
	}
	names := make([]string, len(queries))
	for i, q := range queries {
		if len(q.Steps) == 0 {
			return nil, fmt.Errorf("%w: index %q", ErrEmptyOperations, q.Name)
		}
		names[i] = q.Name
	}
	entries, err := c.lookupAll(names, st, items, index.KindField, index.KindBucketed)
	if err != nil {
		return nil, err
	}

	if !c.useIndexes(queries, entries, len(items)) {
		return c.scanFields(queries, entries, items)
	}

	var acc *roaring.Bitmap
	for i, q := range queries {
		b, err := entries[i].idx.(stepFilter).FilterSteps(q.Steps)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", q.Name, err)
		}
		if acc == nil {
			acc = b
		} else {
			acc.And(b)
		}
		if acc.IsEmpty() {
			break
		}
	}
	return bitmap.ToPositions(acc), nil
}

// useIndexes decides between index evaluation and a predicate scan.
func (c *Collection[T]) useIndexes(queries []FieldQuery, entries []*entry[T], n int) bool {
	fieldIdx := false
	selectivity := 1.0
	for i, q := range queries {
		f, ok := entries[i].idx.(*index.Field)
		if !ok {
			continue
		}
		fieldIdx = true
		for _, s := range q.Steps {
			if s.Op != field.Invert && !f.IsEfficientFor(s.Operation) {
				return false
			}
		}
		selectivity *= f.EstimateSelectivity(q.Steps)
	}
	if !fieldIdx {
		return true
	}
	if n < c.opts.cfg.PlannerMinRows {
		return false
	}
	return selectivity <= c.opts.cfg.PlannerMaxSelectivity
}

func (c *Collection[T]) scanFields(queries []FieldQuery, entries []*entry[T], items []*T) ([]int, error) {
	for i, q := range queries {
		if err := entries[i].idx.(stepFilter).CheckSteps(q.Steps); err != nil {
			return nil, fmt.Errorf("index %q: %w", q.Name, err)
		}
	}

	var (
		mu    sync.Mutex
		first error
	)
	kept := parallel.FilterIndex(c.opts.cfg.scan(), items, func(it *T) bool {
		for i, q := range queries {
			ok, err := field.Matches(q.Steps, entries[i].extract(it))
			if err != nil {
				mu.Lock()
				if first == nil {
					first = fmt.Errorf("index %q: %w", q.Name, err)
				}
				mu.Unlock()
				return false
			}
			if !ok {
				return false
			}
		}
		return true
	})
	if first != nil {
		return nil, first
	}
	return kept, nil
}

func describeFields(queries []FieldQuery) string {
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = q.Name + ": " + field.Describe(q.Steps)
	}
	return strings.Join(parts, " AND ")
}

// GetIndicesByField returns the current positions matching steps on the
// named field or bucketed index.
func (c *Collection[T]) GetIndicesByField(name string, steps []field.Step) ([]int, error) {
	return c.GetIndicesByFields([]FieldQuery{{Name: name, Steps: steps}})
}

// GetIndicesByFields returns the current positions matching every query.
func (c *Collection[T]) GetIndicesByFields(queries []FieldQuery) ([]int, error) {
	start := time.Now()
	st := c.state.Load()
	ps, err := c.evalFields(queries, st, c.materialize(st))
	c.observe(start, index.KindField, len(ps), err)
	return ps, err
}

// FilterByField keeps the records matching steps on the named index as a
// new level. A query matching nothing commits an empty level.
func (c *Collection[T]) FilterByField(name string, steps []field.Step) error {
	return c.FilterByFields([]FieldQuery{{Name: name, Steps: steps}})
}

// FilterByFields keeps the records matching every query as a new level.
func (c *Collection[T]) FilterByFields(queries []FieldQuery) error {
	return c.apply(describeFields(queries), func(st *state[T], cur []*T) ([]int, error) {
		return c.evalFields(queries, st, cur)
	})
}

func (c *Collection[T]) evalRange(name string, iv index.Interval, st *state[T], items []*T) ([]int, error) {
	e, err := c.lookup(name, st, items, index.KindBucketed, index.KindField)
	if err != nil {
		return nil, err
	}
	b, err := e.idx.(rangeQuerier).QueryRange(iv)
	if err != nil {
		return nil, fmt.Errorf("index %q: %w", name, err)
	}
	return bitmap.ToPositions(b), nil
}

// GetIndicesByRange returns the current positions whose value lies in iv.
func (c *Collection[T]) GetIndicesByRange(name string, iv index.Interval) ([]int, error) {
	start := time.Now()
	st := c.state.Load()
	ps, err := c.evalRange(name, iv, st, c.materialize(st))
	c.observe(start, index.KindBucketed, len(ps), err)
	return ps, err
}

// FilterByRange keeps the records whose value lies in iv as a new level.
func (c *Collection[T]) FilterByRange(name string, iv index.Interval) error {
	return c.apply(name+": range", func(st *state[T], cur []*T) ([]int, error) {
		return c.evalRange(name, iv, st, cur)
	})
}

func (c *Collection[T]) evalBits(queries []BitQuery, st *state[T], items []*T) ([]int, error) {
	b, err := c.foldBits(queries, st, items)
	if err != nil {
		return nil, err
	}
	return b.Positions(), nil
}

func (c *Collection[T]) foldBits(queries []BitQuery, st *state[T], items []*T) (*index.Bit, error) {
	if len(queries) == 0 {
		return nil, ErrEmptyOperations
	}
	names := make([]string, len(queries))
	for i, q := range queries {
		names[i] = q.Name
	}
	entries, err := c.lookupAll(names, st, items, index.KindBit)
	if err != nil {
		return nil, err
	}
	first := entries[0].idx.(*index.Bit)
	steps := make([]index.BitStep, 0, len(queries)-1)
	for i, q := range queries[1:] {
		steps = append(steps, index.BitStep{Op: q.Op, Bit: entries[i+1].idx.(*index.Bit)})
	}
	return first.MultiOperation(steps), nil
}

// GetIndicesByBit returns the current positions set in the named bit index.
func (c *Collection[T]) GetIndicesByBit(name string) ([]int, error) {
	return c.BitOperation([]BitQuery{{Name: name}})
}

// BitOperation folds bit indices left to right and returns the resulting
// current positions.
func (c *Collection[T]) BitOperation(queries []BitQuery) ([]int, error) {
	start := time.Now()
	st := c.state.Load()
	ps, err := c.evalBits(queries, st, c.materialize(st))
	c.observe(start, index.KindBit, len(ps), err)
	return ps, err
}

// FilterByBit keeps the records set in the named bit index as a new level.
func (c *Collection[T]) FilterByBit(name string) error {
	return c.FilterByBitOperation([]BitQuery{{Name: name}})
}

// FilterByBitOperation keeps the records selected by a BitOperation chain.
func (c *Collection[T]) FilterByBitOperation(queries []BitQuery) error {
	label := make([]string, len(queries))
	for i, q := range queries {
		if i == 0 {
			label[i] = q.Name
			continue
		}
		label[i] = q.Op.String() + " " + q.Name
	}
	return c.applySelection(strings.Join(label, " "), func(st *state[T], cur []*T) (selection[T], error) {
		b, err := c.foldBits(queries, st, cur)
		if err != nil {
			return selection[T]{}, err
		}
		return selection[T]{kept: b.Positions(), items: index.ApplyBit(b, cur, c.opts.cfg.gather())}, nil
	})
}

func (c *Collection[T]) textIndex(name string, st *state[T], items []*T) (*index.Text, error) {
	e, err := c.lookup(name, st, items, index.KindText)
	if err != nil {
		return nil, err
	}
	return e.idx.(*index.Text), nil
}

// SearchWithText returns the current positions whose indexed text contains
// query, ignoring case.
func (c *Collection[T]) SearchWithText(name, query string) ([]int, error) {
	start := time.Now()
	st := c.state.Load()
	t, err := c.textIndex(name, st, c.materialize(st))
	if err != nil {
		c.observe(start, index.KindText, 0, err)
		return nil, err
	}
	ps := t.Search(query)
	c.observe(start, index.KindText, len(ps), nil)
	return ps, nil
}

// FilterByText keeps the records whose text contains query as a new level.
func (c *Collection[T]) FilterByText(name, query string) error {
	return c.apply(fmt.Sprintf("%s: contains %q", name, query), func(st *state[T], cur []*T) ([]int, error) {
		t, err := c.textIndex(name, st, cur)
		if err != nil {
			return nil, err
		}
		return t.Search(query), nil
	})
}

// SearchComplexWords returns the current positions containing any orWord,
// every andWord and no notWord.
func (c *Collection[T]) SearchComplexWords(name string, orWords, andWords, notWords []string) ([]int, error) {
	start := time.Now()
	st := c.state.Load()
	t, err := c.textIndex(name, st, c.materialize(st))
	if err != nil {
		c.observe(start, index.KindText, 0, err)
		return nil, err
	}
	ps := t.SearchComplexWords(orWords, andWords, notWords)
	c.observe(start, index.KindText, len(ps), nil)
	return ps, nil
}

// FilterByComplexWords keeps the SearchComplexWords result as a new level.
func (c *Collection[T]) FilterByComplexWords(name string, orWords, andWords, notWords []string) error {
	label := name + ": " + index.ComplexQueryDescription(orWords, andWords, notWords)
	return c.apply(label, func(st *state[T], cur []*T) ([]int, error) {
		t, err := c.textIndex(name, st, cur)
		if err != nil {
			return nil, err
		}
		return t.SearchComplexWords(orWords, andWords, notWords), nil
	})
}

// ComplexQueryDescription renders a word query the way FilterByComplexWords
// labels its level.
func (c *Collection[T]) ComplexQueryDescription(orWords, andWords, notWords []string) string {
	return index.ComplexQueryDescription(orWords, andWords, notWords)
}

// TextStats summarises the named text index.
func (c *Collection[T]) TextStats(name string) (index.TextStats, error) {
	st := c.state.Load()
	t, err := c.textIndex(name, st, c.materialize(st))
	if err != nil {
		return index.TextStats{}, err
	}
	return t.Stats(), nil
}

// TopNGrams returns the n most frequent n-grams of the named text index.
func (c *Collection[T]) TopNGrams(name string, n int) ([]index.NGramCount, error) {
	st := c.state.Load()
	t, err := c.textIndex(name, st, c.materialize(st))
	if err != nil {
		return nil, err
	}
	return t.TopNGrams(n), nil
}

// FieldQuality returns the quality statistics of the named field index.
func (c *Collection[T]) FieldQuality(name string) (index.Quality, error) {
	st := c.state.Load()
	e, err := c.lookup(name, st, c.materialize(st), index.KindField)
	if err != nil {
		return index.Quality{}, err
	}
	return e.idx.(*index.Field).Quality(), nil
}
