package index

import (
	"fmt"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/treeman/field"
	"github.com/hupe1980/treeman/internal/bitmap"
	"github.com/hupe1980/treeman/internal/parallel"
)

// Entry pairs a value with the position holding it.
type Entry struct {
	Value    field.Value
	Position int
}

// Field is an ordered index over one field.
//
// Each distinct value owns a bitmap of the positions holding it. A second,
// value-sorted array of (value, position) pairs answers range queries by
// binary search in O(log U + k).
type Field struct {
	kind    field.Kind
	size    int
	keys    []field.Value     // distinct values, ascending
	bitmaps []*roaring.Bitmap // bitmaps[i] holds positions of keys[i]
	sorted  []Entry           // ascending by value, then position
	quality Quality
}

// bitmapFanout is the distinct-value count above which per-value bitmaps
// are built in parallel.
const bitmapFanout = 100

// BuildField indexes values, where values[i] is the field value of
// position i. All values must share one kind.
func BuildField(values []field.Value, cfg parallel.Config) (*Field, error) {
	f := &Field{size: len(values)}
	if len(values) == 0 {
		f.quality = Analyze(0, 0, 0)
		return f, nil
	}

	f.kind = values[0].Kind()
	if !f.kind.Valid() {
		return nil, fmt.Errorf("%w: position 0", field.ErrUndefinedType)
	}

	f.sorted = make([]Entry, len(values))
	for i, v := range values {
		if v.Kind() != f.kind {
			return nil, fmt.Errorf("%w: position %d has %s, index is %s", ErrMixedKinds, i, v.Kind(), f.kind)
		}
		f.sorted[i] = Entry{Value: v, Position: i}
	}

	// Entries start in position order, so a stable sort keeps positions
	// ascending within each value run.
	slices.SortStableFunc(f.sorted, func(a, b Entry) int {
		c, _ := a.Value.Compare(b.Value)
		return c
	})

	var runs []parallel.Span
	for lo := 0; lo < len(f.sorted); {
		hi := lo + 1
		for hi < len(f.sorted) && f.sorted[hi].Value.Equal(f.sorted[lo].Value) {
			hi++
		}
		runs = append(runs, parallel.Span{Lo: lo, Hi: hi})
		lo = hi
	}

	f.keys = make([]field.Value, len(runs))
	maxCount := 0
	for i, r := range runs {
		f.keys[i] = f.sorted[r.Lo].Value
		maxCount = max(maxCount, r.Len())
	}

	convert := cfg
	convert.Threshold = bitmapFanout
	f.bitmaps = parallel.Map(convert, runs, func(_ int, r parallel.Span) *roaring.Bitmap {
		keys := make([]uint32, 0, r.Len())
		for _, e := range f.sorted[r.Lo:r.Hi] {
			keys = append(keys, uint32(e.Position))
		}
		b := roaring.New()
		b.AddMany(keys)
		b.RunOptimize()
		return b
	})

	f.quality = Analyze(f.size, len(f.keys), maxCount)
	return f, nil
}

// Kind implements Index.
func (f *Field) Kind() Kind { return KindField }

// ValueKind returns the stored value kind.
func (f *Field) ValueKind() field.Kind { return f.kind }

// Len implements Index.
func (f *Field) Len() int { return f.size }

// UniqueCount returns the number of distinct values.
func (f *Field) UniqueCount() int { return len(f.keys) }

// Quality returns the build-time distribution summary.
func (f *Field) Quality() Quality { return f.quality }

// Describe implements Index.
func (f *Field) Describe() string { return "field<" + f.kind.String() + ">" }

// MemorySize implements Index.
func (f *Field) MemorySize() int {
	const entrySize = 80
	n := len(f.sorted)*entrySize + len(f.keys)*entrySize
	for _, b := range f.bitmaps {
		n += int(b.GetSizeInBytes())
	}
	return n
}

func (f *Field) sealed() {}

// Values returns the distinct values ascending.
func (f *Field) Values() []field.Value {
	return slices.Clone(f.keys)
}

// Min returns the smallest value.
func (f *Field) Min() (field.Value, bool) {
	if len(f.keys) == 0 {
		return field.Value{}, false
	}
	return f.keys[0], true
}

// Max returns the largest value.
func (f *Field) Max() (field.Value, bool) {
	if len(f.keys) == 0 {
		return field.Value{}, false
	}
	return f.keys[len(f.keys)-1], true
}

// Count returns how many records hold value v.
func (f *Field) Count(v field.Value) int {
	i, ok := f.find(v)
	if !ok {
		return 0
	}
	return int(f.bitmaps[i].GetCardinality())
}

// Entries returns the value-sorted (value, position) pairs.
func (f *Field) Entries() []Entry {
	return slices.Clone(f.sorted)
}

func (f *Field) find(v field.Value) (int, bool) {
	return slices.BinarySearchFunc(f.keys, v, func(a, b field.Value) int {
		c, _ := a.Compare(b)
		return c
	})
}

func (f *Field) convert(op field.Operator, v field.Value) (field.Value, error) {
	c, ok := v.ConvertTo(f.kind)
	if !ok {
		return field.Value{}, &field.ConvertError{Kind: f.kind, Operator: op, Value: v}
	}
	return c, nil
}

func (f *Field) equal(v field.Value) *roaring.Bitmap {
	i, ok := f.find(v)
	if !ok {
		return roaring.New()
	}
	return f.bitmaps[i].Clone()
}

// ValueRange returns the positions whose value lies in iv. Bounds must
// already be of the index's kind.
func (f *Field) ValueRange(iv Interval) *roaring.Bitmap {
	lo, hi := 0, len(f.sorted)
	if !iv.Low.Unbounded {
		lo = sort.Search(len(f.sorted), func(i int) bool {
			c, _ := f.sorted[i].Value.Compare(iv.Low.Value)
			if iv.Low.Inclusive {
				return c >= 0
			}
			return c > 0
		})
	}
	if !iv.High.Unbounded {
		hi = sort.Search(len(f.sorted), func(i int) bool {
			c, _ := f.sorted[i].Value.Compare(iv.High.Value)
			if iv.High.Inclusive {
				return c > 0
			}
			return c >= 0
		})
	}
	if lo >= hi {
		return roaring.New()
	}
	keys := make([]uint32, 0, hi-lo)
	for _, e := range f.sorted[lo:hi] {
		keys = append(keys, uint32(e.Position))
	}
	return bitmap.FromKeys(keys)
}

func (f *Field) convertInterval(op field.Operator, iv Interval) (Interval, error) {
	var err error
	if !iv.Low.Unbounded {
		if iv.Low.Value, err = f.convert(op, iv.Low.Value); err != nil {
			return Interval{}, err
		}
	}
	if !iv.High.Unbounded {
		if iv.High.Value, err = f.convert(op, iv.High.Value); err != nil {
			return Interval{}, err
		}
	}
	return iv, nil
}

// QueryRange evaluates iv after converting its bounds into the index kind.
func (f *Field) QueryRange(iv Interval) (*roaring.Bitmap, error) {
	if f.size == 0 {
		return roaring.New(), nil
	}
	conv, err := f.convertInterval(field.OpRange, iv)
	if err != nil {
		return nil, err
	}
	return f.ValueRange(conv), nil
}

func (f *Field) in(op field.Operator, vs []field.Value) (*roaring.Bitmap, error) {
	var hits []*roaring.Bitmap
	converted := 0
	for _, v := range vs {
		c, ok := v.ConvertTo(f.kind)
		if !ok {
			continue
		}
		converted++
		if i, found := f.find(c); found {
			hits = append(hits, f.bitmaps[i])
		}
	}
	if converted == 0 && len(vs) > 0 {
		return nil, field.NewOperationError(op, f.kind, &field.ConvertError{Kind: f.kind, Operator: op, Value: vs[0]})
	}
	switch len(hits) {
	case 0:
		return roaring.New(), nil
	case 1:
		return hits[0].Clone(), nil
	default:
		return roaring.FastOr(hits...), nil
	}
}

// Filter evaluates one operation.
func (f *Field) Filter(op field.Operation) (*roaring.Bitmap, error) {
	if f.size == 0 {
		return roaring.New(), nil
	}
	switch op.Operator {
	case field.OpEqual, field.OpNotEqual:
		v, err := f.convert(op.Operator, op.Value)
		if err != nil {
			return nil, err
		}
		eq := f.equal(v)
		if op.Operator == field.OpNotEqual {
			return bitmap.Invert(eq, f.size), nil
		}
		return eq, nil
	case field.OpGreaterThan:
		return f.QueryRange(Interval{Low: Excluded(op.Value), High: Unbounded()})
	case field.OpGreaterEqual:
		return f.QueryRange(Interval{Low: Included(op.Value), High: Unbounded()})
	case field.OpLessThan:
		return f.QueryRange(Interval{Low: Unbounded(), High: Excluded(op.Value)})
	case field.OpLessEqual:
		return f.QueryRange(Interval{Low: Unbounded(), High: Included(op.Value)})
	case field.OpRange:
		return f.QueryRange(Closed(op.Low, op.High))
	case field.OpIn:
		return f.in(op.Operator, op.Values)
	case field.OpNotIn:
		b, err := f.in(op.Operator, op.Values)
		if err != nil {
			return nil, err
		}
		return bitmap.Invert(b, f.size), nil
	default:
		return nil, field.NewOperationError(op.Operator, f.kind, fmt.Errorf("unknown operator %q", op.Operator))
	}
}

// CheckSteps reports the first error FilterSteps would report for steps,
// without evaluating them.
func (f *Field) CheckSteps(steps []field.Step) error {
	if len(steps) == 0 {
		return field.ErrOperationListEmpty
	}
	if f.size == 0 {
		return nil
	}
	for _, s := range steps {
		if s.Op == field.Invert {
			continue
		}
		op := s.Operation
		switch op.Operator {
		case field.OpEqual, field.OpNotEqual:
			if _, err := f.convert(op.Operator, op.Value); err != nil {
				return err
			}
		case field.OpGreaterThan, field.OpGreaterEqual, field.OpLessThan, field.OpLessEqual:
			if _, err := f.convert(field.OpRange, op.Value); err != nil {
				return err
			}
		case field.OpRange:
			if _, err := f.convertInterval(field.OpRange, Closed(op.Low, op.High)); err != nil {
				return err
			}
		case field.OpIn, field.OpNotIn:
			if len(op.Values) == 0 {
				continue
			}
			if !slices.ContainsFunc(op.Values, func(v field.Value) bool {
				_, ok := v.ConvertTo(f.kind)
				return ok
			}) {
				return field.NewOperationError(op.Operator, f.kind, &field.ConvertError{Kind: f.kind, Operator: op.Operator, Value: op.Values[0]})
			}
		default:
			return field.NewOperationError(op.Operator, f.kind, fmt.Errorf("unknown operator %q", op.Operator))
		}
	}
	return nil
}

// FilterSteps evaluates a step list left to right. Every step is checked
// first; an And step is then skipped once the running result is empty.
func (f *Field) FilterSteps(steps []field.Step) (*roaring.Bitmap, error) {
	if err := f.CheckSteps(steps); err != nil {
		return nil, err
	}
	return Combine(steps, f.size, f.Filter)
}

// Combine folds steps over an evaluator producing bitmaps for a record
// sequence of length size. eval must return bitmaps the caller owns; every
// one but the first goes back to the scratch pool once folded in.
func Combine(steps []field.Step, size int, eval func(field.Operation) (*roaring.Bitmap, error)) (*roaring.Bitmap, error) {
	if len(steps) == 0 {
		return nil, field.ErrOperationListEmpty
	}
	result, err := eval(steps[0].Operation)
	if err != nil {
		return nil, err
	}
	for _, s := range steps[1:] {
		if s.Op == field.Invert {
			result = bitmap.Invert(result, size)
			continue
		}
		if s.Op == field.And && result.IsEmpty() {
			continue
		}
		b, err := eval(s.Operation)
		if err != nil {
			return nil, err
		}
		switch s.Op {
		case field.And:
			result.And(b)
		case field.Or:
			result.Or(b)
		case field.Xor:
			result.Xor(b)
		case field.AndNot:
			result.AndNot(b)
		}
		bitmap.Put(b)
	}
	return result, nil
}

// EstimateSelectivity estimates the fraction of records steps match.
func (f *Field) EstimateSelectivity(steps []field.Step) float64 {
	return f.quality.StepsSelectivity(steps)
}

// IsEfficientFor reports whether the index narrows op better than a scan.
func (f *Field) IsEfficientFor(op field.Operation) bool {
	return f.quality.EfficientFor(op)
}
