package index

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/treeman/field"
	"github.com/hupe1980/treeman/internal/bitmap"
	"github.com/shopspring/decimal"
)

// Continuous lists the value types a Bucketed index stores.
type Continuous interface {
	decimal.Decimal | float64
}

// BucketEntry is one stored record of a bucket.
type BucketEntry[V Continuous] struct {
	Position int
	Value    V
}

// Bucket holds the entries whose value floors to ID, sorted by position.
type Bucket[V Continuous] struct {
	ID      int64
	Entries []BucketEntry[V]
}

type bucketSnapshot[V Continuous] struct {
	buckets []Bucket[V] // ascending by ID
	size    int
}

type bucketOps[V Continuous] struct {
	kind    field.Kind
	bucket  func(v, width V) (int64, error)
	compare func(a, b V) int
	from    func(field.Value) (V, bool)
}

// Quotients outside the int64 range share the outermost bucket. The exact
// re-check keeps range results correct for them.
var (
	maxBucket = decimal.NewFromInt(math.MaxInt64)
	minBucket = decimal.NewFromInt(math.MinInt64)
)

var decimalOps = bucketOps[decimal.Decimal]{
	kind: field.KindDecimal,
	bucket: func(v, width decimal.Decimal) (int64, error) {
		q, r := v.QuoRem(width, 0)
		if r.IsNegative() {
			q = q.Sub(decimal.NewFromInt(1))
		}
		switch {
		case q.GreaterThan(maxBucket):
			return math.MaxInt64, nil
		case q.LessThan(minBucket):
			return math.MinInt64, nil
		}
		return q.IntPart(), nil
	},
	compare: func(a, b decimal.Decimal) int { return a.Cmp(b) },
	from:    field.Value.AsDecimal,
}

var floatOps = bucketOps[float64]{
	kind: field.KindF64,
	bucket: func(v, width float64) (int64, error) {
		if math.IsNaN(v) {
			return 0, fmt.Errorf("NaN value")
		}
		q := math.Floor(v / width)
		switch {
		case q >= math.MaxInt64:
			return math.MaxInt64, nil
		case q <= math.MinInt64:
			return math.MinInt64, nil
		}
		return int64(q), nil
	},
	compare: cmp.Compare[float64],
	from:    field.Value.AsFloat64,
}

// Bucketed is a range index for continuous values. Each value is mapped to
// bucket floor(value / width), clamped to the int64 range; range queries visit only the covered buckets
// and re-check every stored value against the exact bounds.
//
// Rebuild swaps the whole bucket set atomically, so concurrent queries see
// either the old or the new contents.
type Bucketed[V Continuous] struct {
	ops   bucketOps[V]
	width V
	snap  atomic.Pointer[bucketSnapshot[V]]
}

// BuildDecimalBuckets indexes decimal values with the given bucket width.
func BuildDecimalBuckets(values []decimal.Decimal, width decimal.Decimal) (*Bucketed[decimal.Decimal], error) {
	if !width.IsPositive() {
		return nil, ErrInvalidBucketSize
	}
	b := &Bucketed[decimal.Decimal]{ops: decimalOps, width: width}
	if err := b.Rebuild(values); err != nil {
		return nil, err
	}
	return b, nil
}

// BuildFloatBuckets indexes float values with the given bucket width.
func BuildFloatBuckets(values []float64, width float64) (*Bucketed[float64], error) {
	if !(width > 0) || math.IsInf(width, 1) {
		return nil, ErrInvalidBucketSize
	}
	b := &Bucketed[float64]{ops: floatOps, width: width}
	if err := b.Rebuild(values); err != nil {
		return nil, err
	}
	return b, nil
}

// Rebuild replaces the indexed values, where values[i] belongs to position i.
func (b *Bucketed[V]) Rebuild(values []V) error {
	groups := make(map[int64][]BucketEntry[V])
	for i, v := range values {
		id, err := b.ops.bucket(v, b.width)
		if err != nil {
			return fmt.Errorf("position %d: %w", i, err)
		}
		groups[id] = append(groups[id], BucketEntry[V]{Position: i, Value: v})
	}
	snap := &bucketSnapshot[V]{buckets: make([]Bucket[V], 0, len(groups)), size: len(values)}
	for id, entries := range groups {
		// Appended in position order already.
		snap.buckets = append(snap.buckets, Bucket[V]{ID: id, Entries: entries})
	}
	slices.SortFunc(snap.buckets, func(x, y Bucket[V]) int { return cmp.Compare(x.ID, y.ID) })
	b.snap.Store(snap)
	return nil
}

// Kind implements Index.
func (b *Bucketed[V]) Kind() Kind { return KindBucketed }

// ValueKind returns the stored value kind.
func (b *Bucketed[V]) ValueKind() field.Kind { return b.ops.kind }

// Len implements Index.
func (b *Bucketed[V]) Len() int { return b.snap.Load().size }

// Width returns the bucket width.
func (b *Bucketed[V]) Width() V { return b.width }

// BucketCount returns the number of non-empty buckets.
func (b *Bucketed[V]) BucketCount() int { return len(b.snap.Load().buckets) }

// Buckets returns a copy of the bucket list, ascending by ID.
func (b *Bucketed[V]) Buckets() []Bucket[V] {
	return slices.Clone(b.snap.Load().buckets)
}

// Describe implements Index.
func (b *Bucketed[V]) Describe() string { return "bucketed<" + b.ops.kind.String() + ">" }

// MemorySize implements Index.
func (b *Bucketed[V]) MemorySize() int {
	const entrySize = 32
	snap := b.snap.Load()
	return snap.size*entrySize + len(snap.buckets)*32
}

func (b *Bucketed[V]) sealed() {}

func (b *Bucketed[V]) bound(bd Bound) (V, error) {
	v, ok := b.ops.from(bd.Value)
	if !ok {
		var zero V
		return zero, &field.ConvertError{Kind: b.ops.kind, Operator: field.OpRange, Value: bd.Value}
	}
	return v, nil
}

func (b *Bucketed[V]) inside(v V, lo, hi *V, iv Interval) bool {
	if lo != nil {
		c := b.ops.compare(v, *lo)
		if c < 0 || (c == 0 && !iv.Low.Inclusive) {
			return false
		}
	}
	if hi != nil {
		c := b.ops.compare(v, *hi)
		if c > 0 || (c == 0 && !iv.High.Inclusive) {
			return false
		}
	}
	return true
}

// RangePositions returns the positions whose exact value lies in iv,
// ascending.
func (b *Bucketed[V]) RangePositions(iv Interval) ([]int, error) {
	snap := b.snap.Load()
	var lo, hi *V
	start, end := 0, len(snap.buckets)
	if !iv.Low.Unbounded {
		v, err := b.bound(iv.Low)
		if err != nil {
			return nil, err
		}
		lo = &v
		id, err := b.ops.bucket(v, b.width)
		if err != nil {
			return nil, err
		}
		start = sort.Search(len(snap.buckets), func(i int) bool { return snap.buckets[i].ID >= id })
	}
	if !iv.High.Unbounded {
		v, err := b.bound(iv.High)
		if err != nil {
			return nil, err
		}
		hi = &v
		id, err := b.ops.bucket(v, b.width)
		if err != nil {
			return nil, err
		}
		end = sort.Search(len(snap.buckets), func(i int) bool { return snap.buckets[i].ID > id })
	}

	out := []int{}
	for _, bk := range snap.buckets[start:max(start, end)] {
		for _, e := range bk.Entries {
			if b.inside(e.Value, lo, hi, iv) {
				out = append(out, e.Position)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// QueryRange returns the positions whose exact value lies in iv.
func (b *Bucketed[V]) QueryRange(iv Interval) (*roaring.Bitmap, error) {
	ps, err := b.RangePositions(iv)
	if err != nil {
		return nil, err
	}
	return bitmap.FromPositions(ps)
}

// Filter evaluates a single comparison operation. In and NotIn are not
// supported by bucketed indices.
func (b *Bucketed[V]) Filter(op field.Operation) (*roaring.Bitmap, error) {
	iv, err := b.interval(op)
	if err != nil {
		return nil, err
	}
	res, err := b.QueryRange(iv)
	if err != nil {
		return nil, err
	}
	if op.Operator == field.OpNotEqual {
		return bitmap.Invert(res, b.Len()), nil
	}
	return res, nil
}

// interval maps a comparison operation to the range it selects.
func (b *Bucketed[V]) interval(op field.Operation) (Interval, error) {
	var iv Interval
	switch op.Operator {
	case field.OpEqual, field.OpNotEqual:
		iv = Closed(op.Value, op.Value)
	case field.OpGreaterThan:
		iv = Interval{Low: Excluded(op.Value), High: Unbounded()}
	case field.OpGreaterEqual:
		iv = Interval{Low: Included(op.Value), High: Unbounded()}
	case field.OpLessThan:
		iv = Interval{Low: Unbounded(), High: Excluded(op.Value)}
	case field.OpLessEqual:
		iv = Interval{Low: Unbounded(), High: Included(op.Value)}
	case field.OpRange:
		iv = Closed(op.Low, op.High)
	default:
		return Interval{}, field.NewOperationError(op.Operator, b.ops.kind, fmt.Errorf("unsupported by bucketed index"))
	}
	return iv, nil
}

// CheckSteps reports the first error FilterSteps would report for steps,
// without evaluating them.
func (b *Bucketed[V]) CheckSteps(steps []field.Step) error {
	if len(steps) == 0 {
		return field.ErrOperationListEmpty
	}
	for _, s := range steps {
		if s.Op == field.Invert {
			continue
		}
		iv, err := b.interval(s.Operation)
		if err != nil {
			return err
		}
		for _, bd := range []Bound{iv.Low, iv.High} {
			if bd.Unbounded {
				continue
			}
			v, err := b.bound(bd)
			if err != nil {
				return err
			}
			if _, err := b.ops.bucket(v, b.width); err != nil {
				return err
			}
		}
	}
	return nil
}

// FilterSteps evaluates a step list left to right. Every step is checked
// first.
func (b *Bucketed[V]) FilterSteps(steps []field.Step) (*roaring.Bitmap, error) {
	if err := b.CheckSteps(steps); err != nil {
		return nil, err
	}
	return Combine(steps, b.Len(), b.Filter)
}
