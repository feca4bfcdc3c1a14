package index

import (
	"github.com/hupe1980/treeman/field"
)

// Kind identifies an index implementation.
type Kind uint8

const (
	// KindField is an ordered field index.
	KindField Kind = iota + 1
	// KindBucketed is a bucketed continuous-value index.
	KindBucketed
	// KindBit is a boolean predicate bitmap.
	KindBit
	// KindText is an n-gram text index.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindBucketed:
		return "bucketed"
	case KindBit:
		return "bit"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Index is implemented by the four index kinds of this package and no others.
type Index interface {
	// Kind returns the implementation kind.
	Kind() Kind
	// Len is the number of records the index was built over.
	Len() int
	// MemorySize estimates retained bytes.
	MemorySize() int
	// Describe names the stored type, e.g. "field<u64>".
	Describe() string

	sealed()
}

// Bound is one end of an Interval.
type Bound struct {
	Value     field.Value
	Inclusive bool
	Unbounded bool
}

// Included returns a closed bound at v.
func Included(v field.Value) Bound { return Bound{Value: v, Inclusive: true} }

// Excluded returns an open bound at v.
func Excluded(v field.Value) Bound { return Bound{Value: v} }

// Unbounded returns an infinite bound.
func Unbounded() Bound { return Bound{Unbounded: true} }

// Interval is a range over ordered values.
type Interval struct {
	Low, High Bound
}

// Closed returns [lo, hi].
func Closed(lo, hi field.Value) Interval {
	return Interval{Low: Included(lo), High: Included(hi)}
}

// Contains reports whether v lies within the interval.
func (iv Interval) Contains(v field.Value) bool {
	if !iv.Low.Unbounded {
		c, ok := v.Compare(iv.Low.Value)
		if !ok || c < 0 || (c == 0 && !iv.Low.Inclusive) {
			return false
		}
	}
	if !iv.High.Unbounded {
		c, ok := v.Compare(iv.High.Value)
		if !ok || c > 0 || (c == 0 && !iv.High.Inclusive) {
			return false
		}
	}
	return true
}
