package index

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/treeman/internal/bitmap"
	"github.com/hupe1980/treeman/internal/parallel"
)

// DefaultBitChunk is the number of records evaluated per build task.
const DefaultBitChunk = 4096

// BitOp combines two bit indices.
type BitOp uint8

const (
	// BitAnd keeps positions set in both.
	BitAnd BitOp = iota
	// BitOr keeps positions set in either.
	BitOr
	// BitXor keeps positions set in exactly one.
	BitXor
	// BitAndNot keeps positions set in the left but not the right.
	BitAndNot
)

func (o BitOp) String() string {
	switch o {
	case BitAnd:
		return "AND"
	case BitOr:
		return "OR"
	case BitXor:
		return "XOR"
	case BitAndNot:
		return "AND NOT"
	default:
		return fmt.Sprintf("BitOp(%d)", uint8(o))
	}
}

// BitStep is one link of a MultiOperation chain.
type BitStep struct {
	Op  BitOp
	Bit *Bit
}

// BitStats summarises a bit index.
type BitStats struct {
	Size        int     `json:"size"`
	Ones        int     `json:"ones"`
	Zeros       int     `json:"zeros"`
	Density     float64 `json:"density"`
	MemoryBytes int     `json:"memory_bytes"`
}

// Bit is a boolean index: one bitmap of the positions for which a
// predicate held, over a record sequence of fixed length.
type Bit struct {
	bits *roaring.Bitmap
	size int
}

// BitBuildOptions tunes BuildBit.
type BitBuildOptions struct {
	Parallel  parallel.Config
	ChunkSize int
}

// BuildBit evaluates pred over items. Above the parallel threshold items
// are split into fixed chunks whose bitmaps are OR-merged.
func BuildBit[T any](items []T, pred func(T) bool, opts BitBuildOptions) *Bit {
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultBitChunk
	}

	if !opts.Parallel.Parallel(len(items)) {
		b := roaring.New()
		for i, it := range items {
			if pred(it) {
				b.Add(uint32(i))
			}
		}
		b.RunOptimize()
		return &Bit{bits: b, size: len(items)}
	}

	spans := parallel.SplitFixed(len(items), chunk)
	parts := make([]*roaring.Bitmap, len(spans))
	_ = parallel.Run(opts.Parallel.WorkerCount(), spans, func(c int, s parallel.Span) error {
		keys := make([]uint32, 0, s.Len()/4)
		for i := s.Lo; i < s.Hi; i++ {
			if pred(items[i]) {
				keys = append(keys, uint32(i))
			}
		}
		b := roaring.New()
		b.AddMany(keys)
		parts[c] = b
		return nil
	})
	merged := roaring.ParOr(opts.Parallel.WorkerCount(), parts...)
	merged.RunOptimize()
	return &Bit{bits: merged, size: len(items)}
}

// NewBit returns an all-zero bit index over size records.
func NewBit(size int) *Bit {
	return &Bit{bits: roaring.New(), size: size}
}

// Kind implements Index.
func (b *Bit) Kind() Kind { return KindBit }

// Len implements Index.
func (b *Bit) Len() int { return b.size }

// Describe implements Index.
func (b *Bit) Describe() string { return "bit" }

// MemorySize implements Index.
func (b *Bit) MemorySize() int { return int(b.bits.GetSizeInBytes()) }

func (b *Bit) sealed() {}

func (b *Bit) check(i int) error {
	if i < 0 || i >= b.size {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrBitOutOfRange, i, b.size)
	}
	return nil
}

// Set marks position i.
func (b *Bit) Set(i int) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.bits.Add(uint32(i))
	return nil
}

// Clear unmarks position i.
func (b *Bit) Clear(i int) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.bits.Remove(uint32(i))
	return nil
}

// Toggle flips position i and returns its new state.
func (b *Bit) Toggle(i int) (bool, error) {
	if err := b.check(i); err != nil {
		return false, err
	}
	b.bits.Flip(uint64(i), uint64(i)+1)
	return b.bits.Contains(uint32(i)), nil
}

// Get reports whether position i is set. Out-of-range positions are unset.
func (b *Bit) Get(i int) bool {
	return i >= 0 && i < b.size && b.bits.Contains(uint32(i))
}

// CountOnes returns the number of set positions.
func (b *Bit) CountOnes() int { return int(b.bits.GetCardinality()) }

// CountZeros returns the number of unset positions.
func (b *Bit) CountZeros() int { return b.size - b.CountOnes() }

// Density is the fraction of set positions.
func (b *Bit) Density() float64 { return bitmap.Density(b.bits, b.size) }

// Stats returns a summary of the index.
func (b *Bit) Stats() BitStats {
	ones := b.CountOnes()
	return BitStats{
		Size:        b.size,
		Ones:        ones,
		Zeros:       b.size - ones,
		Density:     b.Density(),
		MemoryBytes: b.MemorySize(),
	}
}

// MinPos returns the lowest set position.
func (b *Bit) MinPos() (int, bool) {
	if b.bits.IsEmpty() {
		return 0, false
	}
	return int(b.bits.Minimum()), true
}

// MaxPos returns the highest set position.
func (b *Bit) MaxPos() (int, bool) {
	if b.bits.IsEmpty() {
		return 0, false
	}
	return int(b.bits.Maximum()), true
}

// Range returns the set positions in [lo, hi).
func (b *Bit) Range(lo, hi int) []int {
	lo, hi = max(lo, 0), min(hi, b.size)
	out := []int{}
	if lo >= hi {
		return out
	}
	it := b.bits.Iterator()
	it.AdvanceIfNeeded(uint32(lo))
	for it.HasNext() {
		p := int(it.Next())
		if p >= hi {
			break
		}
		out = append(out, p)
	}
	return out
}

// CountRange counts set positions in [lo, hi).
func (b *Bit) CountRange(lo, hi int) int {
	lo, hi = max(lo, 0), min(hi, b.size)
	if lo >= hi {
		return 0
	}
	r := roaring.New()
	r.AddRange(uint64(lo), uint64(hi))
	return int(b.bits.AndCardinality(r))
}

// Positions returns the set positions, ascending.
func (b *Bit) Positions() []int { return bitmap.ToPositions(b.bits) }

// Bitmap returns a copy of the underlying bitmap.
func (b *Bit) Bitmap() *roaring.Bitmap { return b.bits.Clone() }

// Clone returns an independent copy.
func (b *Bit) Clone() *Bit { return &Bit{bits: b.bits.Clone(), size: b.size} }

func (b *Bit) combine(o *Bit, op BitOp) *Bit {
	var r *roaring.Bitmap
	switch op {
	case BitAnd:
		r = roaring.And(b.bits, o.bits)
	case BitOr:
		r = roaring.Or(b.bits, o.bits)
	case BitXor:
		r = roaring.Xor(b.bits, o.bits)
	case BitAndNot:
		r = roaring.AndNot(b.bits, o.bits)
	default:
		r = b.bits.Clone()
	}
	return &Bit{bits: r, size: max(b.size, o.size)}
}

// And returns b AND o.
func (b *Bit) And(o *Bit) *Bit { return b.combine(o, BitAnd) }

// Or returns b OR o.
func (b *Bit) Or(o *Bit) *Bit { return b.combine(o, BitOr) }

// Xor returns b XOR o.
func (b *Bit) Xor(o *Bit) *Bit { return b.combine(o, BitXor) }

// Difference returns b AND NOT o.
func (b *Bit) Difference(o *Bit) *Bit { return b.combine(o, BitAndNot) }

// Not returns the complement of b within its record range.
func (b *Bit) Not() *Bit {
	return &Bit{bits: bitmap.Invert(b.bits, b.size), size: b.size}
}

// MultiOperation folds steps over b, left to right.
func (b *Bit) MultiOperation(steps []BitStep) *Bit {
	acc := b.bits.Clone()
	size := b.size
	for _, s := range steps {
		size = max(size, s.Bit.size)
		switch s.Op {
		case BitAnd:
			acc.And(s.Bit.bits)
		case BitOr:
			acc.Or(s.Bit.bits)
		case BitXor:
			acc.Xor(s.Bit.bits)
		case BitAndNot:
			acc.AndNot(s.Bit.bits)
		}
	}
	return &Bit{bits: acc, size: size}
}

// ApplyBit returns the items at the set positions of b. Every position must
// be below len(items); an index built from a different sequence panics.
func ApplyBit[T any](b *Bit, items []T, cfg parallel.Config) []T {
	return bitmap.Gather(cfg, items, b.bits)
}

// View pairs a bit index with the sequence it was built from.
type View[T any] struct {
	bits  *Bit
	items []T
}

// NewView binds b to items. It returns an error if the lengths differ.
func NewView[T any](b *Bit, items []T) (*View[T], error) {
	if b.size != len(items) {
		return nil, fmt.Errorf("%w: index covers %d records, sequence has %d", ErrBitOutOfRange, b.size, len(items))
	}
	return &View[T]{bits: b, items: items}, nil
}

// Collect returns the selected items.
func (v *View[T]) Collect() []T {
	return ApplyBit(v.bits, v.items, parallel.Sequential)
}

// Filter returns the selected items that also satisfy pred.
func (v *View[T]) Filter(pred func(T) bool) []T {
	out := []T{}
	v.each(func(it T) bool {
		if pred(it) {
			out = append(out, it)
		}
		return true
	})
	return out
}

// CountWhere counts selected items satisfying pred.
func (v *View[T]) CountWhere(pred func(T) bool) int {
	n := 0
	v.each(func(it T) bool {
		if pred(it) {
			n++
		}
		return true
	})
	return n
}

// Any reports whether some selected item satisfies pred.
func (v *View[T]) Any(pred func(T) bool) bool {
	found := false
	v.each(func(it T) bool {
		found = pred(it)
		return !found
	})
	return found
}

// All reports whether every selected item satisfies pred. It is true for
// an empty selection.
func (v *View[T]) All(pred func(T) bool) bool {
	ok := true
	v.each(func(it T) bool {
		ok = pred(it)
		return ok
	})
	return ok
}

func (v *View[T]) each(fn func(T) bool) {
	it := v.bits.bits.Iterator()
	for it.HasNext() {
		if !fn(v.items[it.Next()]) {
			return
		}
	}
}
