package bitmap

import (
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/treeman/internal/conv"
	"github.com/hupe1980/treeman/internal/parallel"
)

// pool reuses scratch bitmaps on query hot paths.
var pool = sync.Pool{
	New: func() any {
		return roaring.New()
	},
}

// Get returns an empty bitmap from the pool. Call Put when done.
func Get() *roaring.Bitmap {
	b := pool.Get().(*roaring.Bitmap)
	b.Clear()
	return b
}

// Put returns a scratch bitmap to the pool.
func Put(b *roaring.Bitmap) {
	if b == nil {
		return
	}
	b.Clear()
	pool.Put(b)
}

// Full returns the bitmap {0, ..., n-1}.
func Full(n int) *roaring.Bitmap {
	b := roaring.New()
	if n > 0 {
		b.AddRange(0, uint64(n))
	}
	return b
}

// FromPositions builds a bitmap from positions in any order.
func FromPositions(positions []int) (*roaring.Bitmap, error) {
	keys, err := conv.Positions(positions)
	if err != nil {
		return nil, err
	}
	return FromKeys(keys), nil
}

// FromKeys builds a bitmap from 32-bit keys in any order. The slice is
// sorted in place.
func FromKeys(keys []uint32) *roaring.Bitmap {
	if !slices.IsSorted(keys) {
		slices.Sort(keys)
	}
	b := roaring.New()
	b.AddMany(keys)
	b.RunOptimize()
	return b
}

// ToPositions lists the members of b ascending.
func ToPositions(b *roaring.Bitmap) []int {
	if b == nil || b.IsEmpty() {
		return []int{}
	}
	return conv.Ints(b.ToArray())
}

// Clone returns a copy of b, or an empty bitmap for nil.
func Clone(b *roaring.Bitmap) *roaring.Bitmap {
	if b == nil {
		return roaring.New()
	}
	return b.Clone()
}

// Invert returns {0..n-1} \ b.
func Invert(b *roaring.Bitmap, n int) *roaring.Bitmap {
	full := Full(n)
	if b != nil {
		full.AndNot(b)
	}
	return full
}

// Density is the selected fraction of a sequence of n records.
func Density(b *roaring.Bitmap, n int) float64 {
	if n == 0 || b == nil {
		return 0
	}
	return float64(b.GetCardinality()) / float64(n)
}

// GatherDensity is the selected fraction above which a large gather fans out.
const GatherDensity = 0.3

// Gather returns items[p] for every p in b, ascending. Large dense
// selections (count above cfg.Threshold and density above GatherDensity)
// are copied by parallel chunks; everything else sequentially.
func Gather[T any](cfg parallel.Config, items []T, b *roaring.Bitmap) []T {
	if b == nil || b.IsEmpty() {
		return []T{}
	}
	count := int(b.GetCardinality())
	if count > cfg.Threshold && Density(b, len(items)) > GatherDensity && cfg.WorkerCount() > 1 {
		keys := b.ToArray()
		out := make([]T, len(keys))
		spans := parallel.Split(len(keys), cfg.WorkerCount(), cfg.MinChunk)
		_ = parallel.Run(cfg.WorkerCount(), spans, func(_ int, s parallel.Span) error {
			for i := s.Lo; i < s.Hi; i++ {
				out[i] = items[keys[i]]
			}
			return nil
		})
		return out
	}
	out := make([]T, 0, count)
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, items[it.Next()])
	}
	return out
}
