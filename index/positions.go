package index

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/treeman/internal/bitmap"
	"github.com/hupe1980/treeman/internal/conv"
)

// Set algebra over raw position lists. Inputs need not be sorted or
// unique; outputs are ascending and duplicate-free. Negative positions or
// positions beyond the 32-bit range are ignored.

// toBitmap fills a scratch bitmap from ps. Callers hand it back with
// bitmap.Put.
func toBitmap(ps []int) *roaring.Bitmap {
	b := bitmap.Get()
	for _, p := range ps {
		if u, err := conv.Position(p); err == nil {
			b.Add(u)
		}
	}
	return b
}

// release returns scratch bitmaps to the pool.
func release(bs ...*roaring.Bitmap) {
	for _, b := range bs {
		bitmap.Put(b)
	}
}

// Intersect returns the positions present in every list.
func Intersect(lists ...[]int) []int {
	if len(lists) == 0 {
		return []int{}
	}
	acc := toBitmap(lists[0])
	defer release(acc)
	for _, l := range lists[1:] {
		if acc.IsEmpty() {
			break
		}
		b := toBitmap(l)
		acc.And(b)
		release(b)
	}
	return bitmap.ToPositions(acc)
}

// Union returns the positions present in any list.
func Union(lists ...[]int) []int {
	acc := bitmap.Get()
	defer release(acc)
	for _, l := range lists {
		b := toBitmap(l)
		acc.Or(b)
		release(b)
	}
	return bitmap.ToPositions(acc)
}

// Difference returns the positions of a not in b.
func Difference(a, b []int) []int {
	ba, bb := toBitmap(a), toBitmap(b)
	defer release(ba, bb)
	ba.AndNot(bb)
	return bitmap.ToPositions(ba)
}

// SymmetricDifference returns the positions in exactly one of a and b.
func SymmetricDifference(a, b []int) []int {
	ba, bb := toBitmap(a), toBitmap(b)
	defer release(ba, bb)
	ba.Xor(bb)
	return bitmap.ToPositions(ba)
}

// HasIntersection reports whether a and b share a position.
func HasIntersection(a, b []int) bool {
	ba, bb := toBitmap(a), toBitmap(b)
	defer release(ba, bb)
	return ba.Intersects(bb)
}

// CountIntersection counts the positions a and b share.
func CountIntersection(a, b []int) int {
	ba, bb := toBitmap(a), toBitmap(b)
	defer release(ba, bb)
	return int(ba.AndCardinality(bb))
}

// IsSubset reports whether every position of a is in b.
func IsSubset(a, b []int) bool {
	ba, bb := toBitmap(a), toBitmap(b)
	defer release(ba, bb)
	return ba.AndCardinality(bb) == ba.GetCardinality()
}
