package index

import (
	"testing"

	"github.com/hupe1980/treeman/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestBuildBitSequentialAndChunked(t *testing.T) {
	items := seq(20_000)
	even := func(v int) bool { return v%2 == 0 }

	a := BuildBit(items, even, BitBuildOptions{Parallel: parallel.Sequential})
	b := BuildBit(items, even, BitBuildOptions{Parallel: parallel.Config{Threshold: 1000, Workers: 4}, ChunkSize: 1000})

	assert.Equal(t, 10_000, a.CountOnes())
	assert.Equal(t, a.Positions(), b.Positions())
	assert.Equal(t, 20_000, b.Len())
	assert.InDelta(t, 0.5, b.Density(), 1e-9)
}

func TestBitAlgebraLaws(t *testing.T) {
	items := seq(1000)
	opts := BitBuildOptions{Parallel: parallel.Sequential}
	a := BuildBit(items, func(v int) bool { return v%3 == 0 }, opts)
	b := BuildBit(items, func(v int) bool { return v%5 == 0 }, opts)

	assert.Equal(t, a.CountOnes(), a.And(b).CountOnes()+a.Difference(b).CountOnes())
	assert.Equal(t, a.CountOnes()+b.CountOnes()-a.And(b).CountOnes(), a.Or(b).CountOnes())
	assert.Zero(t, a.Not().And(a).CountOnes())
	assert.Equal(t, 1000, a.Not().CountOnes()+a.CountOnes())
	assert.Equal(t, a.Or(b).CountOnes()-a.And(b).CountOnes(), a.Xor(b).CountOnes())
}

func TestBitMutation(t *testing.T) {
	b := NewBit(10)
	require.NoError(t, b.Set(3))
	require.NoError(t, b.Set(7))
	assert.True(t, b.Get(3))
	assert.False(t, b.Get(4))
	assert.False(t, b.Get(42))

	on, err := b.Toggle(4)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = b.Toggle(4)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, b.Clear(3))
	assert.Equal(t, 1, b.CountOnes())
	assert.Equal(t, 9, b.CountZeros())

	require.ErrorIs(t, b.Set(10), ErrBitOutOfRange)
	require.ErrorIs(t, b.Clear(-1), ErrBitOutOfRange)
}

func TestBitPositionQueries(t *testing.T) {
	b := NewBit(100)
	for _, p := range []int{5, 10, 15, 50, 99} {
		require.NoError(t, b.Set(p))
	}

	lo, ok := b.MinPos()
	require.True(t, ok)
	assert.Equal(t, 5, lo)
	hi, ok := b.MaxPos()
	require.True(t, ok)
	assert.Equal(t, 99, hi)

	assert.Equal(t, []int{10, 15, 50}, b.Range(6, 99))
	assert.Equal(t, 3, b.CountRange(6, 99))
	assert.Empty(t, b.Range(60, 10))

	_, ok = NewBit(3).MinPos()
	assert.False(t, ok)

	st := b.Stats()
	assert.Equal(t, 100, st.Size)
	assert.Equal(t, 5, st.Ones)
	assert.Equal(t, 95, st.Zeros)
	assert.Positive(t, st.MemoryBytes)
}

func TestBitMultiOperation(t *testing.T) {
	items := seq(30)
	opts := BitBuildOptions{Parallel: parallel.Sequential}
	two := BuildBit(items, func(v int) bool { return v%2 == 0 }, opts)
	three := BuildBit(items, func(v int) bool { return v%3 == 0 }, opts)
	small := BuildBit(items, func(v int) bool { return v < 10 }, opts)

	got := two.MultiOperation([]BitStep{
		{Op: BitAnd, Bit: three},
		{Op: BitOr, Bit: small},
		{Op: BitAndNot, Bit: two},
	})
	assert.Equal(t, []int{1, 3, 5, 7, 9}, got.Positions())
	// Unchanged receiver.
	assert.Equal(t, 15, two.CountOnes())
	assert.Equal(t, "AND NOT", BitAndNot.String())
}

func TestBitView(t *testing.T) {
	items := []string{"a", "bb", "ccc", "dd", "e"}
	b := BuildBit(items, func(s string) bool { return len(s) > 1 }, BitBuildOptions{Parallel: parallel.Sequential})

	v, err := NewView(b, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"bb", "ccc", "dd"}, v.Collect())
	assert.Equal(t, []string{"ccc"}, v.Filter(func(s string) bool { return len(s) == 3 }))
	assert.Equal(t, 2, v.CountWhere(func(s string) bool { return len(s) == 2 }))
	assert.True(t, v.Any(func(s string) bool { return s == "dd" }))
	assert.False(t, v.Any(func(s string) bool { return s == "a" }))
	assert.True(t, v.All(func(s string) bool { return len(s) >= 2 }))
	assert.False(t, v.All(func(s string) bool { return len(s) == 2 }))

	_, err = NewView(b, items[:2])
	require.ErrorIs(t, err, ErrBitOutOfRange)
}

func TestApplyBitParallelGather(t *testing.T) {
	items := seq(50_000)
	b := BuildBit(items, func(v int) bool { return v%4 != 0 }, BitBuildOptions{Parallel: parallel.Sequential})
	got := ApplyBit(b, items, parallel.Config{Threshold: 100, Workers: 4})
	require.Len(t, got, 37_500)
	assert.Equal(t, 1, got[0])
	assert.Equal(t, 49_999, got[len(got)-1])
}
