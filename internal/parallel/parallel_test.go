package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	spans := Split(10, 3, 1)
	require.Len(t, spans, 3)
	assert.Equal(t, Span{0, 4}, spans[0])
	assert.Equal(t, Span{8, 10}, spans[2])

	spans = Split(10, 8, 5)
	require.Len(t, spans, 2)
	assert.Equal(t, 5, spans[0].Len())

	assert.Nil(t, Split(0, 4, 1))
}

func TestSplitFixed(t *testing.T) {
	spans := SplitFixed(9000, 4096)
	require.Len(t, spans, 3)
	assert.Equal(t, Span{8192, 9000}, spans[2])
}

func TestConfigParallel(t *testing.T) {
	c := Config{Threshold: 100, Workers: 4}
	assert.False(t, c.Parallel(99))
	assert.True(t, c.Parallel(100))
	assert.False(t, Config{Threshold: 1, Workers: 1}.Parallel(1000))
	assert.False(t, Sequential.Parallel(1<<30))
}

func TestFilterIndexPreservesOrder(t *testing.T) {
	in := make([]int, 10_000)
	for i := range in {
		in[i] = i
	}
	for _, c := range []Config{Sequential, {Threshold: 1, Workers: 8}} {
		even := FilterIndex(c, in, func(v int) bool { return v%2 == 0 })
		require.Len(t, even, 5000)
		for i, v := range even {
			assert.Equal(t, i*2, v)
		}
		idx := FilterIndex(c, in, func(v int) bool { return v >= 9990 })
		assert.Equal(t, []int{9990, 9991, 9992, 9993, 9994, 9995, 9996, 9997, 9998, 9999}, idx)
	}
}

func TestFilterIndexEmpty(t *testing.T) {
	out := FilterIndex(Config{Threshold: 1, Workers: 4}, []int(nil), func(int) bool { return true })
	assert.Empty(t, out)
}

func TestMapAndGather(t *testing.T) {
	in := []string{"a", "bb", "ccc", "dddd"}
	c := Config{Threshold: 1, Workers: 3}
	lens := Map(c, in, func(_ int, s string) int { return len(s) })
	assert.Equal(t, []int{1, 2, 3, 4}, lens)

	got := Gather(c, in, []int{3, 0, 2})
	assert.Equal(t, []string{"dddd", "a", "ccc"}, got)
}

func TestRunReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	err := Run(4, Split(100, 4, 1), func(chunk int, _ Span) error {
		calls.Add(1)
		if chunk == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(4), calls.Load())
}

func TestEach(t *testing.T) {
	var sum atomic.Int64
	err := Config{Threshold: 1, Workers: 4}.Each(100, func(i int) error {
		sum.Add(int64(i))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4950), sum.Load())
}
