//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	t.Run("zero", func(t *testing.T) {
		got, err := Position(0)
		assert.NoError(t, err)
		assert.Equal(t, uint32(0), got)
	})

	t.Run("max uint32", func(t *testing.T) {
		got, err := Position(math.MaxUint32)
		assert.NoError(t, err)
		assert.Equal(t, uint32(math.MaxUint32), got)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := Position(-1)
		assert.ErrorIs(t, err, ErrPositionOutOfRange)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Position(math.MaxUint32 + 1)
		assert.ErrorIs(t, err, ErrPositionOutOfRange)
	})
}

func TestPositions(t *testing.T) {
	keys, err := Positions([]int{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 1, 2}, keys)
	assert.Equal(t, []int{3, 1, 2}, Ints(keys))

	_, err = Positions([]int{1, -5})
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestCheckLen(t *testing.T) {
	assert.NoError(t, CheckLen(0))
	assert.NoError(t, CheckLen(MaxPositions))
	assert.Error(t, CheckLen(MaxPositions+1))
	assert.Error(t, CheckLen(-1))
}
