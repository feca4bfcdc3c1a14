package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionAlgebra(t *testing.T) {
	a := []int{5, 1, 3, 3, 7}
	b := []int{3, 4, 5}

	assert.Equal(t, []int{3, 5}, Intersect(a, b))
	assert.Equal(t, []int{3}, Intersect(a, b, []int{3, 9}))
	assert.Equal(t, []int{}, Intersect())
	assert.Equal(t, []int{1, 3, 4, 5, 7}, Union(a, b))
	assert.Equal(t, []int{1, 7}, Difference(a, b))
	assert.Equal(t, []int{1, 4, 7}, SymmetricDifference(a, b))
	assert.True(t, HasIntersection(a, b))
	assert.False(t, HasIntersection(a, []int{100}))
	assert.Equal(t, 2, CountIntersection(a, b))
	assert.True(t, IsSubset([]int{3, 5}, a))
	assert.False(t, IsSubset(b, a))
	assert.True(t, IsSubset(nil, a))
	assert.Equal(t, []int{2}, Union([]int{-1, 2}))
}
