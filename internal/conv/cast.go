package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrPositionOutOfRange is returned when a position cannot be stored in a bitmap.
var ErrPositionOutOfRange = errors.New("position out of bitmap range")

// MaxPositions is the largest number of records a bitmap can address.
const MaxPositions = math.MaxUint32 + 1

// Position converts a record position to a bitmap key.
func Position(p int) (uint32, error) {
	if p < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrPositionOutOfRange, p)
	}
	if uint64(p) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrPositionOutOfRange, p, uint64(math.MaxUint32))
	}
	return uint32(p), nil
}

// Positions converts a position list to bitmap keys, failing on the first
// out-of-range entry.
func Positions(ps []int) ([]uint32, error) {
	out := make([]uint32, len(ps))
	for i, p := range ps {
		k, err := Position(p)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

// Ints widens bitmap keys back to positions.
func Ints(keys []uint32) []int {
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = int(k)
	}
	return out
}

// CheckLen reports whether n records fit into bitmap addressing.
func CheckLen(n int) error {
	if n < 0 || uint64(n) > MaxPositions {
		return fmt.Errorf("%w: collection of %d records", ErrPositionOutOfRange, n)
	}
	return nil
}
