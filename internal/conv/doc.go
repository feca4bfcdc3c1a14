// Package conv converts record positions between Go ints and the 32-bit
// keys stored in compressed bitmaps.
//
// Bitmaps address at most 1<<32 positions. Every conversion from int is
// range checked; conversions in the other direction cannot fail on the
// supported 64-bit platforms.
package conv
