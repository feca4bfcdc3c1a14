// Package bitmap holds the roaring helpers shared by every index: pooled
// scratch bitmaps, conversion between position lists and bitmaps, and the
// masked gather that turns a selection back into records.
//
// # Invariant
//
// A bitmap produced for a record sequence only ever holds positions smaller
// than that sequence's length. Gather relies on this and does not re-check
// bounds beyond Go's own slice indexing.
package bitmap
