// Package index provides the secondary indices a collection can attach.
//
// There are four index kinds:
//
//   - Field: one field's values mapped to a compressed bitmap of positions
//     each, plus a value-sorted (value, position) array for range scans
//   - Bucketed: continuous decimal or float values grouped into fixed-width
//     buckets; range queries re-check exact values inside covered buckets
//   - Bit: a single bitmap built from a boolean predicate, with set algebra
//   - Text: lower-cased character n-grams mapped to bitmaps, answering
//     substring and boolean word queries
//
// A collection never mutates an index after publishing it; Bit mutators and
// Bucketed.Rebuild exist for standalone use. Positions are offsets into the
// record sequence the index was built from and are never applied to another
// one.
//
// # Quality
//
// Field indices classify themselves at build time:
//
//	cardinality = unique / total
//	balance     = 1 - |maxCount - total/unique| / total
//
//	Excellent   cardinality > 0.50
//	Bad         cardinality < 0.05 or balance < 0.30
//	Good        otherwise
//
// The grade and skew drive selectivity estimates and IsEfficientFor, which
// callers use as planning hints only. Results never depend on them.
package index
