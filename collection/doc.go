// Package collection implements a versioned, copy-on-write record
// collection with bounded drill-down history and named secondary indices.
//
// # Architecture
//
//	          ┌──────────────────────── Collection[T] ────────────────────────┐
//	          │                                                               │
//	 Filter ─►│ state (atomic.Pointer)        registry (atomic.Pointer + mu)  │
//	          │   version                       name → entry{index, build,    │
//	          │   levels[0..n]                               extract, version}│
//	          │     0: source                                                 │
//	          │     n: current ◄── queries read a snapshot, never block       │
//	          └───────────────────────────────────────────────────────────────┘
//
// A collection stores its records in one of two modes:
//
//   - Owned: the collection holds the source sequence of record handles. Each
//     level stores its own handle sequence.
//   - Derived: the collection holds a weak reference to an owner's source and
//     stores positions into it. Once the owner is released and collected,
//     the derived collection reads as empty and IsValid reports false.
//
// # Filtering
//
// Filter evaluates a predicate over the current level and commits the
// survivors as a new level with a compare-and-swap on the state pointer. A
// writer that loses the race recomputes against the winner's level, up to
// Config.FilterRetries times, and then gives up without changing anything.
// History is bounded by Config.MaxHistory: the oldest filtered level is
// dropped, level 0 is always kept.
//
// After each commit every registered index is rebuilt against the new level
// in parallel. Indices record the state version they describe; a query that
// finds a stale index rebuilds it before answering, so index positions are
// always positions of the level being queried.
//
// GoToLevel, Up and ResetToSource truncate the history and drop every index.
package collection
