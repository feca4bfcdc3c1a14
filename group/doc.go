// Package group builds hierarchical partitions of a collection.
//
// # Architecture
//
//	            ┌──────────────────────┐
//	            │ Node "all" (depth 0) │── owned Collection
//	            └──────────┬───────────┘
//	          children (ordered by key, strong)
//	     ┌─────────────────┼─────────────────┐
//	┌────▼─────┐      ┌────▼─────┐      ┌────▼─────┐
//	│ Laptops  │ ◄──► │ Phones   │ ◄──► │ Tablets  │  depth 1, derived
//	└──────────┘      └──────────┘      └──────────┘
//	     parent links are weak, siblings resolve through the parent
//
// A node owns its child map. Children hold only a weak reference to their
// parent, so dropping the root releases the whole tree. Every child wraps a
// derived collection over the same owned records as the root; grouping never
// copies records.
//
// # Navigation
//
// GoToSubgroup and GetSubgroup have no side effects. GoToParent returns the
// parent and resets it: its child map is cleared, its filter history is
// reset to the source and its indices are dropped. GoToRoot and
// GoToAncestor apply the same reset to every node they pass. Re-descending
// requires grouping again.
//
// Siblings are the parent's children in ascending key order. A node that
// was cleared away, or whose parent is gone, has no siblings.
package group
