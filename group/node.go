package group

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
	"time"
	"weak"

	"github.com/hupe1980/treeman/collection"
	"github.com/hupe1980/treeman/internal/logging"
)

// subgroups is an immutable snapshot of a node's children.
type subgroups[K comparable, T any] struct {
	keys  []K
	nodes map[K]*Node[K, T]
}

func (s *subgroups[K, T]) ordered() []*Node[K, T] {
	if s == nil {
		return nil
	}
	out := make([]*Node[K, T], len(s.keys))
	for i, k := range s.keys {
		out[i] = s.nodes[k]
	}
	return out
}

// Node is one group of a grouping tree. It wraps the collection of records
// sharing the node's key and owns its children. Sibling order follows the
// tree's key comparison.
//
// All methods are safe for concurrent use.
type Node[K comparable, T any] struct {
	key         K
	description string
	depth       int
	data        *collection.Collection[T]
	root        bool
	parent      weak.Pointer[Node[K, T]]
	compare     func(a, b K) int

	children atomic.Pointer[subgroups[K, T]]
	detached atomic.Bool

	opts *options
}

// NewRoot creates the root of a tree over data, ordering keys with
// cmp.Compare.
func NewRoot[K cmp.Ordered, T any](key K, data *collection.Collection[T], description string, opts ...Option) *Node[K, T] {
	return NewRootFunc(key, data, description, cmp.Compare[K], opts...)
}

// NewRootFunc creates the root of a tree whose keys are ordered by compare,
// e.g. CompareBool for bool keys. compare must be a strict weak ordering
// consistent with ==.
func NewRootFunc[K comparable, T any](key K, data *collection.Collection[T], description string, compare func(a, b K) int, opts ...Option) *Node[K, T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Node[K, T]{key: key, description: description, data: data, root: true, compare: compare, opts: o}
}

// CompareBool orders false before true.
func CompareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// Key returns the node's group key.
func (n *Node[K, T]) Key() K { return n.key }

// Data returns the node's collection.
func (n *Node[K, T]) Data() *collection.Collection[T] { return n.data }

// Description returns the description given to the GroupBy that created the
// node, or to NewRoot.
func (n *Node[K, T]) Description() string { return n.description }

// Depth returns the distance from the root.
func (n *Node[K, T]) Depth() int { return n.depth }

// IsRoot reports whether the node was created by NewRoot.
func (n *Node[K, T]) IsRoot() bool { return n.root }

// Len returns the record count of the node's current level.
func (n *Node[K, T]) Len() int { return n.data.Len() }

// GroupBy partitions the current records by extract and replaces the child
// map with one child per key.
func (n *Node[K, T]) GroupBy(extract func(*T) K, description string) error {
	return n.GroupByWithIndexes(extract, description, nil)
}

// GroupByWithIndexes is GroupBy with a setup callback, typically creating
// indices, run concurrently for every new child before the child map is
// replaced. If setup fails the existing children are kept.
func (n *Node[K, T]) GroupByWithIndexes(extract func(*T) K, description string, setup func(key K, data *collection.Collection[T]) error) error {
	start := time.Now()
	parts, err := collection.Partition(n.data, extract)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrParentDataEmpty, err)
		n.opts.metrics.OnGroupBy(time.Since(start), 0, err)
		logging.GroupBy(context.Background(), n.opts.logger, description, 0, err)
		return err
	}

	keys := slices.SortedFunc(maps.Keys(parts), n.compare)
	next := &subgroups[K, T]{keys: keys, nodes: make(map[K]*Node[K, T], len(keys))}
	for _, k := range keys {
		next.nodes[k] = &Node[K, T]{
			key:         k,
			description: description,
			depth:       n.depth + 1,
			data:        parts[k],
			parent:      weak.Make(n),
			compare:     n.compare,
			opts:        n.opts,
		}
	}

	if setup != nil {
		err := n.opts.fan().Each(len(keys), func(i int) error {
			return setup(keys[i], next.nodes[keys[i]].data)
		})
		if err != nil {
			n.opts.metrics.OnGroupBy(time.Since(start), len(keys), err)
			logging.GroupBy(context.Background(), n.opts.logger, description, len(keys), err)
			return err
		}
	}

	detach(n.children.Swap(next))
	n.opts.metrics.OnGroupBy(time.Since(start), len(keys), nil)
	logging.GroupBy(context.Background(), n.opts.logger, description, len(keys), nil)
	return nil
}

// detach clears every node of s and marks it as removed from its parent.
func detach[K comparable, T any](s *subgroups[K, T]) {
	if s == nil {
		return
	}
	for _, c := range s.nodes {
		c.detached.Store(true)
		c.ClearSubgroups()
	}
}

// GetSubgroup returns the child with key.
func (n *Node[K, T]) GetSubgroup(key K) (*Node[K, T], bool) {
	s := n.children.Load()
	if s == nil {
		return nil, false
	}
	c, ok := s.nodes[key]
	return c, ok
}

// GoToSubgroup descends to the child with key. It changes nothing.
func (n *Node[K, T]) GoToSubgroup(key K) (*Node[K, T], bool) {
	c, ok := n.GetSubgroup(key)
	if ok {
		logging.Navigation(context.Background(), n.opts.logger, fmt.Sprint(n.key), fmt.Sprint(key), c.depth)
	}
	return c, ok
}

// SubgroupsKeys returns the child keys in ascending order.
func (n *Node[K, T]) SubgroupsKeys() []K {
	s := n.children.Load()
	if s == nil {
		return []K{}
	}
	return slices.Clone(s.keys)
}

// Subgroups returns the children in key order.
func (n *Node[K, T]) Subgroups() []*Node[K, T] { return n.children.Load().ordered() }

// SubgroupsCount returns the number of children.
func (n *Node[K, T]) SubgroupsCount() int {
	if s := n.children.Load(); s != nil {
		return len(s.keys)
	}
	return 0
}

// FirstSubgroupKey returns the smallest child key.
func (n *Node[K, T]) FirstSubgroupKey() (K, bool) {
	var zero K
	s := n.children.Load()
	if s == nil || len(s.keys) == 0 {
		return zero, false
	}
	return s.keys[0], true
}

// LastSubgroupKey returns the largest child key.
func (n *Node[K, T]) LastSubgroupKey() (K, bool) {
	var zero K
	s := n.children.Load()
	if s == nil || len(s.keys) == 0 {
		return zero, false
	}
	return s.keys[len(s.keys)-1], true
}

// SubgroupsRange returns the children with lo <= key <= hi in key order.
func (n *Node[K, T]) SubgroupsRange(lo, hi K) []*Node[K, T] {
	s := n.children.Load()
	if s == nil || n.compare(hi, lo) < 0 {
		return []*Node[K, T]{}
	}
	i, _ := slices.BinarySearchFunc(s.keys, lo, n.compare)
	j, found := slices.BinarySearchFunc(s.keys, hi, n.compare)
	if found {
		j++
	}
	out := make([]*Node[K, T], 0, j-i)
	for _, k := range s.keys[i:j] {
		out = append(out, s.nodes[k])
	}
	return out
}

// TopSubgroups returns up to k children with the most records, largest
// first. Ties keep key order.
func (n *Node[K, T]) TopSubgroups(k int) []*Node[K, T] {
	return n.bySize(k, func(a, b int) int { return cmp.Compare(b, a) })
}

// BottomSubgroups returns up to k children with the fewest records,
// smallest first. Ties keep key order.
func (n *Node[K, T]) BottomSubgroups(k int) []*Node[K, T] {
	return n.bySize(k, cmp.Compare[int])
}

func (n *Node[K, T]) bySize(k int, order func(a, b int) int) []*Node[K, T] {
	nodes := n.Subgroups()
	if k <= 0 || len(nodes) == 0 {
		return []*Node[K, T]{}
	}
	sizes := make(map[*Node[K, T]]int, len(nodes))
	for _, c := range nodes {
		sizes[c] = c.Len()
	}
	slices.SortStableFunc(nodes, func(a, b *Node[K, T]) int { return order(sizes[a], sizes[b]) })
	return nodes[:min(k, len(nodes))]
}

// Parent returns the parent if it is still reachable. It changes nothing.
func (n *Node[K, T]) Parent() (*Node[K, T], bool) {
	if n.root {
		return nil, false
	}
	p := n.parent.Value()
	return p, p != nil
}

// GoToParent returns the parent and resets it. The parent's children are
// cleared, including n, its filters are reset to the source and its indices
// are dropped.
func (n *Node[K, T]) GoToParent() (*Node[K, T], bool) {
	p, ok := n.Parent()
	if !ok {
		return nil, false
	}
	p.reset()
	logging.Navigation(context.Background(), n.opts.logger, fmt.Sprint(n.key), fmt.Sprint(p.key), p.depth)
	return p, true
}

func (n *Node[K, T]) reset() {
	n.ClearSubgroups()
	_ = n.data.ResetToSource()
	n.data.ClearAllIndexes()
}

// GoToRoot walks up to the topmost reachable ancestor, resetting every
// ancestor on the way. Called on a root it returns the root unchanged.
func (n *Node[K, T]) GoToRoot() *Node[K, T] {
	cur := n
	for {
		p, ok := cur.GoToParent()
		if !ok {
			return cur
		}
		cur = p
	}
}

// GoToAncestor walks up to the nearest ancestor with key, resetting every
// ancestor on the way. Nothing is reset if no such ancestor is reachable.
func (n *Node[K, T]) GoToAncestor(key K) (*Node[K, T], bool) {
	steps := 0
	for cur := n; ; {
		p, ok := cur.Parent()
		if !ok {
			return nil, false
		}
		steps++
		if p.key == key {
			break
		}
		cur = p
	}
	cur := n
	for range steps {
		p, ok := cur.GoToParent()
		if !ok {
			return nil, false
		}
		cur = p
	}
	return cur, true
}

// GetPath returns the keys from the root down to n. A path broken by an
// unreachable ancestor starts at the topmost reachable one.
func (n *Node[K, T]) GetPath() []K {
	path := []K{n.key}
	for cur := n; ; {
		p, ok := cur.Parent()
		if !ok {
			break
		}
		path = append(path, p.key)
		cur = p
	}
	slices.Reverse(path)
	return path
}

// ClearSubgroups removes every child, recursively.
func (n *Node[K, T]) ClearSubgroups() { detach(n.children.Swap(nil)) }

// ResetFilters resets the node's collection to its source level.
func (n *Node[K, T]) ResetFilters() error { return n.data.ResetToSource() }

// Filter filters the node's collection.
func (n *Node[K, T]) Filter(pred func(*T) bool) error { return n.data.Filter(pred) }

// FilterSubgroups filters every child's collection concurrently and returns
// the first error.
func (n *Node[K, T]) FilterSubgroups(pred func(*T) bool) error {
	nodes := n.Subgroups()
	return n.opts.fan().Each(len(nodes), func(i int) error {
		return nodes[i].data.Filter(pred)
	})
}
