package group

import "slices"

// siblings resolves n's position among its parent's children.
func (n *Node[K, T]) siblings() (*subgroups[K, T], int, bool) {
	if n.root || n.detached.Load() {
		return nil, 0, false
	}
	p := n.parent.Value()
	if p == nil {
		return nil, 0, false
	}
	s := p.children.Load()
	if s == nil {
		return nil, 0, false
	}
	i, found := slices.BinarySearchFunc(s.keys, n.key, n.compare)
	if !found || s.nodes[n.key] != n {
		return nil, 0, false
	}
	return s, i, true
}

// NextRelative returns the sibling with the next larger key.
func (n *Node[K, T]) NextRelative() (*Node[K, T], bool) {
	s, i, ok := n.siblings()
	if !ok || i+1 >= len(s.keys) {
		return nil, false
	}
	return s.nodes[s.keys[i+1]], true
}

// PrevRelative returns the sibling with the next smaller key.
func (n *Node[K, T]) PrevRelative() (*Node[K, T], bool) {
	s, i, ok := n.siblings()
	if !ok || i == 0 {
		return nil, false
	}
	return s.nodes[s.keys[i-1]], true
}

// HasNext reports whether NextRelative would succeed.
func (n *Node[K, T]) HasNext() bool {
	_, ok := n.NextRelative()
	return ok
}

// HasPrev reports whether PrevRelative would succeed.
func (n *Node[K, T]) HasPrev() bool {
	_, ok := n.PrevRelative()
	return ok
}

// FirstRelative returns the sibling with the smallest key, or n itself when
// it has no siblings.
func (n *Node[K, T]) FirstRelative() *Node[K, T] {
	s, _, ok := n.siblings()
	if !ok {
		return n
	}
	return s.nodes[s.keys[0]]
}

// LastRelative returns the sibling with the largest key, or n itself when
// it has no siblings.
func (n *Node[K, T]) LastRelative() *Node[K, T] {
	s, _, ok := n.siblings()
	if !ok {
		return n
	}
	return s.nodes[s.keys[len(s.keys)-1]]
}

// Relatives returns all siblings in key order, n included.
func (n *Node[K, T]) Relatives() []*Node[K, T] {
	s, _, ok := n.siblings()
	if !ok {
		return []*Node[K, T]{n}
	}
	return s.ordered()
}
