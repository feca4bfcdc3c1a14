package group

import (
	"fmt"
	"io"
	"strings"
)

// MaxDepth returns the depth of the deepest node below n, or n's depth if
// it has no children.
func (n *Node[K, T]) MaxDepth() int {
	depth := n.depth
	for _, c := range n.Subgroups() {
		depth = max(depth, c.MaxDepth())
	}
	return depth
}

// TotalGroups counts n and every node below it.
func (n *Node[K, T]) TotalGroups() int {
	total := 1
	for _, c := range n.Subgroups() {
		total += c.TotalGroups()
	}
	return total
}

// CollectAllGroups returns n and every node below it in pre-order, children
// in key order.
func (n *Node[K, T]) CollectAllGroups() []*Node[K, T] {
	var out []*Node[K, T]
	n.Traverse(func(c *Node[K, T]) { out = append(out, c) })
	return out
}

// Traverse calls fn for n and every node below it in pre-order.
func (n *Node[K, T]) Traverse(fn func(*Node[K, T])) {
	fn(n)
	for _, c := range n.Subgroups() {
		c.Traverse(fn)
	}
}

// TraverseParallel calls fn for n, then visits the children concurrently.
// A node is always visited before its children; fn must be safe for
// concurrent use.
func (n *Node[K, T]) TraverseParallel(fn func(*Node[K, T])) {
	fn(n)
	nodes := n.Subgroups()
	_ = n.opts.fan().Each(len(nodes), func(i int) error {
		nodes[i].TraverseParallel(fn)
		return nil
	})
}

// PrintTree writes an indented outline of n and its descendants to w.
func (n *Node[K, T]) PrintTree(w io.Writer) error {
	return n.print(w, 0)
}

func (n *Node[K, T]) print(w io.Writer, indent int) error {
	_, err := fmt.Fprintf(w, "%s%v (%d items, depth: %d) [prev: %s, next: %s]\n",
		strings.Repeat("  ", indent), n.key, n.Len(), n.depth, yesNo(n.HasPrev()), yesNo(n.HasNext()))
	if err != nil {
		return err
	}
	for _, c := range n.Subgroups() {
		if err := c.print(w, indent+1); err != nil {
			return err
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Info is a serialisable summary of a node and its descendants.
type Info struct {
	Key         string   `json:"key"`
	Description string   `json:"description,omitempty"`
	Depth       int      `json:"depth"`
	Items       int      `json:"items"`
	Path        []string `json:"path"`
	Subgroups   []Info   `json:"subgroups,omitempty"`
}

// Info summarises n and its descendants.
func (n *Node[K, T]) Info() Info {
	path := n.GetPath()
	info := Info{
		Key:         fmt.Sprint(n.key),
		Description: n.description,
		Depth:       n.depth,
		Items:       n.Len(),
		Path:        make([]string, len(path)),
	}
	for i, k := range path {
		info.Path[i] = fmt.Sprint(k)
	}
	for _, c := range n.Subgroups() {
		info.Subgroups = append(info.Subgroups, c.Info())
	}
	return info
}
