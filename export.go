package treeman

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/hupe1980/treeman/collection"
	"github.com/hupe1980/treeman/group"
)

// CollectionStats is a serialisable snapshot of a collection's state.
type CollectionStats struct {
	State   string                 `json:"state"`
	Valid   bool                   `json:"valid"`
	Derived bool                   `json:"derived"`
	Levels  []collection.LevelInfo `json:"levels"`
	Memory  collection.MemoryStats `json:"memory"`
	Indexes []collection.IndexInfo `json:"indexes"`
}

// Stats snapshots c.
func Stats[T any](c *collection.Collection[T]) CollectionStats {
	return CollectionStats{
		State:   c.FilterStateInfo(),
		Valid:   c.IsValid(),
		Derived: c.IsDerived(),
		Levels:  c.LevelInfo(),
		Memory:  c.MemoryStats(),
		Indexes: c.ListIndexes(),
	}
}

// ExportStats writes Stats(c) to w as indented JSON.
func ExportStats[T any](w io.Writer, c *collection.Collection[T]) error {
	return encode(w, Stats(c))
}

// ExportTree writes the tree below n to w as indented JSON.
func ExportTree[K comparable, T any](w io.Writer, n *group.Node[K, T]) error {
	return encode(w, n.Info())
}

// ExportRuntime writes RuntimeInfo to w as indented JSON.
func ExportRuntime(w io.Writer) error {
	return encode(w, RuntimeInfo())
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
