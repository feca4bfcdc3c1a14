package collection

import (
	"github.com/hupe1980/treeman/field"
	"github.com/shopspring/decimal"
)

// Builder assembles an owned collection and its indices in one call.
type Builder[T any] struct {
	handles []*T
	opts    []Option
	indexes []func(c *Collection[T]) error
}

// NewBuilder starts an empty builder.
func NewBuilder[T any](opts ...Option) *Builder[T] {
	return &Builder[T]{opts: opts}
}

// WithRecords appends copies of records.
func (b *Builder[T]) WithRecords(records []T) *Builder[T] {
	for i := range records {
		r := records[i]
		b.handles = append(b.handles, &r)
	}
	return b
}

// WithShared appends existing record handles.
func (b *Builder[T]) WithShared(handles []*T) *Builder[T] {
	b.handles = append(b.handles, handles...)
	return b
}

// WithOptions appends collection options.
func (b *Builder[T]) WithOptions(opts ...Option) *Builder[T] {
	b.opts = append(b.opts, opts...)
	return b
}

// WithFieldIndex adds a field index.
func (b *Builder[T]) WithFieldIndex(name string, extract func(*T) field.Value) *Builder[T] {
	b.indexes = append(b.indexes, func(c *Collection[T]) error { return c.CreateFieldIndex(name, extract) })
	return b
}

// WithBucketedIndex adds a decimal bucketed index.
func (b *Builder[T]) WithBucketedIndex(name string, extract func(*T) decimal.Decimal, width decimal.Decimal) *Builder[T] {
	b.indexes = append(b.indexes, func(c *Collection[T]) error { return c.CreateBucketedIndex(name, extract, width) })
	return b
}

// WithBitIndex adds a bit index.
func (b *Builder[T]) WithBitIndex(name string, pred func(*T) bool) *Builder[T] {
	b.indexes = append(b.indexes, func(c *Collection[T]) error { return c.CreateBitIndex(name, pred) })
	return b
}

// WithTextIndex adds a text index.
func (b *Builder[T]) WithTextIndex(name string, extract func(*T) string) *Builder[T] {
	b.indexes = append(b.indexes, func(c *Collection[T]) error { return c.CreateTextIndex(name, extract) })
	return b
}

// Build creates the collection and its indices, stopping at the first
// index error.
func (b *Builder[T]) Build() (*Collection[T], error) {
	c := FromShared(b.handles, b.opts...)
	for _, create := range b.indexes {
		if err := create(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
