package treeman

import (
	"cmp"

	"github.com/hupe1980/treeman/collection"
	"github.com/hupe1980/treeman/group"
)

// New creates an owned collection over records. Records are held by
// handle and are never copied after this call.
func New[T any](records []T, opts ...Option) *collection.Collection[T] {
	return collection.FromRecords(records, resolve(opts).collectionOptions()...)
}

// NewShared creates an owned collection over handles the caller already
// holds.
func NewShared[T any](handles []*T, opts ...Option) *collection.Collection[T] {
	return collection.FromShared(handles, resolve(opts).collectionOptions()...)
}

// NewBuilder starts a collection builder configured by opts.
func NewBuilder[T any](opts ...Option) *collection.Builder[T] {
	return collection.NewBuilder[T](resolve(opts).collectionOptions()...)
}

// NewRoot creates the root of a grouping tree over records.
func NewRoot[K cmp.Ordered, T any](key K, records []T, description string, opts ...Option) *group.Node[K, T] {
	o := resolve(opts)
	data := collection.FromRecords(records, o.collectionOptions()...)
	return group.NewRoot(key, data, description, o.groupOptions()...)
}

// NewRootFunc is NewRoot for keys ordered by compare, such as bool keys
// with group.CompareBool.
func NewRootFunc[K comparable, T any](key K, records []T, description string, compare func(a, b K) int, opts ...Option) *group.Node[K, T] {
	o := resolve(opts)
	data := collection.FromRecords(records, o.collectionOptions()...)
	return group.NewRootFunc(key, data, description, compare, o.groupOptions()...)
}

// NewRootFrom creates the root of a grouping tree over an existing
// collection. Its current level becomes the root's data.
func NewRootFrom[K cmp.Ordered, T any](key K, data *collection.Collection[T], description string, opts ...Option) *group.Node[K, T] {
	return group.NewRoot(key, data, description, resolve(opts).groupOptions()...)
}
