package treeman

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Filterer is implemented by collections and group nodes.
type Filterer[T any] interface {
	Filter(pred func(*T) bool) error
}

// FilterTask pairs a target with the predicate to apply to it.
type FilterTask[T any] struct {
	Target Filterer[T]
	Pred   func(*T) bool
}

// FilterParallel applies every task concurrently and returns the first
// error. Tasks not yet started when ctx is done are skipped.
func FilterParallel[T any](ctx context.Context, tasks ...FilterTask[T]) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return Classify(t.Target.Filter(t.Pred))
		})
	}
	return g.Wait()
}

// SubgroupFilterer is implemented by group nodes.
type SubgroupFilterer[T any] interface {
	FilterSubgroups(pred func(*T) bool) error
}

// SubgroupFilterTask pairs a node with the predicate to apply to each of
// its children.
type SubgroupFilterTask[T any] struct {
	Target SubgroupFilterer[T]
	Pred   func(*T) bool
}

// FilterSubgroupsParallel runs FilterSubgroups for every task
// concurrently and returns the first error.
func FilterSubgroupsParallel[T any](ctx context.Context, tasks ...SubgroupFilterTask[T]) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return Classify(t.Target.FilterSubgroups(t.Pred))
		})
	}
	return g.Wait()
}
