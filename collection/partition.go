package collection

import (
	"runtime"
	"slices"

	"github.com/hupe1980/treeman/internal/parallel"
)

// Partition splits the current level of c by key. Every part is a derived
// collection over the same owner as c, holding its records in owner order.
// Parts inherit c's options.
//
// It returns ErrParentDataUnavailable when c's records are gone.
func Partition[K comparable, T any](c *Collection[T], key func(*T) K) (map[K]*Collection[T], error) {
	src, ps, err := c.currentPositions()
	if err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(src)

	cfg := c.opts.cfg.scan()
	spans := cfg.Spans(len(ps))
	locals := make([]map[K][]int, len(spans))
	_ = parallel.Run(cfg.WorkerCount(), spans, func(chunk int, s parallel.Span) error {
		local := make(map[K][]int)
		for _, p := range ps[s.Lo:s.Hi] {
			k := key(src.items[p])
			local[k] = append(local[k], p)
		}
		locals[chunk] = local
		return nil
	})

	merged := make(map[K][]int)
	for _, local := range locals {
		for k, part := range local {
			merged[k] = append(merged[k], part...)
		}
	}

	out := make(map[K]*Collection[T], len(merged))
	for k, part := range merged {
		slices.Sort(part)
		out[k] = derive(src, part, []Option{inherit(c.opts)})
	}
	return out, nil
}
