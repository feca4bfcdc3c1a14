// Package parallel provides the chunked data-parallel fan-out used by index
// builds, predicate evaluation and bulk gathers.
//
// Work below Config.Threshold runs inline on the calling goroutine. Above it
// the range is split into contiguous chunks processed by an errgroup bounded
// to Config.Workers goroutines. Chunk results are always reassembled in chunk
// order, so order-preserving helpers stay deterministic.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls when and how wide work fans out.
type Config struct {
	// Threshold is the input size at which work goes parallel.
	// Zero means always parallel when more than one worker is available.
	Threshold int

	// Workers bounds concurrent goroutines. Zero means GOMAXPROCS.
	Workers int

	// MinChunk is the smallest chunk handed to a worker. Zero means 1.
	MinChunk int
}

// Sequential runs everything on the calling goroutine.
var Sequential = Config{Threshold: int(^uint(0) >> 1), Workers: 1}

// WorkerCount resolves the effective number of workers.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Parallel reports whether an input of n items fans out.
func (c Config) Parallel(n int) bool {
	return n > 1 && n >= c.Threshold && c.WorkerCount() > 1
}

// Span is a half-open index range [Lo, Hi).
type Span struct {
	Lo, Hi int
}

// Len returns the number of items covered.
func (s Span) Len() int { return s.Hi - s.Lo }

// Split cuts [0, n) into at most workers contiguous spans of at least
// minChunk items.
func Split(n, workers, minChunk int) []Span {
	if n <= 0 {
		return nil
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	if size < minChunk {
		size = minChunk
	}
	spans := make([]Span, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		spans = append(spans, Span{Lo: lo, Hi: min(lo+size, n)})
	}
	return spans
}

// SplitFixed cuts [0, n) into spans of exactly size items (the last may be shorter).
func SplitFixed(n, size int) []Span {
	if n <= 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	spans := make([]Span, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		spans = append(spans, Span{Lo: lo, Hi: min(lo+size, n)})
	}
	return spans
}

// Spans returns the spans c would use for n items.
func (c Config) Spans(n int) []Span {
	if !c.Parallel(n) {
		if n <= 0 {
			return nil
		}
		return []Span{{Lo: 0, Hi: n}}
	}
	return Split(n, c.WorkerCount(), c.MinChunk)
}

// Run invokes fn once per span, concurrently when more than one span is
// given. It returns the first error.
func Run(workers int, spans []Span, fn func(chunk int, s Span) error) error {
	if len(spans) == 1 || workers == 1 {
		for i, s := range spans {
			if err := fn(i, s); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, s := range spans {
		g.Go(func() error {
			return fn(i, s)
		})
	}
	return g.Wait()
}

// For processes [0, n) in chunks.
func (c Config) For(n int, fn func(s Span) error) error {
	return Run(c.WorkerCount(), c.Spans(n), func(_ int, s Span) error {
		return fn(s)
	})
}

// Each runs fn for every task concurrently, bounded by the worker count.
func (c Config) Each(tasks int, fn func(i int) error) error {
	if tasks <= 0 {
		return nil
	}
	spans := SplitFixed(tasks, 1)
	workers := c.WorkerCount()
	if tasks < c.Threshold {
		workers = 1
	}
	return Run(workers, spans, func(_ int, s Span) error {
		return fn(s.Lo)
	})
}

// Map applies fn to every element and returns the results in input order.
func Map[T, R any](c Config, in []T, fn func(i int, v T) R) []R {
	out := make([]R, len(in))
	_ = c.For(len(in), func(s Span) error {
		for i := s.Lo; i < s.Hi; i++ {
			out[i] = fn(i, in[i])
		}
		return nil
	})
	return out
}

// FilterIndex returns the indices of elements satisfying keep, ascending.
func FilterIndex[T any](c Config, in []T, keep func(v T) bool) []int {
	spans := c.Spans(len(in))
	parts := make([][]int, len(spans))
	_ = Run(c.WorkerCount(), spans, func(chunk int, s Span) error {
		local := make([]int, 0, s.Len()/4+1)
		for i := s.Lo; i < s.Hi; i++ {
			if keep(in[i]) {
				local = append(local, i)
			}
		}
		parts[chunk] = local
		return nil
	})
	return concat(parts)
}

// Gather returns src[p] for every p in positions, in positions order.
// Positions must be valid indices into src.
func Gather[T any](c Config, src []T, positions []int) []T {
	out := make([]T, len(positions))
	_ = c.For(len(positions), func(s Span) error {
		for i := s.Lo; i < s.Hi; i++ {
			out[i] = src[positions[i]]
		}
		return nil
	})
	return out
}

func concat[T any](parts [][]T) []T {
	if len(parts) == 1 {
		return parts[0]
	}
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]T, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
