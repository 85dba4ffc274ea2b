// Package fileproc provides concurrent per-file processing over a snapshot.
package fileproc

import (
	"context"
	"runtime"

	"github.com/panbanda/scry/pkg/analyzer"
	"github.com/panbanda/scry/pkg/source"
	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
const DefaultWorkerMultiplier = 2

// Workers returns n, or 2x NumCPU when n <= 0.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return n
}

// Map runs fn over every file in parallel and returns one result per file
// in corpus order. A progress tracker carried by ctx is ticked per file.
func Map[T any](ctx context.Context, files []source.File, workers int, fn func(source.File) T) []T {
	return MapIndexed(ctx, files, workers, func(_ int, f source.File) T {
		return fn(f)
	})
}

// MapIndexed is Map with the file's corpus index passed to fn.
func MapIndexed[T any](ctx context.Context, files []source.File, workers int, fn func(int, source.File) T) []T {
	out, _ := collect(ctx, files, workers, func(i int, f source.File) (T, bool) {
		return fn(i, f), true
	})
	return out
}

// FilterMap is Map for sparse results: files for which fn reports false
// produce no entry. Surviving entries keep corpus order.
func FilterMap[T any](ctx context.Context, files []source.File, workers int, fn func(source.File) (T, bool)) []T {
	out, keep := collect(ctx, files, workers, func(_ int, f source.File) (T, bool) {
		return fn(f)
	})
	n := 0
	for i := range out {
		if keep[i] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// collect stores each result at its input index so the output order never
// depends on scheduling.
func collect[T any](ctx context.Context, files []source.File, workers int, fn func(int, source.File) (T, bool)) ([]T, []bool) {
	results := make([]T, len(files))
	keep := make([]bool, len(files))
	if len(files) == 0 {
		return results, keep
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(files))
	}

	p := pool.New().WithMaxGoroutines(Workers(workers))
	for i, f := range files {
		p.Go(func() {
			results[i], keep[i] = fn(i, f)
			if tracker != nil {
				tracker.Tick(f.Path)
			}
		})
	}
	p.Wait()

	return results, keep
}
