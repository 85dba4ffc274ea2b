package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panbanda/scry/pkg/analyzer"
	"github.com/panbanda/scry/pkg/source"
)

func makeFiles(n int) []source.File {
	files := make([]source.File, n)
	for i := range files {
		files[i] = source.File{Path: fmt.Sprintf("file%03d.go", i), Content: strings.Repeat("x", i)}
	}
	return files
}

func TestWorkers(t *testing.T) {
	if got := Workers(3); got != 3 {
		t.Errorf("Workers(3) = %d, want 3", got)
	}
	want := runtime.NumCPU() * DefaultWorkerMultiplier
	if got := Workers(0); got != want {
		t.Errorf("Workers(0) = %d, want %d", got, want)
	}
	if got := Workers(-1); got != want {
		t.Errorf("Workers(-1) = %d, want %d", got, want)
	}
}

func TestMapPreservesOrder(t *testing.T) {
	files := makeFiles(200)

	results := Map(context.Background(), files, 8, func(f source.File) int {
		// Larger files finish later; ordering must not depend on it.
		time.Sleep(time.Duration(200-len(f.Content)) * time.Microsecond)
		return len(f.Content)
	})

	if len(results) != len(files) {
		t.Fatalf("Map() returned %d results, want %d", len(results), len(files))
	}
	for i, r := range results {
		if r != i {
			t.Fatalf("results[%d] = %d, want %d", i, r, i)
		}
	}
}

func TestMapEmpty(t *testing.T) {
	results := Map(context.Background(), nil, 0, func(f source.File) string { return f.Path })
	if len(results) != 0 {
		t.Errorf("Map(nil) = %v, want empty", results)
	}
}

func TestMapIndexed(t *testing.T) {
	files := makeFiles(20)

	results := MapIndexed(context.Background(), files, 4, func(i int, f source.File) string {
		return fmt.Sprintf("%d:%s", i, f.Path)
	})

	for i, r := range results {
		if want := fmt.Sprintf("%d:file%03d.go", i, i); r != want {
			t.Errorf("results[%d] = %q, want %q", i, r, want)
		}
	}
}

func TestFilterMap(t *testing.T) {
	files := makeFiles(50)

	results := FilterMap(context.Background(), files, 4, func(f source.File) (string, bool) {
		return f.Path, len(f.Content)%10 == 0
	})

	want := []string{"file000.go", "file010.go", "file020.go", "file030.go", "file040.go"}
	if strings.Join(results, ",") != strings.Join(want, ",") {
		t.Errorf("FilterMap() = %v, want %v", results, want)
	}
}

func TestMapTicksTracker(t *testing.T) {
	var ticks atomic.Int32
	tracker := analyzer.NewTracker(func(int, int, string) { ticks.Add(1) })
	ctx := analyzer.WithTracker(context.Background(), tracker)

	Map(ctx, makeFiles(10), 2, func(source.File) int { return 0 })
	FilterMap(ctx, makeFiles(5), 2, func(source.File) (int, bool) { return 0, false })

	if got := ticks.Load(); got != 15 {
		t.Errorf("tracker ticked %d times, want 15", got)
	}
	if tracker.Total() != 15 {
		t.Errorf("tracker.Total() = %d, want 15", tracker.Total())
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32

	Map(context.Background(), makeFiles(40), 3, func(source.File) int {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return 0
	})

	if got := peak.Load(); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}
