package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc receives progress updates. current counts processed files,
// total is every file registered so far across all analyses sharing the
// tracker, and path is the file just finished.
type ProgressFunc func(current, total int, path string)

// Tracker counts processed files for one report run.
// It is safe for concurrent use.
type Tracker struct {
	total    atomic.Int64
	current  atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker invoking callback on each Tick.
// A nil callback is allowed.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add registers n more files to process.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// Tick marks one file as processed.
func (t *Tracker) Tick(path string) {
	current := int(t.current.Add(1))
	if t.callback != nil {
		t.callback(current, int(t.total.Load()), path)
	}
}

// Current returns the number of processed files.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the number of registered files.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context carrying t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker carried by ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
