// Package analyzer holds the contract shared by the per-concern analyzers
// and the progress tracking they report through.
package analyzer

import (
	"context"

	"github.com/panbanda/scry/pkg/source"
)

// Analyzer computes one concern of the report over a snapshot.
// Implementations must treat files as read-only and hold no state between
// calls, so one instance can serve concurrent reports.
type Analyzer[T any] interface {
	Analyze(ctx context.Context, files []source.File) (T, error)
}

// Func adapts a plain function to the Analyzer interface.
type Func[T any] func(ctx context.Context, files []source.File) (T, error)

// Analyze implements Analyzer.
func (f Func[T]) Analyze(ctx context.Context, files []source.File) (T, error) {
	return f(ctx, files)
}
