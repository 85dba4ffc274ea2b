package extract

import (
	"context"
	"iter"
	"log/slog"

	"github.com/panbanda/scry/pkg/parser"
	"github.com/panbanda/scry/pkg/source"
)

// TreeSitter extracts functions from a real syntax tree. Files whose
// language has no grammar, or that fail to parse, go through the
// heuristic tier instead.
type TreeSitter struct {
	fallback Extractor
	logger   *slog.Logger
}

// TreeSitterOption configures a TreeSitter extractor.
type TreeSitterOption func(*TreeSitter)

// WithFallback replaces the extractor used for unsupported files.
func WithFallback(e Extractor) TreeSitterOption {
	return func(t *TreeSitter) {
		t.fallback = e
	}
}

// WithLogger sets the logger for parse failures.
func WithLogger(l *slog.Logger) TreeSitterOption {
	return func(t *TreeSitter) {
		t.logger = l
	}
}

// NewTreeSitter creates a grammar-backed extractor.
func NewTreeSitter(opts ...TreeSitterOption) *TreeSitter {
	t := &TreeSitter{
		fallback: NewHeuristic(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Extract implements Extractor. A parser is created per call, so one
// TreeSitter may be shared across goroutines.
func (t *TreeSitter) Extract(f source.File) iter.Seq[FunctionSpan] {
	lang := parser.DetectLanguage(f.Path)
	if lang == parser.LangUnknown {
		return t.fallback.Extract(f)
	}

	return func(yield func(FunctionSpan) bool) {
		p := parser.New()
		defer p.Close()

		result, err := p.Parse(context.Background(), []byte(f.Content), lang)
		if err != nil {
			t.logger.Debug("tree-sitter parse failed, using heuristic", "path", f.Path, "error", err)
			for span := range t.fallback.Extract(f) {
				if !yield(span) {
					return
				}
			}
			return
		}
		defer result.Close()

		for _, fn := range parser.Functions(result) {
			if !yield(FunctionSpan{Name: fn.Name, StartLine: fn.StartLine, Text: fn.Text}) {
				return
			}
		}
	}
}
