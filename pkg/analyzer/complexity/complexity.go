// Package complexity scores cyclomatic complexity of function spans by
// counting decision points in their text.
package complexity

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/panbanda/scry/internal/fileproc"
	"github.com/panbanda/scry/pkg/extract"
	"github.com/panbanda/scry/pkg/source"
	"gonum.org/v1/gonum/stat"
)

// decisionKeywords matches branching keywords as whole words.
var decisionKeywords = regexp.MustCompile(`\b(?:if|else|for|while|switch|case|catch)\b`)

// decisionOperators are counted literally. "?" includes optional chaining
// and nullish coalescing.
var decisionOperators = []string{"&&", "||", "?"}

// Complexity returns 1 plus the number of decision points in text.
// Nested spans are not subtracted.
func Complexity(text string) int {
	n := 1 + len(decisionKeywords.FindAllStringIndex(text, -1))
	for _, op := range decisionOperators {
		n += strings.Count(text, op)
	}
	return n
}

// Scorer computes per-file complexity results.
type Scorer struct {
	extractor extract.Extractor
	workers   int
}

// Option is a functional option for configuring Scorer.
type Option func(*Scorer)

// WithExtractor sets the function extractor. Defaults to the heuristic tier.
func WithExtractor(e extract.Extractor) Option {
	return func(s *Scorer) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithWorkers sets the number of parallel workers. 0 means 2x NumCPU.
func WithWorkers(n int) Option {
	return func(s *Scorer) {
		s.workers = n
	}
}

// New creates a new complexity scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{extractor: extract.NewHeuristic()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the complexity result for a single file.
func (s *Scorer) Score(f source.File) Result {
	functions := make([]FunctionScore, 0)
	total := 0
	for span := range s.extractor.Extract(f) {
		c := Complexity(span.Text)
		total += c
		functions = append(functions, FunctionScore{
			Name:       span.Name,
			Complexity: c,
			Line:       span.StartLine,
		})
	}

	var avg float64
	if len(functions) > 0 {
		avg = float64(total) / float64(len(functions))
	}

	return Result{
		File:              f.Path,
		AverageComplexity: avg,
		Functions:         functions,
		Rating:            RatingFor(avg),
	}
}

// Analyze scores every file, one result per file in corpus order.
func (s *Scorer) Analyze(ctx context.Context, files []source.File) ([]Result, error) {
	return fileproc.Map(ctx, files, s.workers, s.Score), nil
}

// Summarize computes project-level statistics over every function score.
func Summarize(results []Result) Summary {
	sum := Summary{TotalFiles: len(results)}

	var values []float64
	for _, r := range results {
		for _, fn := range r.Functions {
			values = append(values, float64(fn.Complexity))
			sum.MaxComplexity = max(sum.MaxComplexity, fn.Complexity)
		}
	}
	sum.TotalFunctions = len(values)
	if len(values) == 0 {
		return sum
	}

	slices.Sort(values)
	sum.AverageComplexity = stat.Mean(values, nil)
	sum.P90Complexity = stat.Quantile(0.9, stat.Empirical, values, nil)
	return sum
}
