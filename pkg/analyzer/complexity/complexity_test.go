package complexity

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"testing"

	"github.com/panbanda/scry/pkg/extract"
	"github.com/panbanda/scry/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplexity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty body", "function a() { return 1; }", 1},
		{"no decisions across lines", "function a() {\n  const x = 1;\n  return x * 2;\n}", 1},
		{"if else", "if (a) { b() } else { c() }", 3},
		{"else if counts both", "if (a) {} else if (b) {}", 4},
		{"loops", "for (;;) {} while (x) {}", 3},
		{"switch cases", "switch (x) { case 1: break; case 2: break; }", 4},
		{"try catch", "try { a() } catch (e) {}", 2},
		{"logical operators", "if (a && b || c) {}", 4},
		{"ternary", "return a ? b : c;", 2},
		{"optional chaining and nullish", "a?.b ?? c", 4},
		{"keyword inside identifier ignored", "forEach(iffy, elsewhere, catchAll)", 1},
		{"nesting not subtracted", "if (a) { if (b) { if (c) {} } }", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Complexity(tt.text))
		})
	}
}

func TestRatingFor(t *testing.T) {
	tests := []struct {
		avg  float64
		want Rating
	}{
		{0, RatingLow},
		{1, RatingLow},
		{5, RatingLow},
		{5.0001, RatingMedium},
		{6, RatingMedium},
		{10, RatingMedium},
		{10.5, RatingHigh},
		{11, RatingHigh},
		{20, RatingHigh},
		{20.0001, RatingVeryHigh},
		{21, RatingVeryHigh},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.avg), func(t *testing.T) {
			assert.Equal(t, tt.want, RatingFor(tt.avg))
		})
	}
}

func TestRatingIsHigh(t *testing.T) {
	assert.False(t, RatingLow.IsHigh())
	assert.False(t, RatingMedium.IsHigh())
	assert.True(t, RatingHigh.IsHigh())
	assert.True(t, RatingVeryHigh.IsHigh())
}

func TestScoreNoFunctions(t *testing.T) {
	r := New().Score(source.File{Path: "consts.js", Content: "const a = 1;\n"})

	assert.Equal(t, "consts.js", r.File)
	assert.Equal(t, 0.0, r.AverageComplexity)
	assert.Equal(t, RatingLow, r.Rating)
	assert.NotNil(t, r.Functions)
	assert.Empty(t, r.Functions)
}

func TestScoreHeuristic(t *testing.T) {
	src := `function check(a, b) {
  if (a && b) {
    return 1;
  }
  return 0;
}
`
	r := New().Score(source.File{Path: "check.js", Content: src})

	// named declaration and bare call-with-block both match
	require.Len(t, r.Functions, 3)
	assert.Equal(t, FunctionScore{Name: "check", Complexity: 3, Line: 1}, r.Functions[0])
	assert.Equal(t, FunctionScore{Name: "check", Complexity: 3, Line: 1}, r.Functions[1])
	assert.Equal(t, FunctionScore{Name: "if", Complexity: 3, Line: 2}, r.Functions[2])
	assert.Equal(t, 3.0, r.AverageComplexity)
	assert.Equal(t, RatingLow, r.Rating)
}

type stubExtractor map[string][]extract.FunctionSpan

func (s stubExtractor) Extract(f source.File) iter.Seq[extract.FunctionSpan] {
	return func(yield func(extract.FunctionSpan) bool) {
		for _, span := range s[f.Path] {
			if !yield(span) {
				return
			}
		}
	}
}

func TestScoreAverageAndRating(t *testing.T) {
	branchy := "function f() {" + strings.Repeat(" if (x) {}", 11) + " }"
	stub := stubExtractor{
		"a.ts": {
			{Name: "simple", StartLine: 1, Text: "return 1"},
			{Name: "branchy", StartLine: 5, Text: branchy},
		},
	}

	r := New(WithExtractor(stub)).Score(source.File{Path: "a.ts"})

	require.Len(t, r.Functions, 2)
	assert.Equal(t, 1, r.Functions[0].Complexity)
	assert.Equal(t, 12, r.Functions[1].Complexity)
	assert.Equal(t, 6.5, r.AverageComplexity)
	assert.Equal(t, RatingMedium, r.Rating)
}

func TestScoreTreeSitter(t *testing.T) {
	src := "package main\n\nfunc run(ok bool) int {\n\tif ok {\n\t\treturn 1\n\t}\n\treturn 0\n}\n"

	r := New(WithExtractor(extract.NewTreeSitter())).Score(source.File{Path: "main.go", Content: src})

	require.Len(t, r.Functions, 1)
	assert.Equal(t, FunctionScore{Name: "run", Complexity: 2, Line: 3}, r.Functions[0])
}

func TestAnalyzeOrder(t *testing.T) {
	var files []source.File
	for i := range 30 {
		files = append(files, source.File{
			Path:    fmt.Sprintf("f%02d.js", i),
			Content: "function f() {" + strings.Repeat(" if (x) {}", i) + " }",
		})
	}

	results, err := New(WithWorkers(4)).Analyze(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, results, len(files))

	for i, r := range results {
		assert.Equal(t, files[i].Path, r.File)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	results, err := New().Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSummarize(t *testing.T) {
	var fns []FunctionScore
	for i := 1; i <= 10; i++ {
		fns = append(fns, FunctionScore{Name: fmt.Sprint(i), Complexity: i})
	}
	results := []Result{
		{File: "a.js", Functions: fns[:4]},
		{File: "b.js", Functions: fns[4:]},
		{File: "empty.js", Functions: []FunctionScore{}},
	}

	s := Summarize(results)
	assert.Equal(t, 3, s.TotalFiles)
	assert.Equal(t, 10, s.TotalFunctions)
	assert.InDelta(t, 5.5, s.AverageComplexity, 1e-9)
	assert.GreaterOrEqual(t, s.P90Complexity, 9.0)
	assert.LessOrEqual(t, s.P90Complexity, 10.0)
	assert.Equal(t, 10, s.MaxComplexity)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Summary{}, s)
}
