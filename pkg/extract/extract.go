// Package extract splits source text into function-like spans.
//
// Two tiers share one contract. The heuristic tier scans text with a
// pattern table and brace matching and works on any curly-brace language
// without a grammar. The tree-sitter tier parses the file and reports real
// function nodes; it falls back to the heuristic for unknown languages.
package extract

import (
	"iter"
	"regexp"
	"sort"
	"strings"

	"github.com/panbanda/scry/pkg/source"
)

// FunctionSpan is a function-like region of a file.
type FunctionSpan struct {
	Name      string
	StartLine int // 1-based
	Text      string
}

// Extractor yields the function spans of a file. The sequence is finite
// and computed lazily; stopping early does no further work.
type Extractor interface {
	Extract(f source.File) iter.Seq[FunctionSpan]
}

// headerPatterns are tried in order; every match of every pattern yields
// a span, so one function can be reported more than once.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`function\s+(\w+)\s*\(`),
	regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*=>`),
	regexp.MustCompile(`(\w+)\s*\([^)]*\)\s*\{`),
	regexp.MustCompile(`export\s+(?:default\s+)?(?:async\s+)?function\s+(\w+)`),
	regexp.MustCompile(`export\s+const\s+(\w+)\s*=`),
}

// Heuristic is the grammar-free extractor.
type Heuristic struct{}

// NewHeuristic returns the pattern table extractor.
func NewHeuristic() Heuristic {
	return Heuristic{}
}

// Extract implements Extractor.
func (Heuristic) Extract(f source.File) iter.Seq[FunctionSpan] {
	return func(yield func(FunctionSpan) bool) {
		content := f.Content
		var lines lineIndex
		for _, re := range headerPatterns {
			for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
				if lines == nil {
					lines = newLineIndex(content)
				}
				start := m[0]
				span := FunctionSpan{
					Name:      content[m[2]:m[3]],
					StartLine: lines.line(start),
					Text:      content[start:braceEnd(content, start)],
				}
				if !yield(span) {
					return
				}
			}
		}
	}
}

// braceEnd returns the offset just past the brace that closes the first
// block opened at or after start. Closing braces seen before any opening
// brace are ignored. With no balanced block the span runs to end of text.
func braceEnd(s string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
			opened = true
		case '}':
			if !opened {
				continue
			}
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

// lineIndex holds the offset of every newline in a text.
type lineIndex []int

func newLineIndex(s string) lineIndex {
	idx := make(lineIndex, 0, strings.Count(s, "\n"))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			idx = append(idx, i)
		}
	}
	return idx
}

// line returns the 1-based line holding offset: one plus the newlines
// strictly before it.
func (idx lineIndex) line(offset int) int {
	return sort.SearchInts(idx, offset) + 1
}
