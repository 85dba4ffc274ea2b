// Package duplicates finds near-identical line windows across pairs of
// files.
package duplicates

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/scry/internal/fileproc"
	"github.com/panbanda/scry/pkg/analyzer"
	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/source"
)

// Detector finds duplicated fragments across files.
type Detector struct {
	config  Config
	workers int
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

// WithMinLines sets the smallest reported window.
func WithMinLines(n int) Option {
	return func(d *Detector) {
		d.config.MinLines = n
	}
}

// WithThreshold sets the minimum window similarity.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		d.config.Threshold = t
	}
}

// WithMaxFragments caps the number of reported fragments.
func WithMaxFragments(n int) Option {
	return func(d *Detector) {
		d.config.MaxFragments = n
	}
}

// WithRanked switches the cap from first-found to highest-value.
func WithRanked(ranked bool) Option {
	return func(d *Detector) {
		d.config.Ranked = ranked
	}
}

// WithConfig sets all detector settings from a config section.
// Zero values keep the defaults.
func WithConfig(cfg config.DuplicateConfig) Option {
	return func(d *Detector) {
		if cfg.MinLines > 0 {
			d.config.MinLines = cfg.MinLines
		}
		if cfg.Threshold > 0 {
			d.config.Threshold = cfg.Threshold
		}
		if cfg.MinAnchorLength > 0 {
			d.config.MinAnchorLength = cfg.MinAnchorLength
		}
		if cfg.MaxWindow > 0 {
			d.config.MaxWindow = cfg.MaxWindow
		}
		if cfg.MaxFragments > 0 {
			d.config.MaxFragments = cfg.MaxFragments
		}
		d.config.Ranked = cfg.Ranked
	}
}

// WithWorkers sets the number of parallel workers. 0 means 2x NumCPU.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		d.workers = n
	}
}

// New creates a detector with default settings.
func New(opts ...Option) *Detector {
	d := &Detector{config: DefaultConfig()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the effective settings.
func (d *Detector) Config() Config {
	return d.config
}

// normalized is a file prepared for comparison.
type normalized struct {
	path   string
	lines  []string
	hashes []uint64
	runes  []int
}

// Normalize trims a line, lower-cases it and collapses whitespace runs
// to one space.
func Normalize(line string) string {
	return strings.ToLower(strings.Join(strings.Fields(line), " "))
}

func prepare(f source.File) normalized {
	raw := f.Lines()
	n := normalized{
		path:   f.Path,
		lines:  make([]string, len(raw)),
		hashes: make([]uint64, len(raw)),
		runes:  make([]int, len(raw)),
	}
	for i, line := range raw {
		norm := Normalize(line)
		n.lines[i] = norm
		n.hashes[i] = xxhash.Sum64String(norm)
		n.runes[i] = utf8.RuneCountInString(norm)
	}
	return n
}

func (n *normalized) equal(i int, o *normalized, j int) bool {
	return n.hashes[i] == o.hashes[j] && n.lines[i] == o.lines[j]
}

// Analyze compares every unordered pair of distinct files. Fragments are
// emitted in scan order: file pair by corpus order, then the line in the
// first file, then the line in the second.
func (d *Detector) Analyze(ctx context.Context, files []source.File) (Result, error) {
	// Only the pair pass reports progress, so each file counts once.
	prepared := fileproc.Map(analyzer.WithTracker(ctx, nil), files, d.workers, prepare)

	// Row a holds the fragments of pairs (a, b) for every b > a, so
	// concatenating rows reproduces scan order.
	rows := fileproc.MapIndexed(ctx, files, d.workers, func(a int, _ source.File) []Fragment {
		var out []Fragment
		for b := a + 1; b < len(prepared); b++ {
			if prepared[a].path == prepared[b].path {
				continue
			}
			out = d.comparePair(&prepared[a], &prepared[b], out)
		}
		return out
	})

	dupLines := make(map[string]*roaring.Bitmap)
	sel := newSelector(d.config)
	for _, row := range rows {
		for _, f := range row {
			bm, ok := dupLines[f.Fragment1.File]
			if !ok {
				bm = roaring.New()
				dupLines[f.Fragment1.File] = bm
			}
			bm.AddRange(uint64(f.Fragment1.StartLine), uint64(f.Fragment1.EndLine)+1)
			sel.add(f)
		}
	}

	var total uint64
	for _, bm := range dupLines {
		total += bm.GetCardinality()
	}

	totalLines := 0
	for _, p := range prepared {
		totalLines += len(p.lines)
	}

	var pct float64
	if totalLines > 0 {
		pct = float64(total) / float64(totalLines) * 100
	}

	return Result{
		Duplicates:            sel.result(),
		TotalDuplicateLines:   int(total),
		DuplicationPercentage: pct,
	}, nil
}

// comparePair appends the fragments found between a and b to out.
func (d *Detector) comparePair(a, b *normalized, out []Fragment) []Fragment {
	cfg := d.config
	for i := range a.lines {
		if a.runes[i] < cfg.MinAnchorLength {
			continue
		}
		for j := range b.lines {
			if !a.equal(i, b, j) {
				continue
			}

			matchSize, total, matched := 1, 0, 0
			for i+matchSize < len(a.lines) && j+matchSize < len(b.lines) && matchSize < cfg.MaxWindow {
				total++
				if a.equal(i+matchSize, b, j+matchSize) && a.runes[i+matchSize] > minCountedLength {
					matched++
				}
				matchSize++
			}

			var similarity float64
			if total > 0 {
				similarity = float64(matched) / float64(total)
			}
			if matchSize < cfg.MinLines || similarity < cfg.Threshold {
				continue
			}

			out = append(out, Fragment{
				Fragment1:  Location{File: a.path, StartLine: i + 1, EndLine: i + matchSize},
				Fragment2:  Location{File: b.path, StartLine: j + 1, EndLine: j + matchSize},
				Lines:      matchSize,
				Similarity: similarity,
			})
		}
	}
	return out
}
