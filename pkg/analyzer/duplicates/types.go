package duplicates

// Location is a 1-based inclusive line range in a file.
type Location struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// Fragment is a line range in one file that nearly repeats a range in
// another file.
type Fragment struct {
	Fragment1  Location `json:"fragment1"`
	Fragment2  Location `json:"fragment2"`
	Lines      int      `json:"lines"`
	Similarity float64  `json:"similarity"`
}

// Result is the outcome of clone detection over a corpus.
type Result struct {
	Duplicates            []Fragment `json:"duplicates"`
	TotalDuplicateLines   int        `json:"totalDuplicateLines"`
	DuplicationPercentage float64    `json:"duplicationPercentage"`
}

// Config tunes the sliding-window detector.
type Config struct {
	// MinLines is the smallest window that may be reported.
	MinLines int
	// Threshold is the minimum fraction of matching lines in the window.
	Threshold float64
	// MinAnchorLength is the minimum normalized length of the first line.
	MinAnchorLength int
	// MaxWindow caps the window length.
	MaxWindow int
	// MaxFragments caps the reported fragments.
	MaxFragments int
	// Ranked keeps the MaxFragments highest lines×similarity fragments
	// instead of the first found.
	Ranked bool
}

// DefaultConfig returns the default detector settings.
func DefaultConfig() Config {
	return Config{
		MinLines:        6,
		Threshold:       0.85,
		MinAnchorLength: 5,
		MaxWindow:       50,
		MaxFragments:    50,
	}
}

// minCountedLength is the normalized length a line must exceed to count
// as a match inside the window.
const minCountedLength = 3
