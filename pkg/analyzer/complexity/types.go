package complexity

// Rating buckets a file's average complexity.
type Rating string

const (
	RatingLow      Rating = "low"
	RatingMedium   Rating = "medium"
	RatingHigh     Rating = "high"
	RatingVeryHigh Rating = "very-high"
)

// RatingFor maps an average complexity to its rating. Bounds are closed
// on the upper side: 5 is low, anything above 5 up to 10 is medium.
func RatingFor(avg float64) Rating {
	switch {
	case avg <= 5:
		return RatingLow
	case avg <= 10:
		return RatingMedium
	case avg <= 20:
		return RatingHigh
	default:
		return RatingVeryHigh
	}
}

// IsHigh reports whether r counts as a high-complexity file.
func (r Rating) IsHigh() bool {
	return r == RatingHigh || r == RatingVeryHigh
}

// FunctionScore is the complexity of one extracted span.
type FunctionScore struct {
	Name       string `json:"name"`
	Complexity int    `json:"complexity"`
	Line       int    `json:"line"`
}

// Result is the complexity of one file.
type Result struct {
	File              string          `json:"file"`
	AverageComplexity float64         `json:"averageComplexity"`
	Functions         []FunctionScore `json:"functions"`
	Rating            Rating          `json:"rating"`
}

// Summary aggregates function complexities across a project.
type Summary struct {
	TotalFiles        int     `json:"totalFiles"`
	TotalFunctions    int     `json:"totalFunctions"`
	AverageComplexity float64 `json:"averageComplexity"`
	P90Complexity     float64 `json:"p90Complexity"`
	MaxComplexity     int     `json:"maxComplexity"`
}
