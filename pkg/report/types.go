package report

import (
	"time"

	"github.com/panbanda/scry/pkg/analyzer/complexity"
	"github.com/panbanda/scry/pkg/analyzer/dependency"
	"github.com/panbanda/scry/pkg/analyzer/duplicates"
	"github.com/panbanda/scry/pkg/analyzer/security"
)

// AnalysisReport is the merged result of one AnalyzeProject call.
type AnalysisReport struct {
	ProjectPath     string              `json:"projectPath"`
	Timestamp       time.Time           `json:"timestamp"`
	Complexity      []complexity.Result `json:"complexity"`
	Security        []security.Result   `json:"security"`
	Duplication     duplicates.Result   `json:"duplication"`
	Dependencies    dependency.Result   `json:"dependencies"`
	Summary         Summary             `json:"summary"`
	Recommendations []string            `json:"recommendations"`
}

// Summary holds the headline numbers of a report.
type Summary struct {
	TotalFiles             int     `json:"totalFiles"`
	HighComplexityFiles    int     `json:"highComplexityFiles"`
	SecurityIssues         int     `json:"securityIssues"`
	CriticalSecurityIssues int     `json:"criticalSecurityIssues"`
	HighSecurityIssues     int     `json:"highSecurityIssues"`
	DuplicationRate        float64 `json:"duplicationRate"`
	AverageComplexity      float64 `json:"averageComplexity"`
	P90Complexity          float64 `json:"p90Complexity"`
}

// Summarize derives the summary from the analysis sections of r.
func Summarize(r *AnalysisReport) Summary {
	cs := complexity.Summarize(r.Complexity)
	s := Summary{
		TotalFiles:        len(r.Complexity),
		DuplicationRate:   r.Duplication.DuplicationPercentage,
		AverageComplexity: cs.AverageComplexity,
		P90Complexity:     cs.P90Complexity,
	}
	for _, c := range r.Complexity {
		if c.Rating.IsHigh() {
			s.HighComplexityFiles++
		}
	}
	for _, res := range r.Security {
		s.SecurityIssues += len(res.Issues)
		for _, is := range res.Issues {
			switch is.Severity {
			case security.SeverityCritical:
				s.CriticalSecurityIssues++
			case security.SeverityHigh:
				s.HighSecurityIssues++
			}
		}
	}
	return s
}
