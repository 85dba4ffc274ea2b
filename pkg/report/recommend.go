package report

import (
	"fmt"
	"strings"
)

// DuplicationLimit is the duplication percentage above which extraction
// is recommended.
const DuplicationLimit = 10.0

// NoIssues is the single recommendation of a clean report.
const NoIssues = "Code quality looks good! No major issues found."

// Recommend lists suggestions in fixed rule order. Rules are additive; the
// result is never empty.
func Recommend(r *AnalysisReport) []string {
	s := r.Summary
	var recs []string

	if s.HighComplexityFiles > 0 {
		recs = append(recs, fmt.Sprintf("Refactor %d files with high complexity to improve maintainability", s.HighComplexityFiles))
	}
	if s.CriticalSecurityIssues > 0 {
		recs = append(recs, fmt.Sprintf("URGENT: Fix %d critical security issues immediately", s.CriticalSecurityIssues))
	}
	if s.HighSecurityIssues > 0 {
		recs = append(recs, fmt.Sprintf("Review and fix %d high-severity security issues", s.HighSecurityIssues))
	}
	if s.DuplicationRate > DuplicationLimit {
		recs = append(recs, fmt.Sprintf("Reduce code duplication (currently %.1f%%) by extracting common code into shared functions", s.DuplicationRate))
	}
	if vulnerable := r.Dependencies.Vulnerable(); len(vulnerable) > 0 {
		recs = append(recs, "Update vulnerable dependencies: "+strings.Join(vulnerable, ", "))
	}
	// Only meaningful when there is a manifest to lock.
	if r.Dependencies.Manifest != "" && !r.Dependencies.HasPackageLock {
		recs = append(recs, "Use a lock file to ensure consistent dependency versions across installs")
	}

	if len(recs) == 0 {
		return []string{NoIssues}
	}
	return recs
}
