package output

import (
	"fmt"
	"strconv"

	"github.com/panbanda/scry/pkg/analyzer/complexity"
	"github.com/panbanda/scry/pkg/analyzer/dependency"
	"github.com/panbanda/scry/pkg/analyzer/duplicates"
	"github.com/panbanda/scry/pkg/analyzer/security"
	"github.com/panbanda/scry/pkg/report"
)

// ReportView renders a full analysis report.
func ReportView(r *report.AnalysisReport) *Document {
	return &Document{
		Title: "Analysis: " + r.ProjectPath,
		Parts: []Renderable{
			summaryTable(r.Summary),
			ComplexityView(r.Complexity),
			SecurityView(r.Security),
			DuplicationView(r.Duplication),
			DependencyView(r.Dependencies),
			&List{Title: "Recommendations", Items: r.Recommendations},
		},
		Data: r,
	}
}

func summaryTable(s report.Summary) *Table {
	return &Table{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Files", strconv.Itoa(s.TotalFiles)},
			{"High complexity files", strconv.Itoa(s.HighComplexityFiles)},
			{"Average complexity", fmt.Sprintf("%.1f", s.AverageComplexity)},
			{"P90 complexity", fmt.Sprintf("%.1f", s.P90Complexity)},
			{"Security issues", strconv.Itoa(s.SecurityIssues)},
			{"Critical issues", strconv.Itoa(s.CriticalSecurityIssues)},
			{"High issues", strconv.Itoa(s.HighSecurityIssues)},
			{"Duplication", fmt.Sprintf("%.1f%%", s.DuplicationRate)},
		},
		Data: s,
	}
}

// ComplexityView lists files with their average complexity and their
// most complex function.
func ComplexityView(results []complexity.Result) *Table {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		top := "-"
		if len(r.Functions) > 0 {
			best := r.Functions[0]
			for _, fn := range r.Functions[1:] {
				if fn.Complexity > best.Complexity {
					best = fn
				}
			}
			top = fmt.Sprintf("%s:%d (%d)", best.Name, best.Line, best.Complexity)
		}
		rows = append(rows, []string{
			r.File,
			fmt.Sprintf("%.1f", r.AverageComplexity),
			strconv.Itoa(len(r.Functions)),
			top,
			string(r.Rating),
		})
	}
	return &Table{
		Title:       "Complexity",
		Headers:     []string{"File", "Average", "Functions", "Most complex", "Rating"},
		Rows:        rows,
		Empty:       "No analyzable files.",
		SeverityCol: 5,
		Data:        results,
	}
}

// SecurityView lists every issue, one row per match.
func SecurityView(results []security.Result) *Table {
	var rows [][]string
	for _, r := range results {
		for _, is := range r.Issues {
			rows = append(rows, []string{
				fmt.Sprintf("%s:%d", r.File, is.Line),
				string(is.Severity),
				is.Type,
				is.Message,
			})
		}
	}
	return &Table{
		Title:       "Security",
		Headers:     []string{"Location", "Severity", "Type", "Message"},
		Rows:        rows,
		Empty:       "No security issues found.",
		SeverityCol: 2,
		Data:        results,
	}
}

// DuplicationView lists duplicate fragment pairs.
func DuplicationView(res duplicates.Result) *Table {
	rows := make([][]string, 0, len(res.Duplicates))
	for _, d := range res.Duplicates {
		rows = append(rows, []string{
			location(d.Fragment1),
			location(d.Fragment2),
			strconv.Itoa(d.Lines),
			fmt.Sprintf("%.0f%%", d.Similarity*100),
		})
	}
	t := &Table{
		Title:   "Duplication",
		Headers: []string{"Fragment", "Duplicate of", "Lines", "Similarity"},
		Rows:    rows,
		Empty:   "No duplicated code found.",
		Data:    res,
	}
	if len(rows) > 0 {
		t.Footer = []string{"", "Total", strconv.Itoa(res.TotalDuplicateLines), fmt.Sprintf("%.1f%%", res.DuplicationPercentage)}
	}
	return t
}

func location(l duplicates.Location) string {
	return fmt.Sprintf("%s:%d-%d", l.File, l.StartLine, l.EndLine)
}

// DependencyView lists manifest dependencies. Unknown audit values print
// as "?".
func DependencyView(res dependency.Result) *Table {
	rows := make([][]string, 0, len(res.Dependencies))
	for _, d := range res.Dependencies {
		vulns, outdated := "?", "?"
		if d.Vulnerabilities != nil {
			vulns = strconv.Itoa(*d.Vulnerabilities)
		}
		if d.Outdated != nil {
			outdated = strconv.FormatBool(*d.Outdated)
		}
		rows = append(rows, []string{d.Name, d.Version, string(d.Type), vulns, outdated})
	}

	title := "Dependencies"
	if res.Manifest != "" {
		title += " (" + res.Manifest + ")"
	}
	t := &Table{
		Title:   title,
		Headers: []string{"Name", "Version", "Type", "Vulnerabilities", "Outdated"},
		Rows:    rows,
		Empty:   "No dependency manifest found.",
		Data:    res,
	}
	if len(rows) > 0 {
		lock := "no lockfile"
		if res.HasPackageLock {
			lock = "lockfile present"
		}
		t.Footer = []string{"Total", strconv.Itoa(res.DependencyCount), lock, "", ""}
	}
	return t
}
