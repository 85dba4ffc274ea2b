package security

import (
	"fmt"
	"regexp"
)

// Severity ranks a security issue: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// ParseSeverity validates a severity name. Empty defaults to medium.
func ParseSeverity(s string) (Severity, error) {
	if s == "" {
		return SeverityMedium, nil
	}
	sev := Severity(s)
	if sev.Rank() == 0 {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Issue is one rule match on one line.
type Issue struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
	Rule     string   `json:"rule,omitempty"`
}

// Result holds the issues of a file that has at least one.
type Result struct {
	File   string  `json:"file"`
	Issues []Issue `json:"issues"`
	Score  int     `json:"score"`
}

// Rule is a line-level detection pattern.
type Rule struct {
	ID       string
	Pattern  *regexp.Regexp
	Type     string
	Severity Severity
	Message  string
}

// RuleError reports a custom rule that could not be compiled.
type RuleError struct {
	ID  string
	Err error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("security rule %q: %v", e.ID, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
