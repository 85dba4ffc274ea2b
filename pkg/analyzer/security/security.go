// Package security flags risky code with an ordered table of line-level
// regular expressions.
package security

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/panbanda/scry/internal/fileproc"
	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/source"
)

// DefaultRules returns the built-in rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "no-eval",
			Pattern:  regexp.MustCompile(`\beval\s*\(`),
			Type:     "code-injection",
			Severity: SeverityCritical,
			Message:  "Use of eval() can execute arbitrary code",
		},
		{
			ID:       "no-new-function",
			Pattern:  regexp.MustCompile(`\bnew\s+Function\s*\(`),
			Type:     "code-injection",
			Severity: SeverityCritical,
			Message:  "Function constructor compiles code from strings",
		},
		{
			ID:       "no-string-timer",
			Pattern:  regexp.MustCompile("\\bset(?:Timeout|Interval)\\s*\\(\\s*[\"'`]"),
			Type:     "code-injection",
			Severity: SeverityHigh,
			Message:  "String argument to setTimeout/setInterval is evaluated as code",
		},
		{
			ID:       "no-inner-html",
			Pattern:  regexp.MustCompile(`\.(?:inner|outer)HTML\s*\+?=(?:[^=]|$)`),
			Type:     "xss",
			Severity: SeverityHigh,
			Message:  "Assigning innerHTML may allow cross-site scripting",
		},
		{
			ID:       "no-document-write",
			Pattern:  regexp.MustCompile(`\bdocument\.write(?:ln)?\s*\(`),
			Type:     "xss",
			Severity: SeverityMedium,
			Message:  "document.write can inject untrusted markup",
		},
		{
			ID:       "hardcoded-secret",
			Pattern:  regexp.MustCompile("(?i)(?:password|passwd|api[_-]?key|secret|token)\\w*[\"']?\\s*[:=]\\s*[\"'`][^\"'`\\s]{3,}[\"'`]"),
			Type:     "hardcoded-secret",
			Severity: SeverityCritical,
			Message:  "Possible hardcoded credential",
		},
		{
			ID:       "weak-hash",
			Pattern:  regexp.MustCompile(`(?i)\b(?:md5|sha1)\b`),
			Type:     "weak-crypto",
			Severity: SeverityMedium,
			Message:  "MD5 and SHA-1 are not collision resistant",
		},
		{
			ID:       "sql-concatenation",
			Pattern:  regexp.MustCompile("(?i)\\b(?:select\\s.+\\sfrom|insert\\s+into|update\\s+\\w+\\s+set|delete\\s+from)\\b.*(?:[\"'`]\\s*\\+|\\$\\{)"),
			Type:     "sql-injection",
			Severity: SeverityHigh,
			Message:  "SQL built by string concatenation; use parameterized queries",
		},
		{
			ID:       "request-path-concatenation",
			Pattern:  regexp.MustCompile("(?:\\b(?:readFile\\w*|createReadStream|sendFile|unlink\\w*|open|path\\.(?:join|resolve))\\s*\\(.*|[\"'`]\\s*\\+\\s*)\\b(?:req|request)\\.(?:params|query|body)\\b"),
			Type:     "path-traversal",
			Severity: SeverityHigh,
			Message:  "File path built from request input may allow path traversal",
		},
	}
}

// CompileRules converts configured rules. Invalid patterns or severities
// yield a *RuleError.
func CompileRules(cfgs []config.RuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for _, c := range cfgs {
		if c.ID == "" {
			return nil, &RuleError{ID: c.Pattern, Err: errors.New("missing id")}
		}
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, &RuleError{ID: c.ID, Err: err}
		}
		sev, err := ParseSeverity(c.Severity)
		if err != nil {
			return nil, &RuleError{ID: c.ID, Err: err}
		}
		typ := c.Type
		if typ == "" {
			typ = "custom"
		}
		msg := c.Message
		if msg == "" {
			msg = "Matched custom rule " + c.ID
		}
		rules = append(rules, Rule{ID: c.ID, Pattern: re, Type: typ, Severity: sev, Message: msg})
	}
	return rules, nil
}

// Scanner applies the rule table to files.
type Scanner struct {
	rules   []Rule
	workers int
}

// Option is a functional option for configuring Scanner.
type Option func(*Scanner)

// WithRules appends rules after the built-in table.
func WithRules(rules ...Rule) Option {
	return func(s *Scanner) {
		s.rules = append(s.rules, rules...)
	}
}

// WithDisabled removes rules by ID. Apply after WithRules to also
// disable custom rules.
func WithDisabled(ids ...string) Option {
	return func(s *Scanner) {
		s.rules = slices.DeleteFunc(s.rules, func(r Rule) bool {
			return slices.Contains(ids, r.ID)
		})
	}
}

// WithWorkers sets the number of parallel workers. 0 means 2x NumCPU.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = n
	}
}

// New creates a scanner with the default rules.
func New(opts ...Option) *Scanner {
	s := &Scanner{rules: DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the active rule table.
func (s *Scanner) Rules() []Rule {
	return slices.Clone(s.rules)
}

// Scan tests every rule against every line. ok is false when nothing
// matched; such files have no entry in the report.
func (s *Scanner) Scan(f source.File) (res Result, ok bool) {
	var issues []Issue
	for i, line := range strings.Split(f.Content, "\n") {
		for _, r := range s.rules {
			if r.Pattern.MatchString(line) {
				issues = append(issues, Issue{
					Type:     r.Type,
					Severity: r.Severity,
					Line:     i + 1,
					Message:  r.Message,
					Rule:     r.ID,
				})
			}
		}
	}
	if len(issues) == 0 {
		return Result{}, false
	}
	return Result{File: f.Path, Issues: issues, Score: Score(issues)}, true
}

// Analyze scans every file and keeps those with issues, in corpus order.
func (s *Scanner) Analyze(ctx context.Context, files []source.File) ([]Result, error) {
	return fileproc.FilterMap(ctx, files, s.workers, s.Scan), nil
}

// Score is 100 minus 10 per issue and a further 30 per critical issue,
// clamped to [0, 100].
func Score(issues []Issue) int {
	score := 100 - 10*len(issues)
	for _, is := range issues {
		if is.Severity == SeverityCritical {
			score -= 30
		}
	}
	return min(max(score, 0), 100)
}
