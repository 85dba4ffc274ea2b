// Package dependency summarizes a project's declared dependencies and
// annotates them with vulnerability and freshness data from external tools.
package dependency

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// DefaultTimeout bounds each external collaborator call.
const DefaultTimeout = 30 * time.Second

// Analyzer parses the manifest and merges collaborator annotations.
type Analyzer struct {
	auditor  Auditor
	outdated OutdatedChecker
	timeout  time.Duration
	logger   *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithAuditor sets the vulnerability collaborator. Without one, records
// carry no vulnerability data.
func WithAuditor(a Auditor) Option {
	return func(an *Analyzer) {
		an.auditor = a
	}
}

// WithOutdatedChecker sets the freshness collaborator.
func WithOutdatedChecker(c OutdatedChecker) Option {
	return func(an *Analyzer) {
		an.outdated = c
	}
}

// WithTimeout bounds each collaborator call.
func WithTimeout(d time.Duration) Option {
	return func(an *Analyzer) {
		if d > 0 {
			an.timeout = d
		}
	}
}

// WithLogger sets the logger for collaborator failures.
func WithLogger(l *slog.Logger) Option {
	return func(an *Analyzer) {
		if l != nil {
			an.logger = l
		}
	}
}

// New creates a dependency analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reads the manifest in projectPath. It never fails: an unreadable
// manifest yields no records and a failed collaborator leaves its fields
// unset.
func (a *Analyzer) Analyze(ctx context.Context, projectPath string) Result {
	return a.AnalyzeFS(ctx, os.DirFS(projectPath), projectPath)
}

// AnalyzeFS is Analyze over an arbitrary filesystem. dir is where
// collaborators run.
func (a *Analyzer) AnalyzeFS(ctx context.Context, fsys fs.FS, dir string) Result {
	res := Result{
		Dependencies:   []Record{},
		HasPackageLock: HasLockfile(fsys),
	}

	manifest, records, err := ParseManifest(fsys)
	res.Manifest = manifest
	if err != nil {
		if !errors.Is(err, errNoManifest) {
			a.logger.Warn("ignoring manifest", "dir", dir, "error", err)
		}
		return res
	}
	res.Dependencies = records
	res.DependencyCount = len(records)

	if len(records) == 0 {
		return res
	}
	req := Request{Dir: dir, Manifest: manifest, Dependencies: records}

	if a.auditor != nil {
		if counts, ok := a.audit(ctx, req); ok {
			res.Audited = true
			for i := range res.Dependencies {
				if n, found := counts[res.Dependencies[i].Name]; found {
					res.Dependencies[i].Vulnerabilities = &n
				}
			}
		}
	}

	if a.outdated != nil {
		if flags, ok := a.checkOutdated(ctx, req); ok {
			for i := range res.Dependencies {
				if v, found := flags[res.Dependencies[i].Name]; found {
					res.Dependencies[i].Outdated = &v
				}
			}
		}
	}

	return res
}

func (a *Analyzer) audit(ctx context.Context, req Request) (map[string]int, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	counts, err := a.auditor.Audit(ctx, req)
	if err != nil {
		a.logger.Warn("dependency audit failed", "dir", req.Dir, "error", err)
		return nil, false
	}
	a.logger.Debug("dependency audit finished", "dir", req.Dir, "duration", time.Since(start))
	return counts, true
}

func (a *Analyzer) checkOutdated(ctx context.Context, req Request) (map[string]bool, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	flags, err := a.outdated.Outdated(ctx, req)
	if err != nil {
		a.logger.Warn("outdated check failed", "dir", req.Dir, "error", err)
		return nil, false
	}
	return flags, true
}
