// Package report runs every analysis over one project snapshot and merges
// the results into an AnalysisReport.
package report

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"github.com/panbanda/scry/pkg/analyzer"
	"github.com/panbanda/scry/pkg/analyzer/complexity"
	"github.com/panbanda/scry/pkg/analyzer/dependency"
	"github.com/panbanda/scry/pkg/analyzer/duplicates"
	"github.com/panbanda/scry/pkg/analyzer/security"
	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/extract"
	"github.com/panbanda/scry/pkg/source"
	"github.com/sourcegraph/conc"
)

// Aggregator produces reports. It holds only its collaborators, so one
// instance may serve concurrent AnalyzeProject calls.
type Aggregator struct {
	corpus    source.Corpus
	config    *config.Config
	auditor   dependency.Auditor
	outdated  dependency.OutdatedChecker
	extractor extract.Extractor
	projectFS fs.FS
	clock     func() time.Time
	logger    *slog.Logger
}

// Option is a functional option for configuring Aggregator.
type Option func(*Aggregator)

// WithConfig sets analysis settings. Defaults to config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(a *Aggregator) {
		if cfg != nil {
			a.config = cfg
		}
	}
}

// WithAuditor sets the dependency vulnerability collaborator.
func WithAuditor(au dependency.Auditor) Option {
	return func(a *Aggregator) {
		a.auditor = au
	}
}

// WithOutdatedChecker sets the dependency freshness collaborator.
func WithOutdatedChecker(c dependency.OutdatedChecker) Option {
	return func(a *Aggregator) {
		a.outdated = c
	}
}

// WithNpm wires the npm-backed auditor and outdated checker, running the
// configured audit command. Whether they are consulted is still decided by
// the dependency config.
func WithNpm(cfg config.DependencyConfig) Option {
	return func(a *Aggregator) {
		a.auditor = dependency.NewNpmAuditor(dependency.WithCommand(cfg.AuditCommand))
		a.outdated = dependency.NewNpmOutdated()
	}
}

// WithExtractor overrides the extractor chosen from the config.
func WithExtractor(e extract.Extractor) Option {
	return func(a *Aggregator) {
		a.extractor = e
	}
}

// WithProjectFS reads dependency manifests and lockfiles from fsys instead
// of the project directory. Use it when the corpus is a snapshot of
// something other than the working tree. Collaborators that run commands in
// the project directory are then skipped.
func WithProjectFS(fsys fs.FS) Option {
	return func(a *Aggregator) {
		a.projectFS = fsys
	}
}

// WithClock sets the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.clock = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an aggregator reading projects through corpus.
func New(corpus source.Corpus, opts ...Option) *Aggregator {
	a := &Aggregator{
		corpus: corpus,
		config: config.DefaultConfig(),
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.extractor == nil {
		a.extractor = extractorFor(a.config, a.logger)
	}
	return a
}

func extractorFor(cfg *config.Config, logger *slog.Logger) extract.Extractor {
	if cfg.Analysis.Extractor == config.ExtractorTreeSitter {
		return extract.NewTreeSitter(extract.WithLogger(logger))
	}
	return extract.NewHeuristic()
}

// AnalyzeProject enumerates projectPath once and runs the enabled
// analyses concurrently over that snapshot. Only a corpus failure is
// fatal; it is returned as a *CorpusError.
func (a *Aggregator) AnalyzeProject(ctx context.Context, projectPath string) (*AnalysisReport, error) {
	files, err := a.corpus.Enumerate(ctx, projectPath)
	if err != nil {
		return nil, &CorpusError{Path: projectPath, Err: err}
	}
	files = source.Filter(files)

	projectFS := a.projectFS
	if fc, ok := a.corpus.(source.FSCorpus); ok && projectFS == nil && a.config.Analysis.Dependencies {
		if projectFS, err = fc.FS(ctx, projectPath); err != nil {
			return nil, &CorpusError{Path: projectPath, Err: err}
		}
	}

	// Validated configs never fail here; a hand-built one loses its custom
	// rules rather than the report.
	rules, err := security.CompileRules(a.config.Security.Rules)
	if err != nil {
		a.logger.Warn("ignoring custom security rules", "error", err)
		rules = nil
	}

	cfg := a.config
	r := &AnalysisReport{
		ProjectPath:  projectPath,
		Timestamp:    a.clock(),
		Complexity:   []complexity.Result{},
		Security:     []security.Result{},
		Duplication:  duplicates.Result{Duplicates: []duplicates.Fragment{}},
		Dependencies: dependency.Result{Dependencies: []dependency.Record{}},
	}

	a.logger.Debug("analyzing project", "path", projectPath, "files", len(files))

	var wg conc.WaitGroup
	if cfg.Analysis.Complexity {
		scorer := complexity.New(
			complexity.WithExtractor(a.extractor),
			complexity.WithWorkers(cfg.Analysis.Workers),
		)
		wg.Go(func() { run(ctx, a.logger, "complexity", scorer, files, &r.Complexity) })
	}
	if cfg.Analysis.Security {
		scanner := security.New(
			security.WithRules(rules...),
			security.WithDisabled(cfg.Security.DisabledRules...),
			security.WithWorkers(cfg.Analysis.Workers),
		)
		wg.Go(func() { run(ctx, a.logger, "security", scanner, files, &r.Security) })
	}
	if cfg.Analysis.Duplicates {
		detector := duplicates.New(
			duplicates.WithConfig(cfg.Duplicates),
			duplicates.WithWorkers(cfg.Analysis.Workers),
		)
		wg.Go(func() { run(ctx, a.logger, "duplicates", detector, files, &r.Duplication) })
	}
	if cfg.Analysis.Dependencies {
		wg.Go(func() {
			start := time.Now()
			r.Dependencies = a.analyzeDependencies(ctx, projectPath, projectFS)
			a.logger.Debug("analysis finished", "analysis", "dependencies", "duration", time.Since(start))
		})
	}
	wg.Wait()

	r.Summary = Summarize(r)
	r.Recommendations = Recommend(r)
	return r, nil
}

// analyzeDependencies reads the working tree unless the snapshot came with
// its own filesystem.
func (a *Aggregator) analyzeDependencies(ctx context.Context, projectPath string, projectFS fs.FS) dependency.Result {
	if projectFS == nil {
		return a.dependencies(true).Analyze(ctx, projectPath)
	}
	return a.dependencies(false).AnalyzeFS(ctx, projectFS, projectPath)
}

// dependencies builds the analyzer. Collaborators run commands in the
// project directory, so they are only wired when it matches the snapshot.
func (a *Aggregator) dependencies(workingTree bool) *dependency.Analyzer {
	opts := []dependency.Option{
		dependency.WithLogger(a.logger),
		dependency.WithTimeout(time.Duration(a.config.Dependencies.TimeoutSeconds) * time.Second),
	}
	if !workingTree {
		if a.config.Dependencies.Audit || a.config.Dependencies.Outdated {
			a.logger.Info("skipping dependency audit for a snapshot outside the working tree")
		}
		return dependency.New(opts...)
	}
	if a.config.Dependencies.Audit && a.auditor != nil {
		opts = append(opts, dependency.WithAuditor(a.auditor))
	}
	if a.config.Dependencies.Outdated && a.outdated != nil {
		opts = append(opts, dependency.WithOutdatedChecker(a.outdated))
	}
	return dependency.New(opts...)
}

// run executes one analysis and stores its result in out. Each analysis
// writes only its own report field, so no locking is needed.
func run[T any](ctx context.Context, logger *slog.Logger, name string, an analyzer.Analyzer[T], files []source.File, out *T) {
	start := time.Now()
	res, err := an.Analyze(ctx, files)
	if err != nil {
		logger.Warn("analysis failed", "analysis", name, "error", err)
		return
	}
	*out = res
	logger.Debug("analysis finished", "analysis", name, "duration", time.Since(start))
}
