package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/scry/internal/cache"
	"github.com/panbanda/scry/internal/output"
	"github.com/panbanda/scry/internal/progress"
	"github.com/panbanda/scry/pkg/analyzer"
	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/report"
	"github.com/panbanda/scry/pkg/source"
	"github.com/urfave/cli/v2"
)

// getPath returns the first positional arg, defaulting to ".".
func getPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// configPath returns the config file for a project: the --config flag
// wins, then a scry config in the project, then the working directory.
// Returns an empty string when defaults apply.
func configPath(c *cli.Context, projectPath string) string {
	if path := c.String("config"); path != "" {
		return path
	}
	if path := config.Find(projectPath); path != "" {
		return path
	}
	return config.Find(".")
}

func loadConfig(c *cli.Context, projectPath string) (*config.Config, error) {
	if path := configPath(c, projectPath); path != "" {
		return config.Load(path)
	}
	return config.DefaultConfig(), nil
}

// newFormatter builds the output formatter from the global flags.
// Callers must Close it.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	colored := cfg.Output.Color && !color.NoColor

	if path := c.String("output"); path != "" {
		return output.NewFormatter(output.ParseFormat(format), path, false)
	}
	return output.New(output.ParseFormat(format), c.App.Writer, colored), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// applyAnalysisFlags layers per-command flags over the loaded config.
func applyAnalysisFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("extractor") {
		cfg.Analysis.Extractor = c.String("extractor")
	}
	if c.IsSet("workers") {
		cfg.Analysis.Workers = c.Int("workers")
	}
	return cfg.Validate()
}

func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ref",
			Usage: "Analyze a git revision instead of the working tree (e.g. main, HEAD~3)",
		},
		&cli.StringFlag{
			Name:  "extractor",
			Usage: "Function extractor: heuristic or treesitter",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Worker count per analysis (0 = 2x CPUs)",
		},
	}
}

// runAnalysis enumerates the project once, consults the report cache and
// runs the aggregator over the snapshot.
func runAnalysis(ctx context.Context, c *cli.Context, cfg *config.Config, projectPath string) (*report.AnalysisReport, error) {
	logger := slog.Default()

	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", projectPath, err)
	}

	var corpus source.Corpus = source.NewDirectory(cfg, source.WithLogger(logger))
	if ref := c.String("ref"); ref != "" {
		corpus = source.NewGitRef(ref, cfg, source.WithLogger(logger))
	}

	spinner := progress.NewSpinner(c.App.ErrWriter, "Collecting files...")
	files, err := corpus.Enumerate(ctx, absPath)
	if err != nil {
		spinner.FinishError(err)
		return nil, &report.CorpusError{Path: projectPath, Err: err}
	}
	files = source.Filter(files)

	// Manifests come from the same snapshot as the sources.
	projectFS := os.DirFS(absPath)
	fsCorpus, fromRef := corpus.(source.FSCorpus)
	if fromRef {
		if projectFS, err = fsCorpus.FS(ctx, absPath); err != nil {
			spinner.FinishError(err)
			return nil, &report.CorpusError{Path: projectPath, Err: err}
		}
	}
	spinner.FinishSuccess()

	store, err := cache.New(cfg.Cache, absPath)
	if err != nil {
		logger.Warn("report cache unavailable", "error", err)
		store = &cache.Cache{}
	}

	var key string
	if store.Enabled() && !c.Bool("no-cache") {
		key, err = cache.Key(cfg, files, projectFS)
		if err != nil {
			logger.Warn("cannot compute cache key", "error", err)
		} else if cached, ok := store.Get(key); ok {
			logger.Debug("report cache hit", "key", key)
			return cached, nil
		}
	}

	bar := progress.NewTracker(c.App.ErrWriter, "Analyzing...")
	ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(bar.Func()))

	opts := []report.Option{
		report.WithConfig(cfg),
		report.WithNpm(cfg.Dependencies),
		report.WithLogger(logger),
	}
	if fromRef {
		opts = append(opts, report.WithProjectFS(projectFS))
	}
	agg := report.New(source.Snapshot(files), opts...)
	r, err := agg.AnalyzeProject(ctx, absPath)
	if err != nil {
		bar.FinishError(err)
		return nil, err
	}
	bar.FinishSuccess()

	if key != "" {
		if err := store.Put(key, r); err != nil {
			logger.Warn("cannot write report cache", "error", err)
		}
	}
	return r, nil
}

// isCorpusError reports whether err means the project could not be read.
func isCorpusError(err error) bool {
	return errors.Is(err, report.ErrCorpus)
}
