package main

import (
	"fmt"

	"github.com/panbanda/scry/internal/output"
	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/report"
	"github.com/urfave/cli/v2"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Run every analysis and print the merged report",
		ArgsUsage: "[path]",
		Flags:     analysisFlags(),
		Action: func(c *cli.Context) error {
			return runSection(c, "", func(r *report.AnalysisReport) output.Renderable {
				return output.ReportView(r)
			})
		},
	}
}

func complexityCmd() *cli.Command {
	return &cli.Command{
		Name:      "complexity",
		Aliases:   []string{"cx"},
		Usage:     "Score the cyclomatic complexity of every function",
		ArgsUsage: "[path]",
		Flags:     analysisFlags(),
		Action: func(c *cli.Context) error {
			return runSection(c, config.AnalysisComplexity, func(r *report.AnalysisReport) output.Renderable {
				return output.ComplexityView(r.Complexity)
			})
		},
	}
}

func securityCmd() *cli.Command {
	return &cli.Command{
		Name:      "security",
		Aliases:   []string{"sec"},
		Usage:     "Scan source lines for risky patterns",
		ArgsUsage: "[path]",
		Flags:     analysisFlags(),
		Action: func(c *cli.Context) error {
			return runSection(c, config.AnalysisSecurity, func(r *report.AnalysisReport) output.Renderable {
				return output.SecurityView(r.Security)
			})
		},
	}
}

func duplicatesCmd() *cli.Command {
	flags := append(analysisFlags(),
		&cli.IntFlag{
			Name:  "min-lines",
			Usage: "Minimum lines for a duplicate block",
		},
		&cli.Float64Flag{
			Name:  "threshold",
			Usage: "Similarity threshold (0.0-1.0)",
		},
		&cli.BoolFlag{
			Name:  "ranked",
			Usage: "Keep the largest duplicates instead of the first found",
		},
	)
	return &cli.Command{
		Name:      "duplicates",
		Aliases:   []string{"dup", "clones"},
		Usage:     "Detect duplicated code blocks across files",
		ArgsUsage: "[path]",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			return runSection(c, config.AnalysisDuplicates, func(r *report.AnalysisReport) output.Renderable {
				return output.DuplicationView(r.Duplication)
			})
		},
	}
}

func depsCmd() *cli.Command {
	flags := append(analysisFlags(),
		&cli.BoolFlag{
			Name:  "no-audit",
			Usage: "Skip the vulnerability audit",
		},
		&cli.BoolFlag{
			Name:  "outdated",
			Usage: "Also check which dependencies are outdated",
		},
	)
	return &cli.Command{
		Name:      "deps",
		Aliases:   []string{"dependencies"},
		Usage:     "List declared dependencies and audit them",
		ArgsUsage: "[path]",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			return runSection(c, config.AnalysisDependencies, func(r *report.AnalysisReport) output.Renderable {
				return output.DependencyView(r.Dependencies)
			})
		},
	}
}

// applySectionFlags copies command-specific flags into cfg.
func applySectionFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("min-lines") {
		cfg.Duplicates.MinLines = c.Int("min-lines")
	}
	if c.IsSet("threshold") {
		cfg.Duplicates.Threshold = c.Float64("threshold")
	}
	if c.IsSet("ranked") {
		cfg.Duplicates.Ranked = c.Bool("ranked")
	}
	if c.IsSet("no-audit") {
		cfg.Dependencies.Audit = !c.Bool("no-audit")
	}
	if c.IsSet("outdated") {
		cfg.Dependencies.Outdated = c.Bool("outdated")
	}
}

// runSection runs the analyses enabled for one command and renders the
// view built by render. An empty section keeps every analysis enabled.
func runSection(c *cli.Context, section string, render func(*report.AnalysisReport) output.Renderable) error {
	path := getPath(c)

	cfg, err := loadConfig(c, path)
	if err != nil {
		return err
	}
	if section != "" {
		cfg.Analysis = cfg.Analysis.Only(section)
	}
	applySectionFlags(c, cfg)
	if err := applyAnalysisFlags(c, cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	ctx, stop := signalContext(c)
	defer stop()

	r, err := runAnalysis(ctx, c, cfg, path)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(render(r))
}
