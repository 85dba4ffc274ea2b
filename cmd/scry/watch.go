package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/scry/internal/output"
	"github.com/panbanda/scry/pkg/watch"
	"github.com/urfave/cli/v2"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for file changes and re-run the report",
		ArgsUsage: "[path]",
		Flags: append(analysisFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before re-analyzing",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	path := getPath(c)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	cfg, err := loadConfig(c, absPath)
	if err != nil {
		return err
	}
	if err := applyAnalysisFlags(c, cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	analyze := func(ctx context.Context) {
		r, err := runAnalysis(ctx, c, cfg, absPath)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if isCorpusError(err) {
				formatter.Error("cannot read project: %v", err)
				return
			}
			formatter.Error("%v", err)
			return
		}
		if err := formatter.Output(output.ReportView(r)); err != nil {
			formatter.Error("render report: %v", err)
		}
	}

	onChange := func(ctx context.Context, paths []string) {
		color.Yellow("Changed: %s", strings.Join(paths, ", "))
		analyze(ctx)
	}

	watcher, err := watch.NewWatcher(absPath, cfg, onChange,
		watch.WithDebounce(c.Duration("debounce")),
		watch.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	ctx, stop := signalContext(c)
	defer stop()

	analyze(ctx)
	color.Cyan("Watching %s (%d directories). Press Ctrl+C to stop.", absPath, len(watcher.WatchedDirs()))

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(c.App.ErrWriter, "\nStopping watch...")
	return nil
}
