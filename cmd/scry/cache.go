package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/panbanda/scry/internal/cache"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the report cache",
		Subcommands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Show cached report count and size",
				ArgsUsage: "[path]",
				Action:    runCacheStats,
			},
			{
				Name:      "clear",
				Usage:     "Remove every cached report",
				ArgsUsage: "[path]",
				Action:    runCacheClear,
			},
		},
	}
}

func openCache(c *cli.Context) (*cache.Cache, error) {
	path := getPath(c)
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	cfg, err := loadConfig(c, absPath)
	if err != nil {
		return nil, err
	}
	// Inspecting the cache works even when caching is switched off.
	cfg.Cache.Enabled = true
	return cache.New(cfg.Cache, absPath)
}

func runCacheStats(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := store.Stats()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "Entries: %d\nSize: %d bytes\n", stats.Entries, stats.TotalSize)
	return err
}

func runCacheClear(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	color.Green("Cache cleared")
	return nil
}
