package main

import (
	"fmt"
	"log/slog"

	"github.com/panbanda/scry/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes scry's analyses
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "scry": {
        "command": "scry",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_project       Full report with summary and recommendations
  - analyze_complexity    Cyclomatic complexity per function
  - analyze_security      Risky code patterns
  - analyze_duplicates    Code clones and copy-paste detection
  - analyze_dependencies  Declared dependencies and npm audit results

Available prompts:
  - code-review, security-audit, refactor-plan`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c, ".")
	if err != nil {
		return err
	}

	ctx, stop := signalContext(c)
	defer stop()

	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(cfg),
		mcpserver.WithLogger(slog.Default()),
	)
	return server.Run(ctx)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(mcpserver.BuildInfo{
		Version:     version,
		Commit:      commit,
		Date:        date,
		Repository:  repository,
		Description: usage,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
