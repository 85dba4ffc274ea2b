package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/panbanda/scry/internal/output"
	"github.com/panbanda/scry/pkg/report"
	"github.com/urfave/cli/v2"
)

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Work with saved JSON reports",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check a JSON report against the report schema",
				ArgsUsage: "<file>",
				Action:    runReportValidate,
			},
			{
				Name:      "render",
				Usage:     "Render a saved JSON report in another format",
				ArgsUsage: "<file>",
				Action:    runReportRender,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON Schema for reports",
				Action: runReportSchema,
			},
		},
	}
}

func readReportFile(c *cli.Context) ([]byte, error) {
	if c.Args().Len() == 0 {
		return nil, fmt.Errorf("report file required")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	if err := report.Validate(data); err != nil {
		return nil, fmt.Errorf("invalid report %s: %w", c.Args().First(), err)
	}
	return data, nil
}

func runReportValidate(c *cli.Context) error {
	if _, err := readReportFile(c); err != nil {
		return err
	}
	color.Green("Report valid: %s", c.Args().First())
	return nil
}

func runReportRender(c *cli.Context) error {
	data, err := readReportFile(c)
	if err != nil {
		return err
	}

	var r report.AnalysisReport
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}

	cfg, err := loadConfig(c, ".")
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.ReportView(&r))
}

func runReportSchema(c *cli.Context) error {
	_, err := c.App.Writer.Write(report.Schema())
	return err
}
