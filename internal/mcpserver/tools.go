package mcpserver

import (
	"bytes"
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/scry/internal/output"
	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/report"
	"github.com/panbanda/scry/pkg/source"
)

// AnalyzeInput is the input shared by all analyze tools.
type AnalyzeInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Project directory to analyze. Defaults to the current directory."`
	Ref    string `json:"ref,omitempty" jsonschema:"Git revision to analyze instead of the working tree, e.g. main or HEAD~3."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// DuplicatesInput adds clone detection tuning.
type DuplicatesInput struct {
	AnalyzeInput
	MinLines  int     `json:"min_lines,omitempty" jsonschema:"Minimum lines for a duplicate block. Default 6."`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"Similarity threshold (0.0-1.0). Default 0.85."`
	Ranked    bool    `json:"ranked,omitempty" jsonschema:"Keep the largest duplicates instead of the first found."`
}

// DependenciesInput adds audit switches.
type DependenciesInput struct {
	AnalyzeInput
	SkipAudit bool `json:"skip_audit,omitempty" jsonschema:"Do not run the vulnerability audit command."`
	Outdated  bool `json:"outdated,omitempty" jsonschema:"Also check which dependencies are outdated."`
}

func getPath(input AnalyzeInput) string {
	if input.Path == "" {
		return "."
	}
	return input.Path
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatToon
	}
}

func toolResult(view output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	var buf bytes.Buffer
	if err := output.New(format, &buf, false).Output(view); err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: buf.String()},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// analyze runs one report with cfg. Tool calls never share mutable state,
// so concurrent calls are safe.
func (s *Server) analyze(ctx context.Context, input AnalyzeInput, cfg *config.Config) (*report.AnalysisReport, error) {
	var corpus source.Corpus = source.NewDirectory(cfg, source.WithLogger(s.logger))
	if input.Ref != "" {
		corpus = source.NewGitRef(input.Ref, cfg, source.WithLogger(s.logger))
	}
	agg := report.New(corpus,
		report.WithConfig(cfg),
		report.WithNpm(cfg.Dependencies),
		report.WithLogger(s.logger),
	)
	return agg.AnalyzeProject(ctx, getPath(input))
}

// configFor copies the server config so per-call overrides stay local.
func (s *Server) configFor(analysis string) *config.Config {
	cfg := *s.config
	if analysis != "" {
		cfg.Analysis = cfg.Analysis.Only(analysis)
	}
	return &cfg
}

// Tool handlers

func (s *Server) handleAnalyzeProject(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	r, err := s.analyze(ctx, input, s.configFor(""))
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.ReportView(r), getFormat(input))
}

func (s *Server) handleAnalyzeComplexity(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	r, err := s.analyze(ctx, input, s.configFor("complexity"))
	if err != nil {
		return toolError(err.Error())
	}
	if len(r.Complexity) == 0 {
		return toolError("no source files found")
	}
	return toolResult(output.ComplexityView(r.Complexity), getFormat(input))
}

func (s *Server) handleAnalyzeSecurity(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	r, err := s.analyze(ctx, input, s.configFor("security"))
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.SecurityView(r.Security), getFormat(input))
}

func (s *Server) handleAnalyzeDuplicates(ctx context.Context, req *mcp.CallToolRequest, input DuplicatesInput) (*mcp.CallToolResult, any, error) {
	cfg := s.configFor("duplicates")
	if input.MinLines > 0 {
		cfg.Duplicates.MinLines = input.MinLines
	}
	if input.Threshold > 0 && input.Threshold <= 1 {
		cfg.Duplicates.Threshold = input.Threshold
	}
	if input.Ranked {
		cfg.Duplicates.Ranked = true
	}

	r, err := s.analyze(ctx, input.AnalyzeInput, cfg)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.DuplicationView(r.Duplication), getFormat(input.AnalyzeInput))
}

func (s *Server) handleAnalyzeDependencies(ctx context.Context, req *mcp.CallToolRequest, input DependenciesInput) (*mcp.CallToolResult, any, error) {
	cfg := s.configFor("dependencies")
	if input.SkipAudit {
		cfg.Dependencies.Audit = false
	}
	if input.Outdated {
		cfg.Dependencies.Outdated = true
	}

	r, err := s.analyze(ctx, input.AnalyzeInput, cfg)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.DependencyView(r.Dependencies), getFormat(input.AnalyzeInput))
}
