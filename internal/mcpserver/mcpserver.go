// Package mcpserver exposes the analyses as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/scry/pkg/config"
)

// Server wraps the MCP server and registers all scry tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the analysis settings used by every tool call.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP server with all scry tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: "scry", Version: version}, nil),
		config: config.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// ToolInfo names one registered tool and its description.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// toolCatalog lists every tool in registration order.
var toolCatalog = []struct {
	name     string
	describe func() string
}{
	{"analyze_project", describeProject},
	{"analyze_complexity", describeComplexity},
	{"analyze_security", describeSecurity},
	{"analyze_duplicates", describeDuplicates},
	{"analyze_dependencies", describeDependencies},
}

// Tools returns the tools every Server registers.
func Tools() []ToolInfo {
	tools := make([]ToolInfo, 0, len(toolCatalog))
	for _, t := range toolCatalog {
		tools = append(tools, ToolInfo{Name: t.name, Description: t.describe()})
	}
	return tools
}

// addTool registers h under a catalog name.
func addTool[In any](s *Server, name string, h mcp.ToolHandlerFor[In, any]) {
	for _, t := range toolCatalog {
		if t.name == name {
			mcp.AddTool(s.server, &mcp.Tool{Name: name, Description: t.describe()}, h)
			return
		}
	}
	panic("mcpserver: tool " + name + " missing from catalog")
}

func (s *Server) registerTools() {
	addTool(s, "analyze_project", s.handleAnalyzeProject)
	addTool(s, "analyze_complexity", s.handleAnalyzeComplexity)
	addTool(s, "analyze_security", s.handleAnalyzeSecurity)
	addTool(s, "analyze_duplicates", s.handleAnalyzeDuplicates)
	addTool(s, "analyze_dependencies", s.handleAnalyzeDependencies)
}
