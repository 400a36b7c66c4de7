// Package mcp exposes project analysis over the Model Context Protocol.
// Tools are served on the stdio transport; diagnostic output goes to a log
// file so stdout stays clean for the protocol.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pylens/pylens/internal/coordinator"
	"github.com/pylens/pylens/internal/types"
	"github.com/pylens/pylens/internal/version"
)

// Server wires a coordinator to MCP tool handlers.
type Server struct {
	server *mcp.Server
	coord  *coordinator.Coordinator
	diag   *DiagnosticLogger
}

// NewServer creates the MCP server and registers all tools.
func NewServer(coord *coordinator.Coordinator, diag *DiagnosticLogger) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "pylens",
			Version: version.Version,
		}, nil),
		coord: coord,
		diag:  diag,
	}
	s.registerTools()
	s.subscribeEvents()
	return s
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.diag.Printf("MCP server starting (version %s)", version.Version)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// subscribeEvents logs coordinator events for diagnostics.
func (s *Server) subscribeEvents() {
	s.coord.Subscribe(func(event string, payload types.EventPayload) {
		s.diag.Printf("event %s: %v", event, payload)
	})
}

func projectProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Project name or path, as registered via add_project",
	}
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "add_project",
		Description: "Register a Python project for analysis. Runs a full scan and starts watching for changes.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Path to the project root directory",
				},
				"name": {
					Type:        "string",
					Description: "Optional project name (defaults to pyproject.toml name or directory name)",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleAddProject)

	s.server.AddTool(&mcp.Tool{
		Name:        "remove_project",
		Description: "Unregister a project and stop watching it.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
			},
			Required: []string{"project"},
		},
	}, s.handleRemoveProject)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List all registered projects with their analysis status.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleListProjects)

	s.server.AddTool(&mcp.Tool{
		Name:        "refresh_project",
		Description: "Re-run the full analysis for a project.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
			},
			Required: []string{"project"},
		},
	}, s.handleRefreshProject)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_symbols",
		Description: "Get all symbols (functions, methods, classes, variables) from a project.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
				"kind": {
					Type:        "string",
					Description: "Filter by symbol kind: function, method, class, variable, or all",
					Enum:        []any{"function", "method", "class", "variable", "all"},
				},
				"search": {
					Type:        "string",
					Description: "Case-insensitive substring filter on symbol names",
				},
			},
			Required: []string{"project"},
		},
	}, s.handleGetSymbols)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_symbol_info",
		Description: "Look up every definition of an exactly-named symbol. Suggests close names when nothing matches.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
				"name": {
					Type:        "string",
					Description: "Exact symbol name to look up",
				},
			},
			Required: []string{"project", "name"},
		},
	}, s.handleGetSymbolInfo)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_dependencies",
		Description: "Get a project's imports, deduplicated by module name.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
				"external_only": {
					Type:        "boolean",
					Description: "Exclude standard-library modules and relative imports",
				},
			},
			Required: []string{"project"},
		},
	}, s.handleGetDependencies)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_dependency_tree",
		Description: "Get the per-file import/export structure of a project with internal/external classification.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
			},
			Required: []string{"project"},
		},
	}, s.handleGetDependencyTree)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_docs",
		Description: "List a project's documentation files, or fetch one file's full content and sections.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
				"file": {
					Type:        "string",
					Description: "Optional documentation file path for full content",
				},
			},
			Required: []string{"project"},
		},
	}, s.handleGetDocs)

	s.server.AddTool(&mcp.Tool{
		Name:        "search_docs",
		Description: "Substring search across a project's documentation sections.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
				"query": {
					Type:        "string",
					Description: "Text to search for",
				},
				"case_sensitive": {
					Type:        "boolean",
					Description: "Match case exactly (default false)",
				},
			},
			Required: []string{"project", "query"},
		},
	}, s.handleSearchDocs)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_diagnostics",
		Description: "Get lint diagnostics for a project, optionally filtered by severity or file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
				"severity": {
					Type:        "string",
					Description: "Filter by severity",
					Enum:        []any{"error", "warning", "info", "hint"},
				},
				"file": {
					Type:        "string",
					Description: "Filter by absolute file path",
				},
			},
			Required: []string{"project"},
		},
	}, s.handleGetDiagnostics)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_lint_summary",
		Description: "Get aggregate diagnostic counts by severity and source for a project.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project": projectProperty(),
			},
			Required: []string{"project"},
		},
	}, s.handleGetLintSummary)
}
