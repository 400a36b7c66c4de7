package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pylens/pylens/internal/types"
)

func (s *Server) handleAddProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Path string `json:"path"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("add_project", fmt.Errorf("invalid parameters: %v", err))
	}
	if params.Path == "" {
		return createErrorResponse("add_project", fmt.Errorf("path is required"))
	}

	info, err := s.coord.Register(ctx, params.Path, params.Name)
	if err != nil {
		return createErrorResponse("add_project", err)
	}
	return createJSONResponse(map[string]interface{}{
		"status":  "success",
		"project": info,
	})
}

func (s *Server) handleRemoveProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project string `json:"project"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("remove_project", fmt.Errorf("invalid parameters: %v", err))
	}

	project, err := s.coord.Resolve(params.Project)
	if err != nil {
		return createErrorResponse("remove_project", err)
	}
	if err := s.coord.Remove(project.Name); err != nil {
		return createErrorResponse("remove_project", err)
	}
	return createJSONResponse(map[string]interface{}{
		"status":  "success",
		"message": fmt.Sprintf("Project removed: %s", project.Name),
	})
}

func (s *Server) handleListProjects(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects := s.coord.List()
	return createJSONResponse(map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
}

func (s *Server) handleRefreshProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project string `json:"project"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("refresh_project", fmt.Errorf("invalid parameters: %v", err))
	}

	project, err := s.coord.Resolve(params.Project)
	if err != nil {
		return createErrorResponse("refresh_project", err)
	}
	info, err := s.coord.Refresh(ctx, project.Name)
	if err != nil {
		return createErrorResponse("refresh_project", err)
	}
	return createJSONResponse(map[string]interface{}{
		"status":  "success",
		"message": fmt.Sprintf("Project refreshed: %s", project.Name),
		"project": info,
	})
}

func (s *Server) handleGetSymbols(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project string `json:"project"`
		Kind    string `json:"kind"`
		Search  string `json:"search"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_symbols", fmt.Errorf("invalid parameters: %v", err))
	}

	symbols, err := s.coord.Symbols(params.Project, params.Kind, params.Search)
	if err != nil {
		return createErrorResponse("get_symbols", err)
	}
	if symbols == nil {
		symbols = []types.Symbol{}
	}
	return createJSONResponse(map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

func (s *Server) handleGetSymbolInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project string `json:"project"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_symbol_info", fmt.Errorf("invalid parameters: %v", err))
	}

	matches, suggestions, err := s.coord.SymbolInfo(params.Project, params.Name)
	if err != nil {
		return createErrorResponse("get_symbol_info", err)
	}
	if len(matches) == 0 {
		result := map[string]interface{}{
			"error": fmt.Sprintf("Symbol not found: %s", params.Name),
		}
		if len(suggestions) > 0 {
			result["suggestions"] = suggestions
		}
		return createJSONResponse(result)
	}
	return createJSONResponse(map[string]interface{}{
		"symbols": matches,
		"count":   len(matches),
	})
}

func (s *Server) handleGetDependencies(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project      string `json:"project"`
		ExternalOnly bool   `json:"external_only"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_dependencies", fmt.Errorf("invalid parameters: %v", err))
	}

	deps, err := s.coord.Dependencies(params.Project, params.ExternalOnly)
	if err != nil {
		return createErrorResponse("get_dependencies", err)
	}
	if deps == nil {
		deps = []types.Dependency{}
	}
	return createJSONResponse(map[string]interface{}{
		"dependencies": deps,
		"count":        len(deps),
	})
}

func (s *Server) handleGetDependencyTree(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project string `json:"project"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_dependency_tree", fmt.Errorf("invalid parameters: %v", err))
	}

	tree, err := s.coord.DependencyTree(params.Project)
	if err != nil {
		return createErrorResponse("get_dependency_tree", err)
	}
	return createJSONResponse(tree)
}

func (s *Server) handleGetDocs(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project string `json:"project"`
		File    string `json:"file"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_docs", fmt.Errorf("invalid parameters: %v", err))
	}

	if params.File != "" {
		doc, err := s.coord.Doc(params.Project, params.File)
		if err != nil {
			return createErrorResponse("get_docs", err)
		}
		return createJSONResponse(doc)
	}

	documents, err := s.coord.Docs(params.Project)
	if err != nil {
		return createErrorResponse("get_docs", err)
	}

	// Listing omits body content to keep responses small.
	type docEntry struct {
		File     string            `json:"file"`
		Title    string            `json:"title"`
		Sections []docEntrySection `json:"sections"`
	}
	entries := make([]docEntry, 0, len(documents))
	for _, doc := range documents {
		sections := make([]docEntrySection, 0, len(doc.Sections))
		for _, section := range doc.Sections {
			sections = append(sections, docEntrySection{Title: section.Title, Level: section.Level})
		}
		entries = append(entries, docEntry{File: doc.FilePath, Title: doc.Title, Sections: sections})
	}
	return createJSONResponse(map[string]interface{}{
		"documentation": entries,
		"count":         len(entries),
	})
}

type docEntrySection struct {
	Title string `json:"title"`
	Level int    `json:"level"`
}

func (s *Server) handleSearchDocs(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project       string `json:"project"`
		Query         string `json:"query"`
		CaseSensitive bool   `json:"case_sensitive"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("search_docs", fmt.Errorf("invalid parameters: %v", err))
	}
	if params.Query == "" {
		return createErrorResponse("search_docs", fmt.Errorf("query is required"))
	}

	results, err := s.coord.SearchDocs(params.Project, params.Query, params.CaseSensitive)
	if err != nil {
		return createErrorResponse("search_docs", err)
	}
	if results == nil {
		results = []types.DocMatch{}
	}
	return createJSONResponse(map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleGetDiagnostics(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project  string `json:"project"`
		Severity string `json:"severity"`
		File     string `json:"file"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_diagnostics", fmt.Errorf("invalid parameters: %v", err))
	}

	diags, err := s.coord.Diagnostics(params.Project, types.Severity(params.Severity), params.File)
	if err != nil {
		return createErrorResponse("get_diagnostics", err)
	}
	if diags == nil {
		diags = []types.Diagnostic{}
	}
	return createJSONResponse(map[string]interface{}{
		"diagnostics": diags,
		"count":       len(diags),
	})
}

func (s *Server) handleGetLintSummary(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Project string `json:"project"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("get_lint_summary", fmt.Errorf("invalid parameters: %v", err))
	}

	summary, err := s.coord.LintSummary(params.Project)
	if err != nil {
		return createErrorResponse("get_lint_summary", err)
	}
	return createJSONResponse(summary)
}
