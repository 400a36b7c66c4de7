package coordinator

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/pylens/pylens/internal/docs"
	"github.com/pylens/pylens/internal/types"
)

// maxSuggestions caps the "did you mean" list on a failed symbol lookup.
const maxSuggestions = 3

// Resolve finds a project by name, falling back to a path match so callers
// may identify projects either way.
func (c *Coordinator) Resolve(ref string) (*Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if project, ok := c.projects[ref]; ok {
		return project, nil
	}
	if abs, err := filepath.Abs(ref); err == nil {
		for _, project := range c.projects {
			if project.Root == abs {
				return project, nil
			}
		}
	}
	return nil, fmt.Errorf("project not found: %s", ref)
}

// Symbols returns all symbols in a project, optionally filtered by kind and
// by a case-insensitive name substring. Results are ordered by file then
// line.
func (c *Coordinator) Symbols(ref, kind, search string) ([]types.Symbol, error) {
	project, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	search = strings.ToLower(search)

	project.mu.RLock()
	var symbols []types.Symbol
	for _, result := range project.analyses {
		for _, symbol := range result.Symbols {
			if kind != "" && kind != "all" && string(symbol.Kind) != kind {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(symbol.Name), search) {
				continue
			}
			symbols = append(symbols, symbol)
		}
	}
	project.mu.RUnlock()

	sort.Slice(symbols, func(i, j int) bool {
		if symbols[i].File != symbols[j].File {
			return symbols[i].File < symbols[j].File
		}
		return symbols[i].Line < symbols[j].Line
	})
	return symbols, nil
}

// Dependencies returns the project's imports deduplicated by module name.
// With externalOnly set, standard-library modules and relative imports are
// dropped.
func (c *Coordinator) Dependencies(ref string, externalOnly bool) ([]types.Dependency, error) {
	project, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	project.mu.RLock()
	files := make([]string, 0, len(project.analyses))
	for path := range project.analyses {
		files = append(files, path)
	}
	sort.Strings(files)

	seen := make(map[string]bool)
	var deps []types.Dependency
	for _, path := range files {
		for _, dep := range project.analyses[path].Dependencies {
			if seen[dep.Name] {
				continue
			}
			seen[dep.Name] = true
			deps = append(deps, dep)
		}
	}
	project.mu.RUnlock()

	if externalOnly {
		filtered := deps[:0]
		for _, dep := range deps {
			if strings.HasPrefix(dep.Name, ".") {
				continue
			}
			base := strings.SplitN(dep.Name, ".", 2)[0]
			if stdlibModules[base] {
				continue
			}
			filtered = append(filtered, dep)
		}
		deps = filtered
	}
	return deps, nil
}

// SymbolInfo returns every definition of an exactly-named symbol. When
// nothing matches, close names are suggested instead.
func (c *Coordinator) SymbolInfo(ref, name string) (matches []types.Symbol, suggestions []string, err error) {
	symbols, err := c.Symbols(ref, "", "")
	if err != nil {
		return nil, nil, err
	}

	for _, symbol := range symbols {
		if symbol.Name == name {
			matches = append(matches, symbol)
		}
	}
	if len(matches) > 0 {
		return matches, nil, nil
	}

	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	seen := make(map[string]bool)
	for _, symbol := range symbols {
		if seen[symbol.Name] {
			continue
		}
		seen[symbol.Name] = true
		dist := edlib.LevenshteinDistance(name, symbol.Name)
		if dist <= len(name)/2+1 {
			candidates = append(candidates, scored{symbol.Name, dist})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})
	for i := 0; i < len(candidates) && i < maxSuggestions; i++ {
		suggestions = append(suggestions, candidates[i].name)
	}
	return nil, suggestions, nil
}

// Diagnostics returns lint diagnostics for a project, optionally filtered
// by severity and file path. Results are ordered by file then line.
func (c *Coordinator) Diagnostics(ref string, severity types.Severity, file string) ([]types.Diagnostic, error) {
	project, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	project.mu.RLock()
	var diags []types.Diagnostic
	for _, result := range project.lints {
		for _, diag := range result.Diagnostics {
			if severity != "" && diag.Severity != severity {
				continue
			}
			if file != "" && diag.File != file {
				continue
			}
			diags = append(diags, diag)
		}
	}
	project.mu.RUnlock()

	sort.Slice(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Column < diags[j].Column
	})
	return diags, nil
}

// LintSummary aggregates diagnostic counts by severity and by source.
func (c *Coordinator) LintSummary(ref string) (types.LintSummary, error) {
	project, err := c.Resolve(ref)
	if err != nil {
		return types.LintSummary{}, err
	}

	summary := types.LintSummary{
		BySeverity: map[types.Severity]int{
			types.SeverityError:   0,
			types.SeverityWarning: 0,
			types.SeverityInfo:    0,
			types.SeverityHint:    0,
		},
		BySource: map[string]int{},
	}

	project.mu.RLock()
	summary.FilesLinted = len(project.lints)
	for _, result := range project.lints {
		for _, diag := range result.Diagnostics {
			summary.TotalDiagnostics++
			summary.BySeverity[diag.Severity]++
			summary.BySource[diag.Source]++
		}
	}
	project.mu.RUnlock()

	return summary, nil
}

// Docs returns the project's documentation files sorted by path.
func (c *Coordinator) Docs(ref string) ([]*types.DocFile, error) {
	project, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	project.mu.RLock()
	out := make([]*types.DocFile, 0, len(project.docs))
	for _, doc := range project.docs {
		out = append(out, doc)
	}
	project.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out, nil
}

// Doc returns one documentation file by path, or an error if unknown.
func (c *Coordinator) Doc(ref, file string) (*types.DocFile, error) {
	project, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(project.Root, file)
	}

	project.mu.RLock()
	doc, ok := project.docs[abs]
	project.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("documentation file not found: %s", file)
	}
	return doc, nil
}

// SearchDocs runs a substring search over a project's documentation.
func (c *Coordinator) SearchDocs(ref, query string, caseSensitive bool) ([]types.DocMatch, error) {
	project, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	project.mu.RLock()
	snapshot := make(map[string]*types.DocFile, len(project.docs))
	for path, doc := range project.docs {
		snapshot[path] = doc
	}
	project.mu.RUnlock()

	return docs.Search(snapshot, query, caseSensitive), nil
}
