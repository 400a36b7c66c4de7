// Package types defines the shared value types produced by the analysis
// pipeline: symbols, dependencies, diagnostics, documentation sections, and
// the per-project aggregates built from them. Values here are immutable once
// produced; re-analysis replaces them wholesale.
package types

import "time"

// SymbolKind classifies a named declaration found in source.
type SymbolKind string

const (
	SymbolKindFunction SymbolKind = "function"
	SymbolKindMethod   SymbolKind = "method"
	SymbolKindClass    SymbolKind = "class"
	SymbolKindVariable SymbolKind = "variable"
)

// Symbol is a single named declaration extracted from a source file.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Line      int        `json:"line"`
	Column    int        `json:"column"`
	File      string     `json:"file"`
	Docstring string     `json:"docstring,omitempty"`
	Parent    string     `json:"parent,omitempty"`
	Signature string     `json:"signature,omitempty"`
}

// IsPublic reports whether the symbol is exported by Python naming
// convention (no leading underscore).
func (s Symbol) IsPublic() bool {
	return len(s.Name) > 0 && s.Name[0] != '_'
}

// Dependency is one import statement. A from-import bundles all imported
// member names into a single record.
type Dependency struct {
	Name          string   `json:"name"`
	Alias         string   `json:"alias,omitempty"`
	IsFromImport  bool     `json:"is_from_import"`
	ImportedNames []string `json:"imported_names,omitempty"`
	File          string   `json:"file"`
}

// AnalysisResult is the outcome of analyzing one source file. If Errors is
// non-empty the file failed before extraction and Symbols/Dependencies are
// empty.
type AnalysisResult struct {
	FilePath     string       `json:"file_path"`
	Symbols      []Symbol     `json:"symbols"`
	Dependencies []Dependency `json:"dependencies"`
	Errors       []string     `json:"errors,omitempty"`
	LastModified time.Time    `json:"last_modified"`
}

// Severity is a diagnostic severity level.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Diagnostic is a single rule violation with its location.
type Diagnostic struct {
	File      string   `json:"file"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	EndLine   int      `json:"end_line,omitempty"`
	EndColumn int      `json:"end_column,omitempty"`
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Source    string   `json:"source"`
}

// LintResult is the outcome of linting one source file.
type LintResult struct {
	FilePath    string       `json:"file_path"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Errors      []string     `json:"errors,omitempty"`
}

// DocSection is a titled, leveled span of documentation content. Level 0
// marks preamble content appearing before the first heading. Sections are
// produced as a flat ordered sequence; nesting is implied by level.
type DocSection struct {
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	Level    int          `json:"level"`
	Children []DocSection `json:"children,omitempty"`
}

// DocFile is one parsed documentation file.
type DocFile struct {
	FilePath     string       `json:"file_path"`
	Title        string       `json:"title"`
	Sections     []DocSection `json:"sections"`
	Content      string       `json:"content"`
	LastModified time.Time    `json:"last_modified"`
}

// DocMatch is one hit from a documentation search: the owning file, the
// matching section, and a bounded preview around the match.
type DocMatch struct {
	File    string `json:"file"`
	Section string `json:"section"`
	Level   int    `json:"level"`
	Preview string `json:"preview"`
}

// FileImport is one import entry in a dependency tree file node.
type FileImport struct {
	Name          string   `json:"name"`
	FromImport    bool     `json:"from_import"`
	ImportedNames []string `json:"imported_names,omitempty"`
}

// FileExport is one public symbol listed as an export of a file.
type FileExport struct {
	Name string     `json:"name"`
	Kind SymbolKind `json:"kind"`
}

// FileDependencies groups the imports and exports of one file in a
// dependency tree.
type FileDependencies struct {
	Imports []FileImport `json:"imports"`
	Exports []FileExport `json:"exports"`
}

// DependencyTree classifies every dependency of a project as internal
// (resolving to a module or package under the project root) or external.
// Each dependency name appears in exactly one of the two sets.
type DependencyTree struct {
	Project              string                      `json:"project"`
	Files                map[string]FileDependencies `json:"files"`
	ExternalDependencies []string                    `json:"external_dependencies"`
	InternalModules      []string                    `json:"internal_modules"`
}

// LintSummary aggregates diagnostic counts for a project.
type LintSummary struct {
	FilesLinted      int              `json:"files_linted"`
	TotalDiagnostics int              `json:"total_diagnostics"`
	BySeverity       map[Severity]int `json:"by_severity"`
	BySource         map[string]int   `json:"by_source"`
}
