// Package linter runs a fixed battery of rule checks over Python source
// files and reports diagnostics. Checks are independent: each contributes
// its own diagnostics and none depends on another's output.
package linter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/pylens/pylens/internal/pysrc"
	"github.com/pylens/pylens/internal/types"
)

// DefaultCacheSize is the number of per-file results retained when no
// explicit size is configured.
const DefaultCacheSize = 2048

// Rule codes, matching the conventional flake8-style numbering.
const (
	CodeSyntaxError     = "E001"
	CodeUnusedImport    = "W001"
	CodeLineTooLong     = "E501"
	CodeTrailingSpace   = "W291"
	CodeTabIndent       = "W191"
	CodeBareExcept      = "E722"
	CodeTooManyArgs     = "C901"
	CodeFunctionTooLong = "C902"
	CodeTooMuchNesting  = "C903"
	CodeMissingReturn   = "T001"
	CodeMissingArgHint  = "T002"
)

// Rule sources group diagnostics by the check that produced them.
const (
	SourceSyntax       = "syntax"
	SourceUnusedImport = "unused-import"
	SourceStyle        = "style"
	SourceComplexity   = "complexity"
	SourceTypeHints    = "type-hints"
)

// Thresholds for the style and complexity checks.
const (
	maxLineLength   = 120
	maxArguments    = 7
	maxFunctionSize = 50
	maxNestingDepth = 4
)

type cacheEntry struct {
	result      *types.LintResult
	contentHash uint64
}

// FileLinter lints individual Python files. Safe for concurrent use.
type FileLinter struct {
	parser *pysrc.Parser
	cache  *lru.Cache[string, cacheEntry]
}

// NewFileLinter creates a linter with a result cache of the given size.
func NewFileLinter(cacheSize int) (*FileLinter, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	parser, err := pysrc.NewParser()
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, cacheEntry](cacheSize)
	if err != nil {
		parser.Close()
		return nil, err
	}
	return &FileLinter{parser: parser, cache: cache}, nil
}

// Close releases the underlying parser.
func (l *FileLinter) Close() {
	l.parser.Close()
}

// Lint runs every check over one file. Failures never surface as errors;
// they are captured in the result's Errors list. Unchanged content is
// served from the cache.
func (l *FileLinter) Lint(ctx context.Context, path string) *types.LintResult {
	result := &types.LintResult{FilePath: path}

	if err := ctx.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Error linting %s: %v", path, err))
		return result
	}

	if _, err := os.Stat(path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("File does not exist: %s", path))
		return result
	}
	if !strings.EqualFold(filepath.Ext(path), ".py") {
		result.Errors = append(result.Errors, fmt.Sprintf("Not a Python file: %s", path))
		return result
	}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Error linting %s: %v", path, err))
		return result
	}

	hash := xxhash.Sum64(content)
	if entry, ok := l.cache.Get(path); ok && entry.contentHash == hash {
		return entry.result
	}

	// One parse shared by the tree-based checks. When parsing fails the
	// syntax check reports it once and the other checks contribute nothing.
	var root *tree_sitter.Node
	tree, parseErr := l.parser.Parse(content)
	if tree != nil {
		defer tree.Close()
		root = tree.RootNode()
	}

	lines := strings.Split(string(content), "\n")

	result.Diagnostics = append(result.Diagnostics, l.checkSyntax(parseErr, path)...)
	result.Diagnostics = append(result.Diagnostics, l.checkUndefinedNames(root, content, path)...)
	result.Diagnostics = append(result.Diagnostics, l.checkUnusedImports(root, content, path)...)
	result.Diagnostics = append(result.Diagnostics, l.checkStyle(lines, path)...)
	result.Diagnostics = append(result.Diagnostics, l.checkComplexity(root, content, path)...)
	result.Diagnostics = append(result.Diagnostics, l.checkTypeHints(root, content, path)...)

	l.cache.Add(path, cacheEntry{result: result, contentHash: hash})
	return result
}

// Cached returns the most recent result for a path, if any.
func (l *FileLinter) Cached(path string) (*types.LintResult, bool) {
	entry, ok := l.cache.Get(path)
	if !ok {
		return nil, false
	}
	return entry.result, true
}

// Invalidate drops the cached result for a path.
func (l *FileLinter) Invalidate(path string) {
	l.cache.Remove(path)
}

// checkSyntax reports a single error diagnostic when the parse failed.
func (l *FileLinter) checkSyntax(parseErr error, path string) []types.Diagnostic {
	if parseErr == nil {
		return nil
	}
	line, column := 1, 0
	if serr, ok := parseErr.(*pysrc.SyntaxError); ok {
		line, column = serr.Line, serr.Column
	}
	return []types.Diagnostic{{
		File:     path,
		Line:     line,
		Column:   column,
		Severity: types.SeverityError,
		Code:     CodeSyntaxError,
		Message:  fmt.Sprintf("Syntax error: %v", parseErr),
		Source:   SourceSyntax,
	}}
}

// checkUndefinedNames is a hook for undefined-name detection. Without
// cross-file resolution the check produces too many false positives, so it
// deliberately reports nothing.
func (l *FileLinter) checkUndefinedNames(root *tree_sitter.Node, content []byte, path string) []types.Diagnostic {
	return nil
}
