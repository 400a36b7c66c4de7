package linter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/pylens/pylens/internal/pysrc"
	"github.com/pylens/pylens/internal/types"
)

var bareExceptPattern = regexp.MustCompile(`^\s*except\s*:\s*$`)

type importDecl struct {
	name   string
	line   int
	column int
}

// checkUnusedImports flags declared import names that never appear among the
// identifier references elsewhere in the file. Names with a leading
// underscore are treated as intentionally unused.
func (l *FileLinter) checkUnusedImports(root *tree_sitter.Node, content []byte, path string) []types.Diagnostic {
	if root == nil {
		return nil
	}

	var imports []importDecl
	used := make(map[string]bool)

	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch pysrc.KindOf(n) {
		case pysrc.KindImport:
			imports = append(imports, collectImportNames(n, content)...)
			return // identifiers inside the statement are declarations, not uses
		case pysrc.KindImportFrom:
			imports = append(imports, collectFromImportNames(n, content)...)
			return
		case pysrc.KindIdentifier:
			used[pysrc.Text(n, content)] = true
			return
		case pysrc.KindAttribute:
			// Only the base object is a reference; the attribute name after
			// the dot is not an identifier use.
			visit(n.ChildByFieldName("object"))
			return
		case pysrc.KindKeywordArgument:
			visit(n.ChildByFieldName("value"))
			return
		}
		for _, c := range pysrc.NamedChildren(n) {
			visit(c)
		}
	}
	visit(root)

	var diags []types.Diagnostic
	for _, imp := range imports {
		if used[imp.name] || strings.HasPrefix(imp.name, "_") {
			continue
		}
		diags = append(diags, types.Diagnostic{
			File:     path,
			Line:     imp.line,
			Column:   imp.column,
			Severity: types.SeverityWarning,
			Code:     CodeUnusedImport,
			Message:  fmt.Sprintf("'%s' imported but unused", imp.name),
			Source:   SourceUnusedImport,
		})
	}
	return diags
}

// collectImportNames yields the bound name of each module in an import
// statement: the alias when present, otherwise the first dotted component.
func collectImportNames(n *tree_sitter.Node, content []byte) []importDecl {
	pos := n.StartPosition()
	line, col := int(pos.Row)+1, int(pos.Column)

	var decls []importDecl
	for _, c := range pysrc.NamedChildren(n) {
		switch c.Kind() {
		case "dotted_name":
			name := pysrc.Text(c, content)
			if dot := strings.IndexByte(name, '.'); dot >= 0 {
				name = name[:dot]
			}
			decls = append(decls, importDecl{name: name, line: line, column: col})
		case "aliased_import":
			decls = append(decls, importDecl{
				name:   pysrc.FieldText(c, "alias", content),
				line:   line,
				column: col,
			})
		}
	}
	return decls
}

// collectFromImportNames yields the bound names of a from-import, skipping
// wildcard imports.
func collectFromImportNames(n *tree_sitter.Node, content []byte) []importDecl {
	pos := n.StartPosition()
	line, col := int(pos.Row)+1, int(pos.Column)

	module := n.ChildByFieldName("module_name")
	var decls []importDecl
	for _, c := range pysrc.NamedChildren(n) {
		if module != nil && c.StartByte() == module.StartByte() {
			continue
		}
		switch c.Kind() {
		case "dotted_name":
			decls = append(decls, importDecl{name: pysrc.Text(c, content), line: line, column: col})
		case "aliased_import":
			decls = append(decls, importDecl{
				name:   pysrc.FieldText(c, "alias", content),
				line:   line,
				column: col,
			})
		}
	}
	return decls
}

// checkStyle runs the per-line checks: line length, trailing whitespace,
// tab indentation, and bare except handlers.
func (l *FileLinter) checkStyle(lines []string, path string) []types.Diagnostic {
	var diags []types.Diagnostic

	for i, line := range lines {
		lineno := i + 1

		if length := utf8.RuneCountInString(line); length > maxLineLength {
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     lineno,
				Column:   maxLineLength + 1,
				Severity: types.SeverityInfo,
				Code:     CodeLineTooLong,
				Message:  fmt.Sprintf("Line too long (%d > %d characters)", length, maxLineLength),
				Source:   SourceStyle,
			})
		}

		if trimmed := strings.TrimRight(line, " \t"); trimmed != line && strings.TrimSpace(line) != "" {
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     lineno,
				Column:   len(trimmed) + 1,
				Severity: types.SeverityInfo,
				Code:     CodeTrailingSpace,
				Message:  "Trailing whitespace",
				Source:   SourceStyle,
			})
		}

		if idx := strings.IndexByte(line, '\t'); idx >= 0 {
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     lineno,
				Column:   idx + 1,
				Severity: types.SeverityInfo,
				Code:     CodeTabIndent,
				Message:  "Indentation contains tabs",
				Source:   SourceStyle,
			})
		}

		if bareExceptPattern.MatchString(line) {
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     lineno,
				Column:   1,
				Severity: types.SeverityWarning,
				Code:     CodeBareExcept,
				Message:  "Do not use bare 'except'",
				Source:   SourceStyle,
			})
		}
	}
	return diags
}

// checkComplexity flags functions with too many parameters, too many lines,
// or too much control-flow nesting.
func (l *FileLinter) checkComplexity(root *tree_sitter.Node, content []byte, path string) []types.Diagnostic {
	if root == nil {
		return nil
	}

	var diags []types.Diagnostic
	forEachFunction(root, func(fn *tree_sitter.Node) {
		pos := fn.StartPosition()
		line, col := int(pos.Row)+1, int(pos.Column)
		name := pysrc.FieldText(fn, "name", content)

		numArgs := 0
		for _, p := range pysrc.Parameters(fn, content) {
			if !p.Splat {
				numArgs++
			}
		}
		if numArgs > maxArguments {
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     line,
				Column:   col,
				Severity: types.SeverityWarning,
				Code:     CodeTooManyArgs,
				Message:  fmt.Sprintf("Function '%s' has too many arguments (%d > %d)", name, numArgs, maxArguments),
				Source:   SourceComplexity,
			})
		}

		if length := int(fn.EndPosition().Row) - int(pos.Row); length > maxFunctionSize {
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     line,
				Column:   col,
				Severity: types.SeverityInfo,
				Code:     CodeFunctionTooLong,
				Message:  fmt.Sprintf("Function '%s' is too long (%d lines > %d)", name, length, maxFunctionSize),
				Source:   SourceComplexity,
			})
		}

		if depth := maxNesting(fn, 0); depth > maxNestingDepth {
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     line,
				Column:   col,
				Severity: types.SeverityWarning,
				Code:     CodeTooMuchNesting,
				Message:  fmt.Sprintf("Function '%s' has too much nesting (depth %d > %d)", name, depth, maxNestingDepth),
				Source:   SourceComplexity,
			})
		}
	})
	return diags
}

// checkTypeHints flags missing annotations on non-private functions: the
// return type (constructors excepted) and every positional parameter other
// than the implicit self/cls receiver.
func (l *FileLinter) checkTypeHints(root *tree_sitter.Node, content []byte, path string) []types.Diagnostic {
	if root == nil {
		return nil
	}

	var diags []types.Diagnostic
	forEachFunction(root, func(fn *tree_sitter.Node) {
		name := pysrc.FieldText(fn, "name", content)
		if strings.HasPrefix(name, "_") {
			return
		}

		pos := fn.StartPosition()
		line, col := int(pos.Row)+1, int(pos.Column)

		if fn.ChildByFieldName("return_type") == nil && name != "__init__" {
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     line,
				Column:   col,
				Severity: types.SeverityHint,
				Code:     CodeMissingReturn,
				Message:  fmt.Sprintf("Function '%s' missing return type annotation", name),
				Source:   SourceTypeHints,
			})
		}

		for _, p := range pysrc.Parameters(fn, content) {
			if p.Splat || p.KwOnly || p.Annotation != "" {
				continue
			}
			if p.Name == "self" || p.Name == "cls" {
				continue
			}
			diags = append(diags, types.Diagnostic{
				File:     path,
				Line:     line,
				Column:   col,
				Severity: types.SeverityHint,
				Code:     CodeMissingArgHint,
				Message:  fmt.Sprintf("Argument '%s' in function '%s' missing type annotation", p.Name, name),
				Source:   SourceTypeHints,
			})
		}
	})
	return diags
}

// forEachFunction invokes fn for every function definition in the tree,
// including nested ones and methods.
func forEachFunction(root *tree_sitter.Node, fn func(*tree_sitter.Node)) {
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		if pysrc.KindOf(n) == pysrc.KindFunctionDef {
			fn(n)
		}
		for _, c := range pysrc.NamedChildren(n) {
			visit(c)
		}
	}
	visit(root)
}

// maxNesting computes the deepest stack of control-flow constructs under a
// node. Each conditional, loop, resource scope, or exception handler on the
// path adds one level.
func maxNesting(n *tree_sitter.Node, depth int) int {
	max := depth
	for _, c := range pysrc.NamedChildren(n) {
		next := depth
		if pysrc.KindOf(c).IsControlFlow() {
			next = depth + 1
		}
		if d := maxNesting(c, next); d > max {
			max = d
		}
	}
	return max
}
