// Package analyzer extracts symbols and import dependencies from Python
// source files. Extraction is a single depth-first walk of the syntax tree
// carrying the enclosing-class name as traversal state, so method detection
// does not re-scan the tree per node.
package analyzer

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

type cacheEntry struct {
	result      *types.AnalysisResult
	contentHash uint64
}

// FileAnalyzer analyzes individual Python files. Safe for concurrent use.
type FileAnalyzer struct {
	parser *pysrc.Parser
	cache  *lru.Cache[string, cacheEntry]
}

// NewFileAnalyzer creates an analyzer with a result cache of the given size.
func NewFileAnalyzer(cacheSize int) (*FileAnalyzer, error) {
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
	return &FileAnalyzer{parser: parser, cache: cache}, nil
}

// Close releases the underlying parser.
func (a *FileAnalyzer) Close() {
	a.parser.Close()
}

// Analyze analyzes one file and returns its symbols and dependencies.
// Failures never surface as errors; they are captured in the result's
// Errors list. Unchanged content is served from the cache.
func (a *FileAnalyzer) Analyze(ctx context.Context, path string) *types.AnalysisResult {
	result := &types.AnalysisResult{FilePath: path}

	if err := ctx.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Error analyzing %s: %v", path, err))
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("File does not exist: %s", path))
		return result
	}
	if !strings.EqualFold(filepath.Ext(path), ".py") {
		result.Errors = append(result.Errors, fmt.Sprintf("Not a Python file: %s", path))
		return result
	}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Error analyzing %s: %v", path, err))
		return result
	}

	hash := xxhash.Sum64(content)
	if entry, ok := a.cache.Get(path); ok && entry.contentHash == hash {
		return entry.result
	}

	result.LastModified = info.ModTime()

	tree, err := a.parser.Parse(content)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Syntax error in %s: %v", path, err))
		return result
	}
	defer tree.Close()

	ex := &extractor{content: content, path: path}
	ex.visit(tree.RootNode(), "")
	result.Symbols = ex.symbols
	result.Dependencies = ex.dependencies

	a.cache.Add(path, cacheEntry{result: result, contentHash: hash})
	return result
}

// Cached returns the most recent successful result for a path, if any.
func (a *FileAnalyzer) Cached(path string) (*types.AnalysisResult, bool) {
	entry, ok := a.cache.Get(path)
	if !ok {
		return nil, false
	}
	return entry.result, true
}

// Invalidate drops the cached result for a path.
func (a *FileAnalyzer) Invalidate(path string) {
	a.cache.Remove(path)
}

// extractor accumulates symbols and dependencies during one tree walk.
type extractor struct {
	content      []byte
	path         string
	symbols      []types.Symbol
	dependencies []types.Dependency
}

// visit walks the tree depth-first. enclosingClass is non-empty only while
// visiting direct statements of a class body, which is what distinguishes a
// method from a function.
func (ex *extractor) visit(n *tree_sitter.Node, enclosingClass string) {
	if n == nil {
		return
	}

	switch pysrc.KindOf(n) {
	case pysrc.KindFunctionDef:
		ex.addFunction(n, enclosingClass)
		ex.visitChildren(n, "")
		return

	case pysrc.KindClassDef:
		ex.addClass(n)
		name := pysrc.FieldText(n, "name", ex.content)
		if body := n.ChildByFieldName("body"); body != nil {
			for _, c := range pysrc.NamedChildren(body) {
				ex.visit(c, name)
			}
		}
		return

	case pysrc.KindDecoratedDef:
		// Decorators wrap the definition; the class context passes through.
		ex.visitChildren(n, enclosingClass)
		return

	case pysrc.KindAssignment:
		ex.addVariable(n)

	case pysrc.KindImport:
		ex.addImports(n)

	case pysrc.KindImportFrom:
		ex.addFromImport(n)
	}

	ex.visitChildren(n, "")
}

func (ex *extractor) visitChildren(n *tree_sitter.Node, enclosingClass string) {
	for _, c := range pysrc.NamedChildren(n) {
		ex.visit(c, enclosingClass)
	}
}

func (ex *extractor) addFunction(n *tree_sitter.Node, enclosingClass string) {
	pos := n.StartPosition()
	kind := types.SymbolKindFunction
	if enclosingClass != "" {
		kind = types.SymbolKindMethod
	}
	ex.symbols = append(ex.symbols, types.Symbol{
		Name:      pysrc.FieldText(n, "name", ex.content),
		Kind:      kind,
		Line:      int(pos.Row) + 1,
		Column:    int(pos.Column),
		File:      ex.path,
		Docstring: pysrc.Docstring(n, ex.content),
		Parent:    enclosingClass,
		Signature: pysrc.Signature(n, ex.content),
	})
}

func (ex *extractor) addClass(n *tree_sitter.Node) {
	pos := n.StartPosition()
	ex.symbols = append(ex.symbols, types.Symbol{
		Name:      pysrc.FieldText(n, "name", ex.content),
		Kind:      types.SymbolKindClass,
		Line:      int(pos.Row) + 1,
		Column:    int(pos.Column),
		File:      ex.path,
		Docstring: pysrc.Docstring(n, ex.content),
	})
}

// addVariable records a name binding whose target is a plain identifier.
// Tuple unpacking and attribute targets are not symbols.
func (ex *extractor) addVariable(n *tree_sitter.Node) {
	left := n.ChildByFieldName("left")
	if left == nil || pysrc.KindOf(left) != pysrc.KindIdentifier {
		return
	}
	pos := n.StartPosition()
	ex.symbols = append(ex.symbols, types.Symbol{
		Name:   pysrc.Text(left, ex.content),
		Kind:   types.SymbolKindVariable,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column),
		File:   ex.path,
	})
}

// addImports handles "import a.b, c as d": one dependency per imported
// module, preserving declared aliases.
func (ex *extractor) addImports(n *tree_sitter.Node) {
	for _, c := range pysrc.NamedChildren(n) {
		switch c.Kind() {
		case "dotted_name":
			ex.dependencies = append(ex.dependencies, types.Dependency{
				Name: pysrc.Text(c, ex.content),
				File: ex.path,
			})
		case "aliased_import":
			ex.dependencies = append(ex.dependencies, types.Dependency{
				Name:  pysrc.FieldText(c, "name", ex.content),
				Alias: pysrc.FieldText(c, "alias", ex.content),
				File:  ex.path,
			})
		}
	}
}

// addFromImport handles "from mod import a, b as c": a single dependency
// bundling all imported member names in source order. Relative imports keep
// their leading dots so the dependency tree can classify them as internal.
func (ex *extractor) addFromImport(n *tree_sitter.Node) {
	module := n.ChildByFieldName("module_name")
	if module == nil {
		return
	}

	dep := types.Dependency{
		Name:         pysrc.Text(module, ex.content),
		IsFromImport: true,
		File:         ex.path,
	}

	children := pysrc.NamedChildren(n)
	for _, c := range children {
		if c.StartByte() == module.StartByte() {
			continue // the module_name itself
		}
		switch c.Kind() {
		case "dotted_name":
			dep.ImportedNames = append(dep.ImportedNames, pysrc.Text(c, ex.content))
		case "aliased_import":
			dep.ImportedNames = append(dep.ImportedNames, pysrc.FieldText(c, "name", ex.content))
		case "wildcard_import":
			dep.ImportedNames = append(dep.ImportedNames, "*")
		}
	}

	ex.dependencies = append(ex.dependencies, dep)
}
