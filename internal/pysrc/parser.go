// Package pysrc wraps the tree-sitter Python grammar behind a small parsing
// surface used by the analyzer and the linter. Both components parse
// independently; a parse failure in one pass cannot corrupt the other.
package pysrc

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// SyntaxError reports the first syntax problem found in a parsed file.
// Line and Column are 1-based.
type SyntaxError struct {
	Line   int
	Column int
	Detail string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Detail)
}

// Parser parses Python source into tree-sitter trees. A Parser is safe for
// concurrent use; the underlying tree-sitter parser is not, so calls are
// serialized.
type Parser struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
}

// NewParser creates a parser configured with the Python grammar.
func NewParser() (*Parser, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set Python language: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parser.Close()
}

// Parse parses content and returns the syntax tree. If the grammar reports
// an error anywhere in the tree, the tree is released and a *SyntaxError
// describing the first problem is returned instead. The caller owns the
// returned tree and must Close it.
func (p *Parser) Parse(content []byte) (tree *tree_sitter.Tree, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The tree-sitter C library can mutate input buffers via CGO, so parse a
	// defensive copy. A panic inside the CGO boundary is converted into a
	// syntax error rather than taking down the batch.
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = &SyntaxError{Line: 1, Column: 1, Detail: fmt.Sprintf("parser panic: %v", r)}
		}
	}()

	buf := make([]byte, len(content))
	copy(buf, content)

	t := p.parser.Parse(buf, nil)
	if t == nil || t.RootNode() == nil {
		if t != nil {
			t.Close()
		}
		return nil, &SyntaxError{Line: 1, Column: 1, Detail: "parse produced no tree"}
	}

	root := t.RootNode()
	if root.HasError() {
		serr := firstSyntaxError(root, buf)
		t.Close()
		return nil, serr
	}
	return t, nil
}

// firstSyntaxError locates the first ERROR or missing node in source order.
func firstSyntaxError(root *tree_sitter.Node, content []byte) *SyntaxError {
	var found *SyntaxError
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		if n == nil || found != nil {
			return
		}
		if n.IsError() || n.IsMissing() {
			pos := n.StartPosition()
			detail := "invalid syntax"
			if n.IsMissing() {
				detail = fmt.Sprintf("missing %s", n.Kind())
			}
			found = &SyntaxError{
				Line:   int(pos.Row) + 1,
				Column: int(pos.Column) + 1,
				Detail: detail,
			}
			return
		}
		if !n.HasError() {
			return // no error anywhere below, skip the subtree
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
			if found != nil {
				return
			}
		}
	}
	visit(root)
	if found == nil {
		// HasError was set but no ERROR node surfaced; report the root.
		found = &SyntaxError{Line: 1, Column: 1, Detail: "invalid syntax"}
	}
	return found
}
