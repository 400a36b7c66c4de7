package pysrc

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Text returns the source text covered by a node.
func Text(n *tree_sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	start, end := int(n.StartByte()), int(n.EndByte())
	if start < 0 || end > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// FieldText returns the text of a named field child, or "" when absent.
func FieldText(n *tree_sitter.Node, field string, content []byte) string {
	if n == nil {
		return ""
	}
	return Text(n.ChildByFieldName(field), content)
}

// NamedChildren collects the named children of a node.
func NamedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	children := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			children = append(children, c)
		}
	}
	return children
}

// IsAsync reports whether a function_definition carries the async keyword.
func IsAsync(n *tree_sitter.Node) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "async":
			return true
		case "def":
			return false
		}
	}
	return false
}

// Param is one entry of a function's parameter list.
type Param struct {
	Name       string
	Annotation string
	KwOnly     bool // declared after a bare * or *args
	Splat      bool // *args or **kwargs
}

// Parameters flattens the parameter list of a function_definition in source
// order. Separator markers (* and /) are consumed, not returned.
func Parameters(fn *tree_sitter.Node, content []byte) []Param {
	paramList := fn.ChildByFieldName("parameters")
	if paramList == nil {
		return nil
	}

	var params []Param
	kwOnly := false
	for _, c := range NamedChildren(paramList) {
		switch c.Kind() {
		case "identifier":
			params = append(params, Param{Name: Text(c, content), KwOnly: kwOnly})
		case "typed_parameter":
			p := Param{Annotation: FieldText(c, "type", content), KwOnly: kwOnly}
			if inner := c.NamedChild(0); inner != nil {
				p.Name = Text(inner, content)
				p.Splat = inner.Kind() == "list_splat_pattern" || inner.Kind() == "dictionary_splat_pattern"
			}
			params = append(params, p)
		case "default_parameter":
			params = append(params, Param{
				Name:   FieldText(c, "name", content),
				KwOnly: kwOnly,
			})
		case "typed_default_parameter":
			params = append(params, Param{
				Name:       FieldText(c, "name", content),
				Annotation: FieldText(c, "type", content),
				KwOnly:     kwOnly,
			})
		case "list_splat_pattern":
			kwOnly = true
			params = append(params, Param{Name: "*" + Text(c.NamedChild(0), content), Splat: true})
		case "dictionary_splat_pattern":
			params = append(params, Param{Name: "**" + Text(c.NamedChild(0), content), Splat: true})
		case "keyword_separator":
			kwOnly = true
		case "positional_separator":
			// "/" marker, nothing to record
		}
	}
	return params
}

// Signature renders a human-readable declaration string for a function or
// method: "def name(a, b: int) -> str", prefixed with "async " when the
// declaration is asynchronous. Only positional parameters appear, matching
// how signatures are displayed elsewhere in the pipeline.
func Signature(fn *tree_sitter.Node, content []byte) string {
	name := FieldText(fn, "name", content)

	var args []string
	for _, p := range Parameters(fn, content) {
		if p.Splat || p.KwOnly {
			continue
		}
		arg := p.Name
		if p.Annotation != "" {
			arg += ": " + p.Annotation
		}
		args = append(args, arg)
	}

	returns := ""
	if ret := FieldText(fn, "return_type", content); ret != "" {
		returns = " -> " + ret
	}

	prefix := ""
	if IsAsync(fn) {
		prefix = "async "
	}
	return prefix + "def " + name + "(" + strings.Join(args, ", ") + ")" + returns
}

// Docstring extracts the leading string-literal docstring of a function or
// class body, cleaned of quotes and common indentation. Returns "" when the
// body does not start with a string literal.
func Docstring(n *tree_sitter.Node, content []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil || KindOf(body) != KindBlock {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || KindOf(first) != KindExpressionStatement {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || KindOf(str) != KindString {
		return ""
	}
	return cleanDocstring(Text(str, content))
}

// cleanDocstring strips string prefixes and quotes, then normalizes
// indentation the way inspect.cleandoc does.
func cleanDocstring(raw string) string {
	s := strings.TrimLeft(raw, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			s = s[len(q) : len(s)-len(q)]
			break
		}
	}

	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return strings.TrimSpace(lines[0])
	}

	// Common indentation across continuation lines.
	indent := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		lead := len(line) - len(trimmed)
		if indent < 0 || lead < indent {
			indent = lead
		}
	}

	out := []string{strings.TrimSpace(lines[0])}
	for _, line := range lines[1:] {
		if indent > 0 && len(line) >= indent {
			line = line[indent:]
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}
