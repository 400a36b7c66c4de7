package pysrc

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// NodeKind is the closed set of Python constructs the analyzer and linter
// dispatch on. Every other grammar node maps to KindOther, which keeps the
// recognized constructs explicit at each switch site.
type NodeKind uint8

const (
	KindOther NodeKind = iota
	KindFunctionDef
	KindClassDef
	KindAssignment
	KindImport
	KindImportFrom
	KindIf
	KindElif
	KindFor
	KindWhile
	KindWith
	KindTry
	KindExcept
	KindIdentifier
	KindAttribute
	KindKeywordArgument
	KindString
	KindBlock
	KindExpressionStatement
	KindDecoratedDef
)

// KindOf maps a tree-sitter node to its NodeKind.
func KindOf(n *tree_sitter.Node) NodeKind {
	if n == nil {
		return KindOther
	}
	switch n.Kind() {
	case "function_definition":
		return KindFunctionDef
	case "class_definition":
		return KindClassDef
	case "assignment":
		return KindAssignment
	case "import_statement":
		return KindImport
	case "import_from_statement":
		return KindImportFrom
	case "if_statement":
		return KindIf
	case "elif_clause":
		return KindElif
	case "for_statement":
		return KindFor
	case "while_statement":
		return KindWhile
	case "with_statement":
		return KindWith
	case "try_statement":
		return KindTry
	case "except_clause":
		return KindExcept
	case "identifier":
		return KindIdentifier
	case "attribute":
		return KindAttribute
	case "keyword_argument":
		return KindKeywordArgument
	case "string":
		return KindString
	case "block":
		return KindBlock
	case "expression_statement":
		return KindExpressionStatement
	case "decorated_definition":
		return KindDecoratedDef
	default:
		return KindOther
	}
}

// IsControlFlow reports whether the kind opens a new nesting level for the
// complexity depth check: conditionals, loops, resource scopes, and
// exception handling.
func (k NodeKind) IsControlFlow() bool {
	switch k {
	case KindIf, KindElif, KindFor, KindWhile, KindWith, KindTry, KindExcept:
		return true
	default:
		return false
	}
}
