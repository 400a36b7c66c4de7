package linter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pylens/pylens/internal/types"
)

func newTestLinter(t *testing.T) *FileLinter {
	t.Helper()
	l, err := NewFileLinter(16)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func lintSource(t *testing.T, l *FileLinter, source string) *types.LintResult {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.py")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))
	return l.Lint(context.Background(), path)
}

func diagsWithCode(result *types.LintResult, code string) []types.Diagnostic {
	var out []types.Diagnostic
	for _, d := range result.Diagnostics {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func TestLintSyntaxError(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, "def broken(:\n    pass\n")

	diags := diagsWithCode(result, CodeSyntaxError)
	require.Len(t, diags, 1)
	assert.Equal(t, types.SeverityError, diags[0].Severity)
	assert.Equal(t, SourceSyntax, diags[0].Source)
	assert.Contains(t, diags[0].Message, "Syntax error")
}

func TestLintUnusedImport(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, `import os
import json
from pathlib import Path

print(json.dumps({}))
p = Path(".")
`)

	diags := diagsWithCode(result, CodeUnusedImport)
	require.Len(t, diags, 1)
	assert.Equal(t, "'os' imported but unused", diags[0].Message)
	assert.Equal(t, types.SeverityWarning, diags[0].Severity)
	assert.Equal(t, SourceUnusedImport, diags[0].Source)
	assert.Equal(t, 1, diags[0].Line)
}

func TestLintUnusedImportIgnoresUnderscore(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, "import os as _os\n")

	assert.Empty(t, diagsWithCode(result, CodeUnusedImport))
}

func TestLintAliasCountsAsUsage(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, "import numpy as np\n\nx = np.zeros(3)\n")

	assert.Empty(t, diagsWithCode(result, CodeUnusedImport))
}

func TestLintAttributeAccessIsNotUsage(t *testing.T) {
	// obj.json must not count as a use of an imported json module.
	l := newTestLinter(t)
	result := lintSource(t, l, `import json

def handle(resp):
    return resp.json()
`)

	diags := diagsWithCode(result, CodeUnusedImport)
	require.Len(t, diags, 1)
	assert.Equal(t, "'json' imported but unused", diags[0].Message)
}

func TestLintLineTooLong(t *testing.T) {
	l := newTestLinter(t)
	long := "x = \"" + strings.Repeat("a", 130) + "\"\n"
	result := lintSource(t, l, long)

	diags := diagsWithCode(result, CodeLineTooLong)
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, 121, diags[0].Column)
	assert.Equal(t, types.SeverityInfo, diags[0].Severity)
}

func TestLintTrailingWhitespace(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, "x = 1   \ny = 2\n")

	diags := diagsWithCode(result, CodeTrailingSpace)
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, "Trailing whitespace", diags[0].Message)
}

func TestLintTabIndentation(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, "def f():\n\treturn 1\n")

	diags := diagsWithCode(result, CodeTabIndent)
	require.Len(t, diags, 1)
	assert.Equal(t, 2, diags[0].Line)
}

func TestLintBareExcept(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, `try:
    risky()
except:
    pass
`)

	diags := diagsWithCode(result, CodeBareExcept)
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Line)
	assert.Equal(t, types.SeverityWarning, diags[0].Severity)

	// Typed except clauses are fine.
	typed := lintSource(t, l, "try:\n    risky()\nexcept ValueError:\n    pass\n")
	assert.Empty(t, diagsWithCode(typed, CodeBareExcept))
}

func TestLintTooManyArguments(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, "def wide(a, b, c, d, e, f, g, h):\n    pass\n")

	diags := diagsWithCode(result, CodeTooManyArgs)
	require.Len(t, diags, 1)
	assert.Equal(t, "Function 'wide' has too many arguments (8 > 7)", diags[0].Message)

	ok := lintSource(t, l, "def narrow(a, b, c, d, e, f):\n    pass\n")
	assert.Empty(t, diagsWithCode(ok, CodeTooManyArgs))
}

func TestLintFunctionTooLong(t *testing.T) {
	l := newTestLinter(t)
	var b strings.Builder
	b.WriteString("def long_one():\n")
	for i := 0; i < 55; i++ {
		b.WriteString("    x = 1\n")
	}
	result := lintSource(t, l, b.String())

	diags := diagsWithCode(result, CodeFunctionTooLong)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'long_one' is too long")
	assert.Equal(t, types.SeverityInfo, diags[0].Severity)
}

func TestLintDeepNesting(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, `def deep(items):
    for a in items:
        for b in a:
            if b:
                while b:
                    if b > 1:
                        return b
`)

	diags := diagsWithCode(result, CodeTooMuchNesting)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'deep' has too much nesting")

	shallow := lintSource(t, l, `def shallow(items):
    for a in items:
        if a:
            return a
`)
	assert.Empty(t, diagsWithCode(shallow, CodeTooMuchNesting))
}

func TestLintTypeHints(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, `def plain(value):
    return value
`)

	returns := diagsWithCode(result, CodeMissingReturn)
	require.Len(t, returns, 1)
	assert.Equal(t, "Function 'plain' missing return type annotation", returns[0].Message)
	assert.Equal(t, types.SeverityHint, returns[0].Severity)

	args := diagsWithCode(result, CodeMissingArgHint)
	require.Len(t, args, 1)
	assert.Equal(t, "Argument 'value' in function 'plain' missing type annotation", args[0].Message)
}

func TestLintTypeHintsSkipsDunderInitReturn(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, `class C:
    def __init__(self, size: int):
        self.size = size
`)

	assert.Empty(t, diagsWithCode(result, CodeMissingReturn))
	assert.Empty(t, diagsWithCode(result, CodeMissingArgHint))
}

func TestLintTypeHintsSkipsSelfAndPrivate(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, `class C:
    def method(self, flag: bool) -> bool:
        return flag

def _helper(value):
    return value
`)

	assert.Empty(t, diagsWithCode(result, CodeMissingReturn))
	assert.Empty(t, diagsWithCode(result, CodeMissingArgHint))
}

func TestLintCleanFile(t *testing.T) {
	l := newTestLinter(t)
	result := lintSource(t, l, `import json


def dump(data: dict) -> str:
    return json.dumps(data)
`)

	assert.Empty(t, result.Diagnostics)
	assert.Empty(t, result.Errors)
}

func TestLintMissingFile(t *testing.T) {
	l := newTestLinter(t)
	path := filepath.Join(t.TempDir(), "gone.py")

	result := l.Lint(context.Background(), path)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "File does not exist: "+path, result.Errors[0])
}

func TestLintCachedResultReused(t *testing.T) {
	l := newTestLinter(t)
	path := filepath.Join(t.TempDir(), "cached.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0644))

	first := l.Lint(context.Background(), path)
	second := l.Lint(context.Background(), path)
	assert.Same(t, first, second)
}
