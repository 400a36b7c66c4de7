package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pylens/pylens/internal/types"
)

func newTestAnalyzer(t *testing.T) *FileAnalyzer {
	t.Helper()
	a, err := NewFileAnalyzer(16)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func symbolNames(symbols []types.Symbol, kind types.SymbolKind) []string {
	var names []string
	for _, s := range symbols {
		if s.Kind == kind {
			names = append(names, s.Name)
		}
	}
	return names
}

func TestAnalyzeExtractsSymbols(t *testing.T) {
	a := newTestAnalyzer(t)
	path := writeFile(t, t.TempDir(), "sample.py", `"""Module docstring."""

VERSION = "1.0"

def greet(name: str) -> str:
    """Say hello."""
    return f"Hello {name}"

class Greeter:
    """Greets people."""

    def __init__(self, prefix):
        self.prefix = prefix

    def greet(self, name):
        return self.prefix + name

async def fetch(url):
    pass
`)

	result := a.Analyze(context.Background(), path)
	require.Empty(t, result.Errors)

	assert.ElementsMatch(t, []string{"greet", "fetch"}, symbolNames(result.Symbols, types.SymbolKindFunction))
	assert.ElementsMatch(t, []string{"__init__", "greet"}, symbolNames(result.Symbols, types.SymbolKindMethod))
	assert.Equal(t, []string{"Greeter"}, symbolNames(result.Symbols, types.SymbolKindClass))
	assert.Contains(t, symbolNames(result.Symbols, types.SymbolKindVariable), "VERSION")

	var greeter, greet types.Symbol
	for _, s := range result.Symbols {
		switch {
		case s.Name == "Greeter" && s.Kind == types.SymbolKindClass:
			greeter = s
		case s.Name == "greet" && s.Kind == types.SymbolKindFunction:
			greet = s
		}
	}
	assert.Equal(t, "Greets people.", greeter.Docstring)
	assert.Equal(t, "Say hello.", greet.Docstring)
	assert.Equal(t, "def greet(name: str) -> str", greet.Signature)

	for _, s := range result.Symbols {
		if s.Kind == types.SymbolKindMethod {
			assert.Equal(t, "Greeter", s.Parent)
		}
		assert.Equal(t, path, s.File)
		assert.Greater(t, s.Line, 0)
	}

	var fetch types.Symbol
	for _, s := range result.Symbols {
		if s.Name == "fetch" {
			fetch = s
		}
	}
	assert.Contains(t, fetch.Signature, "async def fetch(")
}

func TestAnalyzeExtractsDependencies(t *testing.T) {
	a := newTestAnalyzer(t)
	path := writeFile(t, t.TempDir(), "imports.py", `import os
import json as j
import os.path
from pathlib import Path, PurePath
from collections import OrderedDict as OD
from . import sibling
from ..pkg import thing
from typing import *
`)

	result := a.Analyze(context.Background(), path)
	require.Empty(t, result.Errors)

	byName := make(map[string]types.Dependency)
	for _, d := range result.Dependencies {
		byName[d.Name] = d
	}

	require.Contains(t, byName, "os")
	assert.False(t, byName["os"].IsFromImport)

	require.Contains(t, byName, "json")
	assert.Equal(t, "j", byName["json"].Alias)

	require.Contains(t, byName, "os.path")

	require.Contains(t, byName, "pathlib")
	assert.True(t, byName["pathlib"].IsFromImport)
	assert.Equal(t, []string{"Path", "PurePath"}, byName["pathlib"].ImportedNames)

	require.Contains(t, byName, "collections")
	assert.Equal(t, []string{"OrderedDict"}, byName["collections"].ImportedNames)

	require.Contains(t, byName, ".")
	assert.Equal(t, []string{"sibling"}, byName["."].ImportedNames)

	require.Contains(t, byName, "..pkg")
	assert.Equal(t, []string{"thing"}, byName["..pkg"].ImportedNames)

	require.Contains(t, byName, "typing")
	assert.Equal(t, []string{"*"}, byName["typing"].ImportedNames)
}

func TestAnalyzeMissingFile(t *testing.T) {
	a := newTestAnalyzer(t)
	path := filepath.Join(t.TempDir(), "gone.py")

	result := a.Analyze(context.Background(), path)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "File does not exist: "+path, result.Errors[0])
	assert.Empty(t, result.Symbols)
}

func TestAnalyzeNonPythonFile(t *testing.T) {
	a := newTestAnalyzer(t)
	path := writeFile(t, t.TempDir(), "notes.txt", "hello")

	result := a.Analyze(context.Background(), path)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Not a Python file: "+path, result.Errors[0])
}

func TestAnalyzeSyntaxErrorSingleEntry(t *testing.T) {
	a := newTestAnalyzer(t)
	path := writeFile(t, t.TempDir(), "broken.py", "def broken(:\n    pass\n")

	result := a.Analyze(context.Background(), path)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Syntax error in "+path)
	assert.Empty(t, result.Symbols)
	assert.Empty(t, result.Dependencies)
}

func TestAnalyzeUnchangedContentServedFromCache(t *testing.T) {
	a := newTestAnalyzer(t)
	path := writeFile(t, t.TempDir(), "cached.py", "def f():\n    pass\n")

	first := a.Analyze(context.Background(), path)
	second := a.Analyze(context.Background(), path)
	assert.Same(t, first, second)

	// Changed content produces a fresh result.
	require.NoError(t, os.WriteFile(path, []byte("def g():\n    pass\n"), 0644))
	third := a.Analyze(context.Background(), path)
	assert.NotSame(t, first, third)
	assert.Equal(t, []string{"g"}, symbolNames(third.Symbols, types.SymbolKindFunction))
}

func TestAnalyzeNestedFunctionsKeepFunctionKind(t *testing.T) {
	a := newTestAnalyzer(t)
	path := writeFile(t, t.TempDir(), "nested.py", `class Outer:
    def method(self):
        def inner():
            pass
        return inner
`)

	result := a.Analyze(context.Background(), path)
	require.Empty(t, result.Errors)

	assert.Equal(t, []string{"method"}, symbolNames(result.Symbols, types.SymbolKindMethod))
	assert.Equal(t, []string{"inner"}, symbolNames(result.Symbols, types.SymbolKindFunction))
}

func TestAnalyzeDecoratedDefinitions(t *testing.T) {
	a := newTestAnalyzer(t)
	path := writeFile(t, t.TempDir(), "decorated.py", `import functools

@functools.cache
def memoized():
    pass

class Service:
    @property
    def value(self):
        return 1
`)

	result := a.Analyze(context.Background(), path)
	require.Empty(t, result.Errors)

	assert.Equal(t, []string{"memoized"}, symbolNames(result.Symbols, types.SymbolKindFunction))
	assert.Equal(t, []string{"value"}, symbolNames(result.Symbols, types.SymbolKindMethod))
}
