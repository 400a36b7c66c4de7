package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pylens/pylens/internal/config"
	"github.com/pylens/pylens/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(watch bool) *config.Config {
	cfg := config.Default()
	cfg.Watch.Enabled = watch
	cfg.Watch.DebounceMs = 20
	return cfg
}

func newTestCoordinator(t *testing.T, watch bool) *Coordinator {
	t.Helper()
	coord, err := New(testConfig(watch), nil)
	require.NoError(t, err)
	t.Cleanup(coord.Close)
	return coord
}

func writeProjectFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func sampleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeProjectFile(t, root, "main.py", `import requests
from helper import compute

def main() -> None:
    compute(requests.get("http://example.com"))
`)
	writeProjectFile(t, root, "helper.py", `def compute(value):
    return value
`)
	writeProjectFile(t, root, "README.md", "# Sample\n\nA sample project.\n")
	writeProjectFile(t, root, filepath.Join("__pycache__", "junk.py"), "x = 1\n")
	return root
}

func TestRegisterAnalyzesProject(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)

	info, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	assert.Equal(t, "sample", info.Name)
	assert.Equal(t, root, info.Path)
	assert.Equal(t, 2, info.FilesAnalyzed) // __pycache__ is skipped
	assert.Equal(t, 1, info.DocsFound)
	assert.Equal(t, 2, info.TotalSymbols)
	assert.False(t, info.IsWatching)
}

func TestRegisterMissingPath(t *testing.T) {
	coord := newTestCoordinator(t, false)

	_, err := coord.Register(context.Background(), filepath.Join(t.TempDir(), "missing"), "")
	assert.ErrorContains(t, err, "does not exist")
}

func TestRegisterFileNotDirectory(t *testing.T) {
	coord := newTestCoordinator(t, false)
	path := writeProjectFile(t, t.TempDir(), "file.py", "x = 1\n")

	_, err := coord.Register(context.Background(), path, "")
	assert.ErrorContains(t, err, "not a directory")
}

func TestRegisterIsIdempotent(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)

	first, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)
	second, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, coord.List(), 1)
}

func TestRegisterSameBasenameDistinctPaths(t *testing.T) {
	coord := newTestCoordinator(t, false)
	rootOne := filepath.Join(t.TempDir(), "mylib")
	rootTwo := filepath.Join(t.TempDir(), "mylib")
	require.NoError(t, os.MkdirAll(rootOne, 0755))
	require.NoError(t, os.MkdirAll(rootTwo, 0755))
	writeProjectFile(t, rootOne, "a.py", "def a():\n    pass\n")
	writeProjectFile(t, rootTwo, "b.py", "def b():\n    pass\n")

	first, err := coord.Register(context.Background(), rootOne, "")
	require.NoError(t, err)
	assert.Equal(t, "mylib", first.Name)

	second, err := coord.Register(context.Background(), rootTwo, "")
	require.NoError(t, err)
	assert.Equal(t, "mylib-2", second.Name)
	assert.Equal(t, rootTwo, second.Path)
	assert.Equal(t, 1, second.FilesAnalyzed)
	assert.Len(t, coord.List(), 2)
}

func TestRegisterExplicitNameCollision(t *testing.T) {
	coord := newTestCoordinator(t, false)
	rootOne := sampleProject(t)
	rootTwo := sampleProject(t)

	_, err := coord.Register(context.Background(), rootOne, "sample")
	require.NoError(t, err)

	_, err = coord.Register(context.Background(), rootTwo, "sample")
	assert.ErrorContains(t, err, "project name already in use")
	assert.Len(t, coord.List(), 1)
}

func TestRegisterNameFromPyproject(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := t.TempDir()
	writeProjectFile(t, root, "pyproject.toml", "[project]\nname = \"fancy-name\"\n")
	writeProjectFile(t, root, "app.py", "x = 1\n")

	info, err := coord.Register(context.Background(), root, "")
	require.NoError(t, err)
	assert.Equal(t, "fancy-name", info.Name)
}

func TestAnalysisCompleteEvent(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)

	var mu sync.Mutex
	var events []string
	var payload types.EventPayload
	coord.Subscribe(func(event string, p types.EventPayload) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		if event == types.EventAnalysisComplete {
			payload = p
		}
	})

	_, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, events, types.EventAnalysisComplete)
	assert.Equal(t, "sample", payload["project"])
	assert.Equal(t, 2, payload["files_analyzed"])
	assert.Equal(t, 1, payload["docs_found"])
	assert.Equal(t, 2, payload["symbols"])
	assert.Equal(t, 2, payload["dependencies"])
}

func TestRefreshPicksUpNewFiles(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)

	info, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)
	require.Equal(t, 2, info.FilesAnalyzed)

	writeProjectFile(t, root, "extra.py", "def extra():\n    pass\n")

	info, err = coord.Refresh(context.Background(), "sample")
	require.NoError(t, err)
	assert.Equal(t, 3, info.FilesAnalyzed)
	assert.Equal(t, 3, info.TotalSymbols)
}

func TestSymbolQueries(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)
	_, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	all, err := coord.Symbols("sample", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	functions, err := coord.Symbols("sample", "function", "")
	require.NoError(t, err)
	assert.Len(t, functions, 2)

	classes, err := coord.Symbols("sample", "class", "")
	require.NoError(t, err)
	assert.Empty(t, classes)

	filtered, err := coord.Symbols("sample", "", "COMP")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "compute", filtered[0].Name)
}

func TestSymbolInfoSuggestions(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)
	_, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	matches, suggestions, err := coord.SymbolInfo("sample", "compute")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Empty(t, suggestions)

	matches, suggestions, err = coord.SymbolInfo("sample", "comput")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Contains(t, suggestions, "compute")
}

func TestDependenciesDedupAndExternalOnly(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := t.TempDir()
	writeProjectFile(t, root, "a.py", "import os\nimport requests\nfrom helper import go\n")
	writeProjectFile(t, root, "b.py", "import requests\nfrom . import a\n")
	writeProjectFile(t, root, "helper.py", "def go():\n    pass\n")

	_, err := coord.Register(context.Background(), root, "deps")
	require.NoError(t, err)

	all, err := coord.Dependencies("deps", false)
	require.NoError(t, err)
	names := depNames(all)
	assert.ElementsMatch(t, []string{"os", "requests", "helper", "."}, names)

	external, err := coord.Dependencies("deps", true)
	require.NoError(t, err)
	// os is stdlib and "." is relative; helper is not recognized as stdlib
	// so it survives this coarse filter.
	assert.ElementsMatch(t, []string{"requests", "helper"}, depNames(external))
}

func depNames(deps []types.Dependency) []string {
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Name)
	}
	return names
}

func TestDependencyTreeClassification(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := t.TempDir()
	writeProjectFile(t, root, "main.py", "import requests\nimport helper\n\ndef run():\n    pass\n")
	writeProjectFile(t, root, "helper.py", "def _hidden():\n    pass\n\ndef visible():\n    pass\n")

	_, err := coord.Register(context.Background(), root, "tree")
	require.NoError(t, err)

	tree, err := coord.DependencyTree("tree")
	require.NoError(t, err)

	assert.Equal(t, root, tree.Project)
	assert.Equal(t, []string{"requests"}, tree.ExternalDependencies)
	assert.Equal(t, []string{"helper"}, tree.InternalModules)

	main := tree.Files["main.py"]
	require.Len(t, main.Imports, 2)
	require.Len(t, main.Exports, 1)
	assert.Equal(t, "run", main.Exports[0].Name)

	helper := tree.Files["helper.py"]
	require.Len(t, helper.Exports, 1)
	assert.Equal(t, "visible", helper.Exports[0].Name)
}

func TestDiagnosticsAndSummary(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := t.TempDir()
	writeProjectFile(t, root, "messy.py", "import os\n\ndef f(x):\n    return x\n")

	_, err := coord.Register(context.Background(), root, "messy")
	require.NoError(t, err)

	all, err := coord.Diagnostics("messy", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	warnings, err := coord.Diagnostics("messy", types.SeverityWarning, "")
	require.NoError(t, err)
	for _, d := range warnings {
		assert.Equal(t, types.SeverityWarning, d.Severity)
	}

	summary, err := coord.LintSummary("messy")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesLinted)
	assert.Equal(t, len(all), summary.TotalDiagnostics)
	assert.Equal(t, 1, summary.BySeverity[types.SeverityWarning]) // unused os
	assert.Equal(t, summary.BySource["unused-import"], 1)
}

func TestDocsAndSearch(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)
	_, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	documents, err := coord.Docs("sample")
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, "Sample", documents[0].Title)

	doc, err := coord.Doc("sample", "README.md")
	require.NoError(t, err)
	assert.Equal(t, "Sample", doc.Title)

	matches, err := coord.SearchDocs("sample", "sample project", false)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Sample", matches[0].Section)

	_, err = coord.Doc("sample", "missing.md")
	assert.Error(t, err)
}

func TestResolveByNameAndPath(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)
	_, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	byName, err := coord.Resolve("sample")
	require.NoError(t, err)
	byPath, err := coord.Resolve(root)
	require.NoError(t, err)
	assert.Same(t, byName, byPath)

	_, err = coord.Resolve("unknown")
	assert.Error(t, err)
}

func TestRemoveProject(t *testing.T) {
	coord := newTestCoordinator(t, false)
	root := sampleProject(t)
	_, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	require.NoError(t, coord.Remove("sample"))
	assert.Empty(t, coord.List())
	assert.Error(t, coord.Remove("sample"))
}

func TestWatcherReanalyzesChangedFile(t *testing.T) {
	coord := newTestCoordinator(t, true)
	root := sampleProject(t)

	var mu sync.Mutex
	updated := make(map[string]types.EventPayload)
	coord.Subscribe(func(event string, payload types.EventPayload) {
		mu.Lock()
		defer mu.Unlock()
		if event == types.EventFileUpdated {
			if file, ok := payload["file"].(string); ok {
				updated[file] = payload
			}
		}
	})

	info, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)
	require.True(t, info.IsWatching)

	target := filepath.Join(root, "helper.py")
	require.NoError(t, os.WriteFile(target, []byte("import json\n\ndef compute(value: str) -> str:\n    return json.dumps(value)\n\ndef second() -> None:\n    pass\n"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return updated[target] != nil
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	payload := updated[target]
	mu.Unlock()
	assert.Equal(t, "sample", payload["project"])
	assert.Equal(t, 2, payload["symbols"])
	assert.Equal(t, 1, payload["dependencies"])
	assert.Equal(t, 0, payload["diagnostics"])

	symbols, err := coord.Symbols("sample", "", "second")
	require.NoError(t, err)
	assert.Len(t, symbols, 1)
}

func TestWatcherForgetsDeletedFile(t *testing.T) {
	coord := newTestCoordinator(t, true)
	root := sampleProject(t)

	var mu sync.Mutex
	deleted := false
	coord.Subscribe(func(event string, payload types.EventPayload) {
		mu.Lock()
		defer mu.Unlock()
		if event == types.EventFileDeleted {
			deleted = true
		}
	})

	_, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "helper.py")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return deleted
	}, 5*time.Second, 20*time.Millisecond)

	info, err := coord.Resolve("sample")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Info().FilesAnalyzed)
}

func TestWatcherHandlesDocChanges(t *testing.T) {
	coord := newTestCoordinator(t, true)
	root := sampleProject(t)

	var mu sync.Mutex
	var docTitle string
	coord.Subscribe(func(event string, payload types.EventPayload) {
		mu.Lock()
		defer mu.Unlock()
		if event == types.EventDocUpdated {
			docTitle, _ = payload["title"].(string)
		}
	})

	_, err := coord.Register(context.Background(), root, "sample")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# Renamed\n\nNew body.\n"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return docTitle == "Renamed"
	}, 5*time.Second, 20*time.Millisecond)
}
