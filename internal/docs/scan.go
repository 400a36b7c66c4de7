package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/semaphore"

	"github.com/pylens/pylens/internal/types"
)

// docDirPatterns locate documentation trees below a project root.
var docDirPatterns = []string{
	"docs/**/*.{md,rst,txt,markdown}",
	"doc/**/*.{md,rst,txt,markdown}",
}

// maxConcurrentReads bounds parallel document parsing during a scan.
const maxConcurrentReads = 10

// ScanProject discovers and parses all documentation under root: well-known
// files at the root itself (README, CHANGELOG and friends, matched
// case-insensitively) plus anything with a documentation extension inside
// docs/ or doc/. The returned map is keyed by absolute file path.
func (ix *Indexer) ScanProject(ctx context.Context, root string) (map[string]*types.DocFile, error) {
	paths, err := discoverDocs(root)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*types.DocFile, len(paths))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(maxConcurrentReads)

	for _, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)
			doc := ix.Read(path)
			mu.Lock()
			results[path] = doc
			mu.Unlock()
		}(path)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// discoverDocs lists documentation file paths for a project without reading
// them.
func discoverDocs(root string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !seen[abs] {
			seen[abs] = true
			paths = append(paths, abs)
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if wellKnownNames[name] || docExtensions[filepath.Ext(name)] {
			add(filepath.Join(root, entry.Name()))
		}
	}

	fsys := os.DirFS(root)
	for _, pattern := range docDirPatterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			continue
		}
		for _, rel := range matches {
			add(filepath.Join(root, filepath.FromSlash(rel)))
		}
	}

	return paths, nil
}
