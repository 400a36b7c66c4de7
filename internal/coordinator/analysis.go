package coordinator

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pylens/pylens/internal/types"
)

// ignoredDirs are directory names skipped during source discovery.
var ignoredDirs = map[string]bool{
	"__pycache__":   true,
	".git":          true,
	".venv":         true,
	"venv":          true,
	"node_modules":  true,
	".tox":          true,
	".pytest_cache": true,
	".mypy_cache":   true,
	"dist":          true,
	"build":         true,
}

// skipDir reports whether a directory should be excluded from discovery.
func skipDir(name string) bool {
	return ignoredDirs[name] || strings.HasSuffix(name, ".egg-info")
}

// discoverSources walks the project tree collecting Python file paths,
// pruning ignored directories. Files larger than maxSize are skipped.
func discoverSources(root string, maxSize int64) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}
		if maxSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > maxSize {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// analyzeProject runs a full scan of the project: every Python file is
// analyzed and linted concurrently, and documentation is rescanned. On
// success the project's maps are replaced wholesale and an
// analysis_complete event is emitted; on failure the previous results are
// left untouched and an analysis_error event is emitted.
func (c *Coordinator) analyzeProject(ctx context.Context, project *Project) error {
	project.mu.Lock()
	project.analyzing = true
	project.mu.Unlock()
	defer func() {
		project.mu.Lock()
		project.analyzing = false
		project.mu.Unlock()
	}()

	err := c.runFullAnalysis(ctx, project)
	if err != nil {
		c.emit(types.EventAnalysisError, types.EventPayload{
			"project": project.Name,
			"error":   err.Error(),
		})
		return err
	}
	return nil
}

func (c *Coordinator) runFullAnalysis(ctx context.Context, project *Project) error {
	paths, err := discoverSources(project.Root, c.cfg.Analysis.MaxFileSize)
	if err != nil {
		return fmt.Errorf("discovering sources in %s: %w", project.Root, err)
	}

	analyses := make(map[string]*types.AnalysisResult, len(paths))
	lints := make(map[string]*types.LintResult, len(paths))
	var mu sync.Mutex

	sem := semaphore.NewWeighted(int64(c.cfg.Analysis.MaxConcurrentFiles))
	var wg sync.WaitGroup
	for _, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)
			analysis := c.analyzer.Analyze(ctx, path)
			lint := c.linter.Lint(ctx, path)
			mu.Lock()
			analyses[path] = analysis
			lints[path] = lint
			mu.Unlock()
		}(path)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	documents, err := c.docIndex.ScanProject(ctx, project.Root)
	if err != nil {
		return fmt.Errorf("scanning documentation in %s: %w", project.Root, err)
	}

	symbols, dependencies, diagnostics := 0, 0, 0
	for _, result := range analyses {
		symbols += len(result.Symbols)
		dependencies += len(result.Dependencies)
	}
	for _, result := range lints {
		diagnostics += len(result.Diagnostics)
	}

	project.mu.Lock()
	project.analyses = analyses
	project.lints = lints
	project.docs = documents
	project.lastAnalysis = time.Now()
	project.mu.Unlock()

	c.logger.Printf("Analyzed project %q: %d files, %d symbols, %d diagnostics",
		project.Name, len(analyses), symbols, diagnostics)

	c.emit(types.EventAnalysisComplete, types.EventPayload{
		"project":        project.Name,
		"files_analyzed": len(analyses),
		"docs_found":     len(documents),
		"symbols":        symbols,
		"dependencies":   dependencies,
		"diagnostics":    diagnostics,
	})
	return nil
}

// reanalyzeFile refreshes a single source file after a change event.
func (c *Coordinator) reanalyzeFile(ctx context.Context, project *Project, path string) {
	c.analyzer.Invalidate(path)
	c.linter.Invalidate(path)
	analysis := c.analyzer.Analyze(ctx, path)
	lint := c.linter.Lint(ctx, path)

	project.mu.Lock()
	project.analyses[path] = analysis
	project.lints[path] = lint
	project.mu.Unlock()

	c.emit(types.EventFileUpdated, types.EventPayload{
		"project":      project.Name,
		"file":         path,
		"symbols":      len(analysis.Symbols),
		"dependencies": len(analysis.Dependencies),
		"diagnostics":  len(lint.Diagnostics),
	})
}

// forgetFile drops a deleted source file's results.
func (c *Coordinator) forgetFile(project *Project, path string) {
	c.analyzer.Invalidate(path)
	c.linter.Invalidate(path)

	project.mu.Lock()
	delete(project.analyses, path)
	delete(project.lints, path)
	project.mu.Unlock()

	c.emit(types.EventFileDeleted, types.EventPayload{
		"project": project.Name,
		"file":    path,
	})
}

// refreshDoc re-reads a documentation file after a change event.
func (c *Coordinator) refreshDoc(project *Project, path string) {
	c.docIndex.Invalidate(path)
	doc := c.docIndex.Read(path)

	project.mu.Lock()
	project.docs[path] = doc
	project.mu.Unlock()

	c.emit(types.EventDocUpdated, types.EventPayload{
		"project": project.Name,
		"file":    path,
		"title":   doc.Title,
	})
}

// forgetDoc drops a deleted documentation file.
func (c *Coordinator) forgetDoc(project *Project, path string) {
	c.docIndex.Invalidate(path)

	project.mu.Lock()
	delete(project.docs, path)
	project.mu.Unlock()

	c.emit(types.EventDocDeleted, types.EventPayload{
		"project": project.Name,
		"file":    path,
	})
}
