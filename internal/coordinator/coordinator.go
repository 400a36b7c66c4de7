// Package coordinator owns project state: which projects are registered,
// their analysis, lint, and documentation results, file watching, and event
// delivery to observers.
package coordinator

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pylens/pylens/internal/analyzer"
	"github.com/pylens/pylens/internal/config"
	"github.com/pylens/pylens/internal/docs"
	"github.com/pylens/pylens/internal/linter"
	"github.com/pylens/pylens/internal/types"
)

// Project holds everything known about one registered project. All maps are
// keyed by absolute file path.
type Project struct {
	Name string
	Root string

	mu           sync.RWMutex
	analyses     map[string]*types.AnalysisResult
	lints        map[string]*types.LintResult
	docs         map[string]*types.DocFile
	analyzing    bool
	watching     bool
	lastAnalysis time.Time

	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// Info snapshots the project's state for reporting.
func (p *Project) Info() types.ProjectInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	symbols := 0
	for _, result := range p.analyses {
		symbols += len(result.Symbols)
	}
	return types.ProjectInfo{
		Name:          p.Name,
		Path:          p.Root,
		IsAnalyzing:   p.analyzing,
		IsWatching:    p.watching,
		FilesAnalyzed: len(p.analyses),
		DocsFound:     len(p.docs),
		TotalSymbols:  symbols,
		LastAnalysis:  p.lastAnalysis,
	}
}

// Coordinator manages registered projects and the shared analysis engines.
type Coordinator struct {
	cfg      *config.Config
	analyzer *analyzer.FileAnalyzer
	linter   *linter.FileLinter
	docIndex *docs.Indexer
	logger   *log.Logger

	mu       sync.RWMutex
	projects map[string]*Project

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates a coordinator with fresh analysis engines. The logger may be
// nil, in which case output is discarded.
func New(cfg *config.Config, logger *log.Logger) (*Coordinator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	fileAnalyzer, err := analyzer.NewFileAnalyzer(cfg.Analysis.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}
	fileLinter, err := linter.NewFileLinter(cfg.Analysis.CacheSize)
	if err != nil {
		fileAnalyzer.Close()
		return nil, fmt.Errorf("creating linter: %w", err)
	}
	docIndex, err := docs.NewIndexer(cfg.Analysis.CacheSize)
	if err != nil {
		fileAnalyzer.Close()
		fileLinter.Close()
		return nil, fmt.Errorf("creating doc indexer: %w", err)
	}

	return &Coordinator{
		cfg:      cfg,
		analyzer: fileAnalyzer,
		linter:   fileLinter,
		docIndex: docIndex,
		logger:   logger,
		projects: make(map[string]*Project),
	}, nil
}

// Register adds a project, runs a full analysis, and starts watching it if
// watching is enabled. Registering an already-registered path returns the
// existing project's info without re-analyzing. A derived name that is
// already taken by another path gets a numeric suffix; an explicit one
// errors.
func (c *Coordinator) Register(ctx context.Context, path, name string) (types.ProjectInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.ProjectInfo{}, fmt.Errorf("resolving project path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return types.ProjectInfo{}, fmt.Errorf("project path does not exist: %s", abs)
	}
	if !info.IsDir() {
		return types.ProjectInfo{}, fmt.Errorf("project path is not a directory: %s", abs)
	}
	explicit := name != ""
	if name == "" {
		name = pyprojectName(abs)
	}
	if name == "" {
		name = filepath.Base(abs)
	}

	c.mu.Lock()
	for _, existing := range c.projects {
		if existing.Root == abs {
			c.mu.Unlock()
			return existing.Info(), nil
		}
	}
	if _, taken := c.projects[name]; taken {
		if explicit {
			c.mu.Unlock()
			return types.ProjectInfo{}, fmt.Errorf("project name already in use: %s", name)
		}
		// Derived names can collide across directories with the same base
		// name; disambiguate with a numeric suffix.
		base := name
		for n := 2; ; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
			if _, taken := c.projects[name]; !taken {
				break
			}
		}
	}
	project := &Project{
		Name:     name,
		Root:     abs,
		analyses: make(map[string]*types.AnalysisResult),
		lints:    make(map[string]*types.LintResult),
		docs:     make(map[string]*types.DocFile),
	}
	c.projects[name] = project
	c.mu.Unlock()

	c.logger.Printf("Registered project %q at %s", name, abs)

	if err := c.analyzeProject(ctx, project); err != nil {
		c.logger.Printf("Initial analysis of %q failed: %v", name, err)
	}

	if c.cfg.Watch.Enabled {
		if err := c.startWatching(project); err != nil {
			c.logger.Printf("Watching %q unavailable: %v", name, err)
		}
	}

	return project.Info(), nil
}

// Remove unregisters a project, stopping its watcher first.
func (c *Coordinator) Remove(name string) error {
	c.mu.Lock()
	project, ok := c.projects[name]
	if ok {
		delete(c.projects, name)
	}
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}

	c.stopWatching(project)
	c.logger.Printf("Removed project %q", name)
	return nil
}

// Refresh re-runs the full analysis for a project.
func (c *Coordinator) Refresh(ctx context.Context, name string) (types.ProjectInfo, error) {
	project, err := c.project(name)
	if err != nil {
		return types.ProjectInfo{}, err
	}
	if err := c.analyzeProject(ctx, project); err != nil {
		return project.Info(), err
	}
	return project.Info(), nil
}

// List reports all registered projects sorted by name.
func (c *Coordinator) List() []types.ProjectInfo {
	c.mu.RLock()
	infos := make([]types.ProjectInfo, 0, len(c.projects))
	for _, project := range c.projects {
		infos = append(infos, project.Info())
	}
	c.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// project looks up a registered project by name.
func (c *Coordinator) project(name string) (*Project, error) {
	c.mu.RLock()
	project, ok := c.projects[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("project not found: %s", name)
	}
	return project, nil
}

// Close stops all watchers and releases analysis resources.
func (c *Coordinator) Close() {
	c.mu.Lock()
	projects := make([]*Project, 0, len(c.projects))
	for _, project := range c.projects {
		projects = append(projects, project)
	}
	c.projects = make(map[string]*Project)
	c.mu.Unlock()

	for _, project := range projects {
		c.stopWatching(project)
	}
	c.analyzer.Close()
	c.linter.Close()
}
