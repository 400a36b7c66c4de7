package coordinator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pylens/pylens/internal/docs"
)

// startWatching attaches an fsnotify watcher to every non-ignored directory
// under the project root and processes events until the project is removed.
func (c *Coordinator) startWatching(project *Project) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watchTree(watcher, project.Root); err != nil {
		watcher.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	project.mu.Lock()
	project.watching = true
	project.watchCancel = cancel
	project.watchDone = done
	project.mu.Unlock()

	go func() {
		defer close(done)
		defer watcher.Close()
		c.watchLoop(ctx, project, watcher)
		project.mu.Lock()
		project.watching = false
		project.mu.Unlock()
	}()

	c.logger.Printf("Watching project %q", project.Name)
	return nil
}

// stopWatching cancels a project's watch loop and waits for it to exit.
func (c *Coordinator) stopWatching(project *Project) {
	project.mu.Lock()
	cancel := project.watchCancel
	done := project.watchDone
	project.watchCancel = nil
	project.watchDone = nil
	project.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// watchTree registers root and all non-ignored subdirectories.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (skipDir(d.Name()) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchLoop debounces filesystem events and dispatches batches. Events for
// the same path within the debounce window collapse into one.
func (c *Coordinator) watchLoop(ctx context.Context, project *Project, watcher *fsnotify.Watcher) {
	debounce := time.Duration(c.cfg.Watch.DebounceMs) * time.Millisecond
	pending := make(map[string]fsnotify.Op)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		batch := pending
		pending = make(map[string]fsnotify.Op)
		timerC = nil
		for path, op := range batch {
			c.handleEvent(ctx, project, path, op)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if c.ignoreEvent(project, event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				c.maybeWatchNewDir(watcher, event.Name)
			}
			pending[event.Name] |= event.Op
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
				timerC = timer.C
			}

		case <-timerC:
			flush()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Printf("Watcher error on %q: %v", project.Name, err)
		}
	}
}

// ignoreEvent filters out events under ignored or hidden directories.
func (c *Coordinator) ignoreEvent(project *Project, path string) bool {
	rel, err := filepath.Rel(project.Root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "." || part == ".." {
			continue
		}
		if skipDir(part) || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// maybeWatchNewDir adds a watch for a freshly created directory so files
// appearing inside it are seen.
func (c *Coordinator) maybeWatchNewDir(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if skipDir(info.Name()) || strings.HasPrefix(info.Name(), ".") {
		return
	}
	if err := watchTree(watcher, path); err != nil {
		c.logger.Printf("Failed to watch new directory %s: %v", path, err)
	}
}

// handleEvent routes one debounced event to the right update path.
func (c *Coordinator) handleEvent(ctx context.Context, project *Project, path string, op fsnotify.Op) {
	isSource := strings.HasSuffix(path, ".py")
	isDoc := docs.IsDocFile(path)
	if !isSource && !isDoc {
		return
	}

	removed := op&(fsnotify.Remove|fsnotify.Rename) != 0
	if !removed {
		if _, err := os.Stat(path); err != nil {
			removed = true
		}
	}

	switch {
	case isSource && removed:
		c.forgetFile(project, path)
	case isSource:
		c.reanalyzeFile(ctx, project, path)
	case removed:
		c.forgetDoc(project, path)
	default:
		c.refreshDoc(project, path)
	}
}
