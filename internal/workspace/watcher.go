package workspace

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/shipyard/internal/logging"
)

// WatchCallbacks receive workspace mutations observed while a run is in
// progress. Both callbacks run on the watcher goroutine.
type WatchCallbacks struct {
	// OnAdd fires when a new package manifest appears. Level is the
	// package's depth in the current graph.
	OnAdd func(name string, deps []string, level int)
	// OnRemove fires when a package manifest disappears.
	OnRemove func(name string)
}

// Watcher observes the workspace for package manifests appearing or
// disappearing and translates filesystem events into package callbacks.
type Watcher struct {
	ws        *Workspace
	watcher   *fsnotify.Watcher
	callbacks WatchCallbacks
	logger    *logging.Logger

	mu sync.Mutex
	// byDir maps package directory to package name for removal lookups
	byDir map[string]string

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a Watcher over a loaded workspace. Call Start to begin
// receiving callbacks and Stop to release the underlying watcher.
func NewWatcher(ws *Workspace, callbacks WatchCallbacks, logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	w := &Watcher{
		ws:        ws,
		watcher:   fsw,
		callbacks: callbacks,
		logger:    logger,
		byDir:     make(map[string]string, len(ws.Packages)),
		stopCh:    make(chan struct{}),
	}
	for name, pkg := range ws.Packages {
		w.byDir[pkg.Dir] = name
	}
	return w, nil
}

// Start registers the watched directories and launches the event loop.
func (w *Watcher) Start() error {
	// Watch the root and every package directory. New package directories
	// under the root produce create events on the root watch.
	if err := w.watcher.Add(w.ws.Root); err != nil {
		return err
	}
	for _, pkg := range w.ws.Packages {
		if err := w.watcher.Add(pkg.Dir); err != nil {
			return err
		}
	}
	// Intermediate directories like packages/ so new subdirectories are seen.
	for _, pattern := range w.ws.Manifest.Packages {
		dir := staticPrefix(pattern)
		if dir == "" {
			continue
		}
		if err := w.watcher.Add(filepath.Join(w.ws.Root, dir)); err != nil {
			w.logger.Debug("watch skip", "dir", dir, "error", err.Error())
		}
	}

	go w.loop()
	return nil
}

// Stop terminates the event loop and closes the filesystem watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err.Error())
		}
	}
}

// handleEvent processes one filesystem event. Split out from the loop so
// tests can drive it directly without a real watcher.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Base(ev.Name) != PackageManifestName {
		// A brand new package directory: start watching it so the
		// manifest write that follows is observed.
		if ev.Op.Has(fsnotify.Create) {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				if err := w.watcher.Add(ev.Name); err != nil {
					w.logger.Debug("watch skip", "dir", ev.Name, "error", err.Error())
				}
			}
		}
		return
	}

	dir := filepath.Dir(ev.Name)
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		w.manifestChanged(dir)
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.manifestRemoved(dir)
	}
}

func (w *Watcher) manifestChanged(dir string) {
	pm, err := LoadPackageManifest(dir)
	if err != nil {
		w.logger.Warn("ignoring unreadable manifest", "dir", dir, "error", err.Error())
		return
	}

	w.mu.Lock()
	if _, known := w.byDir[dir]; known {
		// Edits to an existing manifest do not reshape the running plan.
		w.mu.Unlock()
		return
	}
	w.byDir[dir] = pm.Name
	w.ws.Packages[pm.Name] = &Package{Manifest: pm, Dir: dir}
	level := w.ws.Graph().Levels()[pm.Name]
	w.mu.Unlock()

	w.logger.Info("package appeared", "package", pm.Name, "dir", dir)
	if w.callbacks.OnAdd != nil {
		w.callbacks.OnAdd(pm.Name, pm.Dependencies, level)
	}
}

func (w *Watcher) manifestRemoved(dir string) {
	w.mu.Lock()
	name, known := w.byDir[dir]
	if known {
		delete(w.byDir, dir)
		delete(w.ws.Packages, name)
	}
	w.mu.Unlock()
	if !known {
		return
	}

	w.logger.Info("package disappeared", "package", name, "dir", dir)
	if w.callbacks.OnRemove != nil {
		w.callbacks.OnRemove(name)
	}
}

// staticPrefix returns the leading glob-free directory portion of pattern,
// e.g. "packages/*" -> "packages".
func staticPrefix(pattern string) string {
	var out []string
	for _, seg := range splitSlash(pattern) {
		if containsGlobMeta(seg) {
			break
		}
		out = append(out, seg)
	}
	return filepath.Join(out...)
}

func splitSlash(p string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			parts = append(parts, p[start:i])
			start = i + 1
		}
	}
	return append(parts, p[start:])
}

func containsGlobMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
