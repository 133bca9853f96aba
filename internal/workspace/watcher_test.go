package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
)

// newTestWatcher builds a Watcher over a two-package workspace and returns
// it with the workspace root. Events are driven through handleEvent
// directly so tests do not depend on filesystem notification timing.
func newTestWatcher(t *testing.T, callbacks WatchCallbacks) (*Watcher, string) {
	t.Helper()
	root := writeWorkspace(t, basicManifest, map[string]string{
		"packages/core": "name: core\nversion: 1.0.0\n",
		"packages/api":  "name: api\nversion: 1.0.0\ndependencies: [core]\n",
	})
	ws, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(ws, callbacks, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w, root
}

func TestWatcherManifestCreated(t *testing.T) {
	var added []string
	var addedDeps []string
	var addedLevel int
	w, root := newTestWatcher(t, WatchCallbacks{
		OnAdd: func(name string, deps []string, level int) {
			added = append(added, name)
			addedDeps = deps
			addedLevel = level
		},
	})

	dir := filepath.Join(root, "packages", "cli")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(dir, PackageManifestName)
	if err := os.WriteFile(manifest, []byte("name: cli\nversion: 0.1.0\ndependencies: [api]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w.handleEvent(fsnotify.Event{Name: manifest, Op: fsnotify.Create})

	if len(added) != 1 || added[0] != "cli" {
		t.Fatalf("expected OnAdd for cli, got %v", added)
	}
	if len(addedDeps) != 1 || addedDeps[0] != "api" {
		t.Errorf("expected deps [api], got %v", addedDeps)
	}
	// core=0, api=1, cli=2.
	if addedLevel != 2 {
		t.Errorf("expected level 2, got %d", addedLevel)
	}
}

func TestWatcherManifestCreatedTwiceFiresOnce(t *testing.T) {
	calls := 0
	w, root := newTestWatcher(t, WatchCallbacks{
		OnAdd: func(string, []string, int) { calls++ },
	})

	dir := filepath.Join(root, "packages", "cli")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(dir, PackageManifestName)
	if err := os.WriteFile(manifest, []byte("name: cli\nversion: 0.1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w.handleEvent(fsnotify.Event{Name: manifest, Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: manifest, Op: fsnotify.Write})

	if calls != 1 {
		t.Errorf("expected a single OnAdd, got %d", calls)
	}
}

func TestWatcherUnreadableManifestIgnored(t *testing.T) {
	calls := 0
	w, root := newTestWatcher(t, WatchCallbacks{
		OnAdd: func(string, []string, int) { calls++ },
	})

	dir := filepath.Join(root, "packages", "broken")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(dir, PackageManifestName)
	if err := os.WriteFile(manifest, []byte("name: broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w.handleEvent(fsnotify.Event{Name: manifest, Op: fsnotify.Create})

	if calls != 0 {
		t.Errorf("expected no OnAdd for an invalid manifest, got %d", calls)
	}
}

func TestWatcherManifestRemoved(t *testing.T) {
	var removed []string
	w, root := newTestWatcher(t, WatchCallbacks{
		OnRemove: func(name string) { removed = append(removed, name) },
	})

	manifest := filepath.Join(root, "packages", "api", PackageManifestName)
	w.handleEvent(fsnotify.Event{Name: manifest, Op: fsnotify.Remove})
	// Repeat removal of the same manifest is a no-op.
	w.handleEvent(fsnotify.Event{Name: manifest, Op: fsnotify.Remove})

	if len(removed) != 1 || removed[0] != "api" {
		t.Errorf("expected OnRemove for api once, got %v", removed)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	calls := 0
	w, root := newTestWatcher(t, WatchCallbacks{
		OnAdd:    func(string, []string, int) { calls++ },
		OnRemove: func(string) { calls++ },
	})

	w.handleEvent(fsnotify.Event{
		Name: filepath.Join(root, "packages", "core", "main.go"),
		Op:   fsnotify.Write,
	})

	if calls != 0 {
		t.Errorf("expected no callbacks for non-manifest files, got %d", calls)
	}
}

func TestStaticPrefix(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"packages/*", "packages"},
		{"libs/**", "libs"},
		{"*", ""},
		{"tools/cli", filepath.Join("tools", "cli")},
	}
	for _, tt := range tests {
		if got := staticPrefix(tt.pattern); got != tt.want {
			t.Errorf("staticPrefix(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}
