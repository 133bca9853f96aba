package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

// writeWorkspace lays out a workspace under a temp dir. packages maps a
// relative directory to its package.yaml contents.
func writeWorkspace(t *testing.T, manifest string, packages map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, WorkspaceManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	for dir, content := range packages {
		full := filepath.Join(root, dir)
		if err := os.MkdirAll(full, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(full, PackageManifestName), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

const basicManifest = `
name: demo
packages:
  - "packages/*"
registry: https://registry.example.com/
`

func TestLoadDiscoversPackages(t *testing.T) {
	root := writeWorkspace(t, basicManifest, map[string]string{
		"packages/core": "name: core\nversion: 1.0.0\n",
		"packages/api":  "name: api\nversion: 2.1.0\ndependencies: [core]\n",
		"packages/docs": "name: docs\nversion: 0.1.0\nprivate: true\n",
	})

	ws, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"api", "core", "docs"}
	got := ws.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d]: expected %s, got %s", i, want[i], got[i])
		}
	}

	api := ws.Packages["api"]
	if api.Dir != filepath.Join(root, "packages", "api") {
		t.Errorf("unexpected package dir: %s", api.Dir)
	}
	if len(api.Manifest.Dependencies) != 1 || api.Manifest.Dependencies[0] != "core" {
		t.Errorf("unexpected dependencies: %v", api.Manifest.Dependencies)
	}
}

func TestLoadSkipsDirsWithoutManifest(t *testing.T) {
	root := writeWorkspace(t, basicManifest, map[string]string{
		"packages/core": "name: core\nversion: 1.0.0\n",
	})
	if err := os.MkdirAll(filepath.Join(root, "packages", "scratch"), 0o755); err != nil {
		t.Fatal(err)
	}

	ws, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(ws.Packages) != 1 {
		t.Errorf("expected 1 package, got %v", ws.Names())
	}
}

func TestLoadRejectsDuplicateNames(t *testing.T) {
	root := writeWorkspace(t, basicManifest, map[string]string{
		"packages/a": "name: core\nversion: 1.0.0\n",
		"packages/b": "name: core\nversion: 2.0.0\n",
	})

	if _, err := Load(root); err == nil {
		t.Fatal("expected duplicate package error")
	}
}

func TestLoadRejectsInvalidManifest(t *testing.T) {
	root := writeWorkspace(t, basicManifest, map[string]string{
		"packages/bad": "name: bad\n", // missing version
	})

	if _, err := Load(root); err == nil {
		t.Fatal("expected manifest validation error")
	}
}

func TestPublishableFiltersPrivateOnlySkip(t *testing.T) {
	root := writeWorkspace(t, basicManifest, map[string]string{
		"packages/core": "name: core\nversion: 1.0.0\n",
		"packages/api":  "name: api\nversion: 1.0.0\ndependencies: [core]\n",
		"packages/docs": "name: docs\nversion: 0.1.0\nprivate: true\n",
	})
	ws, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("private excluded", func(t *testing.T) {
		got, err := ws.Publishable(nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0] != "api" || got[1] != "core" {
			t.Errorf("expected [api core], got %v", got)
		}
	})

	t.Run("only narrows", func(t *testing.T) {
		got, err := ws.Publishable([]string{"core"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != "core" {
			t.Errorf("expected [core], got %v", got)
		}
	})

	t.Run("skip removes", func(t *testing.T) {
		got, err := ws.Publishable(nil, []string{"api"})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != "core" {
			t.Errorf("expected [core], got %v", got)
		}
	})

	t.Run("unknown name rejected", func(t *testing.T) {
		if _, err := ws.Publishable([]string{"ghost"}, nil); err == nil {
			t.Error("expected an error for an unknown package")
		}
	})
}

func TestRegistryURL(t *testing.T) {
	ws := &Workspace{Manifest: &WorkspaceManifest{Registry: "https://a.example.com/"}}
	if got := ws.RegistryURL(""); got != "https://a.example.com" {
		t.Errorf("expected manifest registry, got %s", got)
	}
	if got := ws.RegistryURL("https://b.example.com"); got != "https://b.example.com" {
		t.Errorf("expected override, got %s", got)
	}
}
