package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Package is a discovered workspace package: its manifest plus the
// directory it was loaded from.
type Package struct {
	Manifest *PackageManifest
	// Dir is the absolute path of the package directory
	Dir string
}

// Name returns the package's manifest name.
func (p *Package) Name() string {
	return p.Manifest.Name
}

// Workspace is a fully discovered workspace.
type Workspace struct {
	// Root is the absolute workspace root directory
	Root string
	// Manifest is the parsed workspace.yaml
	Manifest *WorkspaceManifest
	// Packages maps package name to the discovered package
	Packages map[string]*Package
}

// Load discovers the workspace rooted at dir. Every directory matching one
// of the manifest's package patterns and containing a package.yaml becomes
// a package; directories without a manifest are silently skipped so
// patterns like "packages/*" tolerate stray files.
func Load(dir string) (*Workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	manifest, err := LoadWorkspaceManifest(root)
	if err != nil {
		return nil, err
	}

	globs := make([]glob.Glob, 0, len(manifest.Packages))
	for _, pattern := range manifest.Packages {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid packages pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	ws := &Workspace{
		Root:     root,
		Manifest: manifest,
		Packages: make(map[string]*Package),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" || name == ".shipyard" || name == "node_modules" {
			return filepath.SkipDir
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		matched := false
		for _, g := range globs {
			if g.Match(rel) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
		if _, err := os.Stat(filepath.Join(path, PackageManifestName)); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		pm, err := LoadPackageManifest(path)
		if err != nil {
			return err
		}
		if existing, dup := ws.Packages[pm.Name]; dup {
			return fmt.Errorf("duplicate package %q in %s and %s",
				pm.Name, existing.Dir, path)
		}
		ws.Packages[pm.Name] = &Package{Manifest: pm, Dir: path}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ws.Packages) == 0 {
		return nil, fmt.Errorf("no packages found under %s", root)
	}
	return ws, nil
}

// Names returns all package names sorted alphabetically.
func (w *Workspace) Names() []string {
	names := make([]string, 0, len(w.Packages))
	for name := range w.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Publishable returns the names of non-private packages, optionally
// narrowed by only and reduced by skip. Unknown names in either list are
// reported as an error rather than silently ignored.
func (w *Workspace) Publishable(only, skip []string) ([]string, error) {
	for _, name := range append(append([]string{}, only...), skip...) {
		if _, ok := w.Packages[name]; !ok {
			return nil, fmt.Errorf("unknown package %q", name)
		}
	}

	skipped := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipped[name] = struct{}{}
	}

	selected := w.Names()
	if len(only) > 0 {
		selected = append([]string{}, only...)
		sort.Strings(selected)
	}

	var out []string
	for _, name := range selected {
		if _, ok := skipped[name]; ok {
			continue
		}
		if w.Packages[name].Manifest.Private {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// RegistryURL returns the registry from the workspace manifest, with
// override taking precedence when non-empty.
func (w *Workspace) RegistryURL(override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return strings.TrimRight(w.Manifest.Registry, "/")
}

// Graph builds the dependency graph over the discovered packages.
func (w *Workspace) Graph() *Graph {
	deps := make(map[string][]string, len(w.Packages))
	for name, pkg := range w.Packages {
		deps[name] = append([]string(nil), pkg.Manifest.Dependencies...)
	}
	return NewGraph(deps)
}
