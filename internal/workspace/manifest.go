// Package workspace discovers the packages of a multi-package workspace and
// builds the dependency graph the scheduler consumes. A workspace is a
// directory tree with a workspace.yaml at its root and a package.yaml in
// every package directory.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

const (
	// WorkspaceManifestName is the file marking the workspace root.
	WorkspaceManifestName = "workspace.yaml"

	// PackageManifestName is the file marking a package directory.
	PackageManifestName = "package.yaml"
)

// WorkspaceManifest is the parsed workspace.yaml.
type WorkspaceManifest struct {
	// Name is the workspace's display name (optional)
	Name string `yaml:"name,omitempty"`
	// Packages are glob patterns, relative to the workspace root, selecting
	// directories that contain a package.yaml (e.g., "packages/*")
	Packages []string `yaml:"packages"`
	// Registry is the default registry base URL for registry publishing
	Registry string `yaml:"registry,omitempty"`
}

// PackageManifest is the parsed package.yaml.
type PackageManifest struct {
	// Name uniquely identifies the package within the workspace
	Name string `yaml:"name"`
	// Version is the version string published for this package
	Version string `yaml:"version"`
	// Dependencies are names of other packages this one depends on.
	// Names outside the workspace are allowed and ignored by the planner
	Dependencies []string `yaml:"dependencies,omitempty"`
	// Private excludes the package from publishing; it still participates
	// in the graph so dependents are ordered correctly
	Private bool `yaml:"private,omitempty"`
}

// packageNameRegex constrains names to something safe for registry paths.
var packageNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._@/-]*$`)

// LoadWorkspaceManifest reads and parses the workspace.yaml in dir.
func LoadWorkspaceManifest(dir string) (*WorkspaceManifest, error) {
	path := filepath.Join(dir, WorkspaceManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var m WorkspaceManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(m.Packages) == 0 {
		return nil, fmt.Errorf("%s: at least one packages pattern is required", path)
	}
	return &m, nil
}

// LoadPackageManifest reads and parses the package.yaml in dir.
func LoadPackageManifest(dir string) (*PackageManifest, error) {
	path := filepath.Join(dir, PackageManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var m PackageManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the manifest for structurally invalid values.
func (m *PackageManifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !packageNameRegex.MatchString(m.Name) {
		return fmt.Errorf("invalid package name %q", m.Name)
	}
	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	for _, dep := range m.Dependencies {
		if dep == m.Name {
			return fmt.Errorf("package %q depends on itself", m.Name)
		}
	}
	return nil
}
