// Package publish contains the publishers a run can be driven by: an
// external shell command per package, an HTTP registry upload, or a dry run
// that only records what would have happened.
package publish

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Iron-Ham/shipyard/internal/logging"
	"github.com/Iron-Ham/shipyard/internal/scheduler"
	"github.com/Iron-Ham/shipyard/internal/workspace"
)

// Publisher publishes a single workspace package.
type Publisher interface {
	// Publish publishes pkg. An error return is treated as a retryable
	// failure by the scheduler; returning ctx.Err() ends the run.
	Publish(ctx context.Context, pkg *workspace.Package) error
}

// Func adapts a Publisher to the scheduler's callback, resolving package
// names against the workspace. A name the workspace no longer knows, which
// can happen in watch mode, fails the package rather than the process.
func Func(ws *workspace.Workspace, p Publisher, logger *logging.Logger) scheduler.PublishFunc {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return func(ctx context.Context, name string) error {
		pkg, ok := ws.Packages[name]
		if !ok {
			return fmt.Errorf("package %q is no longer in the workspace", name)
		}
		log := logger.WithPackage(name)
		log.Debug("publishing", "version", pkg.Manifest.Version)
		if err := p.Publish(ctx, pkg); err != nil {
			return err
		}
		log.Debug("published", "version", pkg.Manifest.Version)
		return nil
	}
}

// DryRun is a Publisher that records package names instead of publishing.
type DryRun struct {
	mu        sync.Mutex
	published []string
}

var _ Publisher = (*DryRun)(nil)

// Publish records the package name.
func (d *DryRun) Publish(ctx context.Context, pkg *workspace.Package) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, pkg.Name())
	return nil
}

// Published returns the recorded names sorted alphabetically.
func (d *DryRun) Published() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]string(nil), d.published...)
	sort.Strings(out)
	return out
}
