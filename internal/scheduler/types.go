package scheduler

import (
	"time"

	"github.com/Iron-Ham/shipyard/internal/logging"
)

// Stage represents the scheduling state of a single package.
type Stage string

const (
	// StageWaiting indicates the package still has unmet dependencies.
	StageWaiting Stage = "waiting"

	// StageReady indicates the package has been placed on the ready queue.
	StageReady Stage = "ready"

	// StageRunning indicates a worker is executing the publish callback.
	StageRunning Stage = "running"

	// StageRetrying indicates the last attempt failed and the package will
	// be retried after a backoff delay.
	StageRetrying Stage = "retrying"

	// StageDone indicates the package published successfully.
	StageDone Stage = "done"

	// StageFailed indicates the package failed and exhausted all retries.
	StageFailed Stage = "failed"

	// StageBlocked indicates the package will never execute because a
	// dependency failed or was removed with cascading.
	StageBlocked Stage = "blocked"

	// StageSkipped indicates the package was withdrawn without executing.
	StageSkipped Stage = "skipped"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true if this stage represents a final state.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed || s == StageSkipped
}

// State represents the run state of the scheduler as a whole.
type State string

const (
	// StateRunning indicates workers are dequeuing new packages.
	StateRunning State = "running"

	// StatePaused indicates workers finish in-flight work but start nothing new.
	StatePaused State = "paused"
)

// ViewMode is a presentation hint forwarded to observers. It never
// influences scheduling.
type ViewMode string

const (
	// ViewWindow shows a sliding window of packages around current activity.
	ViewWindow ViewMode = "window"

	// ViewAll shows every package.
	ViewAll ViewMode = "all"
)

// DisplayFilter is a presentation hint narrowing which packages an observer
// should display. Like ViewMode, it never influences scheduling.
type DisplayFilter string

const (
	// FilterAll displays every package.
	FilterAll DisplayFilter = "all"

	// FilterActive displays only packages that are ready, running, or retrying.
	FilterActive DisplayFilter = "active"

	// FilterFailed displays only failed and blocked packages.
	FilterFailed DisplayFilter = "failed"
)

// PackageNode holds the per-package scheduling state. Nodes are owned
// exclusively by the Scheduler and mutated in place under its lock.
type PackageNode struct {
	// Name uniquely identifies the package.
	Name string

	// RemainingDeps is the count of in-scope dependencies that have not
	// completed yet. It only decreases and reaches zero exactly once.
	RemainingDeps int

	// Dependents are the reverse edges to in-scope packages that depend
	// on this one.
	Dependents []string

	// Level is the longest dependency-chain depth from a zero-dependency
	// package. Display metadata only; it never affects scheduling.
	Level int
}

// DependencyGraph is the external collaborator the scheduler consumes.
// It supplies package names and internal dependency edges and is assumed
// to be acyclic.
type DependencyGraph interface {
	// Packages returns the names of all packages in the graph.
	Packages() []string

	// DependenciesOf returns the names this package depends on.
	DependenciesOf(name string) []string
}

// Config holds scheduler construction parameters.
type Config struct {
	// Concurrency is the maximum number of simultaneous publish calls.
	Concurrency int

	// MaxRetries is the number of retry attempts after the first failure.
	// Zero means a single failing attempt is immediately terminal.
	MaxRetries int

	// RetryBaseDelay is the base for the exponential backoff between
	// attempts: delay = RetryBaseDelay << attempt.
	RetryBaseDelay time.Duration

	// Observer receives progress notifications. May be nil.
	Observer PublishObserver

	// Logger receives structured debug output. May be nil.
	Logger *logging.Logger
}

// DefaultConfig returns sensible defaults for scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:    4,
		MaxRetries:     2,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}
