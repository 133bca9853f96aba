// Package event defines event types for decoupling components in shipyard.
// These events let the scheduler, TUI, and plain-text reporter communicate
// without direct dependencies.
package event

import (
	"time"

	"github.com/Iron-Ham/shipyard/internal/scheduler"
)

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "package.stage", "run.finished")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Package Events
// -----------------------------------------------------------------------------

// PackageStageEvent is emitted each time a package moves to a new stage.
type PackageStageEvent struct {
	baseEvent
	Package string          // Package name
	Stage   scheduler.Stage // The stage the package just entered
}

// NewPackageStageEvent creates a PackageStageEvent.
func NewPackageStageEvent(pkg string, stage scheduler.Stage) PackageStageEvent {
	return PackageStageEvent{
		baseEvent: newBaseEvent("package.stage"),
		Package:   pkg,
		Stage:     stage,
	}
}

// -----------------------------------------------------------------------------
// Scheduler Events
// -----------------------------------------------------------------------------

// SchedulerStateEvent is emitted when the scheduler pauses or resumes.
type SchedulerStateEvent struct {
	baseEvent
	State scheduler.State
}

// NewSchedulerStateEvent creates a SchedulerStateEvent.
func NewSchedulerStateEvent(state scheduler.State) SchedulerStateEvent {
	return SchedulerStateEvent{
		baseEvent: newBaseEvent("scheduler.state"),
		State:     state,
	}
}

// ViewModeEvent is emitted when the display mode or filter changes.
type ViewModeEvent struct {
	baseEvent
	Mode   scheduler.ViewMode
	Filter scheduler.DisplayFilter
}

// NewViewModeEvent creates a ViewModeEvent.
func NewViewModeEvent(mode scheduler.ViewMode, filter scheduler.DisplayFilter) ViewModeEvent {
	return ViewModeEvent{
		baseEvent: newBaseEvent("scheduler.viewmode"),
		Mode:      mode,
		Filter:    filter,
	}
}

// -----------------------------------------------------------------------------
// Run Lifecycle Events
// -----------------------------------------------------------------------------

// RunStartedEvent is emitted once when a publish run begins.
type RunStartedEvent struct {
	baseEvent
	Workspace string // Workspace root directory
	Total     int    // Number of packages selected for publishing
}

// NewRunStartedEvent creates a RunStartedEvent.
func NewRunStartedEvent(workspace string, total int) RunStartedEvent {
	return RunStartedEvent{
		baseEvent: newBaseEvent("run.started"),
		Workspace: workspace,
		Total:     total,
	}
}

// RunFinishedEvent is emitted once when a publish run ends, whether it
// completed, failed partially, or was cancelled.
type RunFinishedEvent struct {
	baseEvent
	Result *scheduler.Result
}

// NewRunFinishedEvent creates a RunFinishedEvent.
func NewRunFinishedEvent(result *scheduler.Result) RunFinishedEvent {
	return RunFinishedEvent{
		baseEvent: newBaseEvent("run.finished"),
		Result:    result,
	}
}
