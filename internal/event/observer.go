package event

import "github.com/Iron-Ham/shipyard/internal/scheduler"

// Observer adapts scheduler progress callbacks into bus events. It is the
// bridge between the scheduler, which knows nothing about subscribers, and
// the TUI and reporters, which know nothing about the scheduler internals.
type Observer struct {
	bus *Bus
}

var _ scheduler.PublishObserver = (*Observer)(nil)

// NewObserver creates an Observer publishing to bus.
func NewObserver(bus *Bus) *Observer {
	return &Observer{bus: bus}
}

// OnStage publishes a PackageStageEvent.
func (o *Observer) OnStage(pkg string, stage scheduler.Stage) {
	o.bus.Publish(NewPackageStageEvent(pkg, stage))
}

// OnSchedulerState publishes a SchedulerStateEvent.
func (o *Observer) OnSchedulerState(state scheduler.State) {
	o.bus.Publish(NewSchedulerStateEvent(state))
}

// OnViewMode publishes a ViewModeEvent.
func (o *Observer) OnViewMode(mode scheduler.ViewMode, filter scheduler.DisplayFilter) {
	o.bus.Publish(NewViewModeEvent(mode, filter))
}
