package scheduler

// PublishObserver receives progress notifications from the scheduler.
// All hooks are fire-and-forget: the scheduler only writes to the observer
// and never reads anything back, so implementations must not call back into
// the scheduler. Hooks may be invoked concurrently from worker goroutines
// but never overlap; the scheduler serializes them under its own lock.
type PublishObserver interface {
	// OnStage is called when a package transitions to a new stage.
	OnStage(pkg string, stage Stage)

	// OnSchedulerState is called when the scheduler pauses or resumes.
	OnSchedulerState(state State)

	// OnViewMode is called with presentation hints for observers that
	// render a UI. The hints never influence scheduling.
	OnViewMode(mode ViewMode, filter DisplayFilter)
}

// nopObserver is the observer used when none is configured.
type nopObserver struct{}

func (nopObserver) OnStage(string, Stage)              {}
func (nopObserver) OnSchedulerState(State)             {}
func (nopObserver) OnViewMode(ViewMode, DisplayFilter) {}

var _ PublishObserver = nopObserver{}
