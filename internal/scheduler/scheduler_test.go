package scheduler

import (
	"sync"
	"testing"
)

// testGraph is a minimal DependencyGraph for tests: name -> dependencies.
type testGraph map[string][]string

func (g testGraph) Packages() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	return names
}

func (g testGraph) DependenciesOf(name string) []string {
	return g[name]
}

// stageRecord is a single observer notification.
type stageRecord struct {
	pkg   string
	stage Stage
}

// recordingObserver captures every notification for later assertions.
type recordingObserver struct {
	mu     sync.Mutex
	stages []stageRecord
	states []State
	modes  []ViewMode
}

func (o *recordingObserver) OnStage(pkg string, stage Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stageRecord{pkg: pkg, stage: stage})
}

func (o *recordingObserver) OnSchedulerState(state State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *recordingObserver) OnViewMode(mode ViewMode, filter DisplayFilter) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.modes = append(o.modes, mode)
}

func (o *recordingObserver) stagesFor(pkg string) []Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	var stages []Stage
	for _, rec := range o.stages {
		if rec.pkg == pkg {
			stages = append(stages, rec.stage)
		}
	}
	return stages
}

func (o *recordingObserver) sawStage(pkg string, stage Stage) bool {
	for _, s := range o.stagesFor(pkg) {
		if s == stage {
			return true
		}
	}
	return false
}

func names(g testGraph) []string {
	return g.Packages()
}

func TestFromGraphCountsOnlyRetainedDeps(t *testing.T) {
	g := testGraph{
		"app": {"lib", "vendored"},
		"lib": {},
	}
	s := FromGraph(g, []string{"app", "lib"}, nil, DefaultConfig())

	app := s.Node("app")
	if app == nil {
		t.Fatal("expected app node")
	}
	if app.RemainingDeps != 1 {
		t.Errorf("expected 1 remaining dep (vendored is out of scope), got %d", app.RemainingDeps)
	}

	lib := s.Node("lib")
	if lib.RemainingDeps != 0 {
		t.Errorf("expected 0 remaining deps for lib, got %d", lib.RemainingDeps)
	}
	if len(lib.Dependents) != 1 || lib.Dependents[0] != "app" {
		t.Errorf("expected lib dependents [app], got %v", lib.Dependents)
	}
}

func TestFromGraphAlreadyPublishedSatisfiesDependents(t *testing.T) {
	g := testGraph{
		"app": {"lib"},
		"lib": {},
	}
	s := FromGraph(g, []string{"app", "lib"}, []string{"lib"}, DefaultConfig())

	if s.Node("lib") != nil {
		t.Error("already-published lib should not be a node")
	}
	app := s.Node("app")
	if app.RemainingDeps != 0 {
		t.Errorf("expected app to be immediately schedulable, got %d remaining", app.RemainingDeps)
	}
	if s.Total() != 1 {
		t.Errorf("expected total 1, got %d", s.Total())
	}
}

func TestFromGraphLevels(t *testing.T) {
	// Diamond: b and c depend on a, d depends on both.
	g := testGraph{
		"a": {},
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
	}
	s := FromGraph(g, names(g), nil, DefaultConfig())

	want := map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}
	for name, level := range want {
		if got := s.Node(name).Level; got != level {
			t.Errorf("level of %s: expected %d, got %d", name, level, got)
		}
	}
}

func TestMarkDoneReturnsNewlyReady(t *testing.T) {
	g := testGraph{
		"top":  {"mid"},
		"mid":  {"leaf"},
		"leaf": {},
	}
	s := FromGraph(g, names(g), nil, DefaultConfig())

	ready := s.MarkDone("leaf")
	if len(ready) != 1 || ready[0] != "mid" {
		t.Fatalf("expected [mid], got %v", ready)
	}
	if got := s.Node("mid").RemainingDeps; got != 0 {
		t.Errorf("expected mid remaining 0, got %d", got)
	}
	if got := s.Node("top").RemainingDeps; got != 1 {
		t.Errorf("expected top remaining 1, got %d", got)
	}
}

func TestMarkDoneIdempotent(t *testing.T) {
	g := testGraph{
		"top": {"a", "b"},
		"a":   {},
		"b":   {},
	}
	s := FromGraph(g, names(g), nil, DefaultConfig())

	if ready := s.MarkDone("a"); len(ready) != 0 {
		t.Fatalf("expected no newly ready, got %v", ready)
	}
	if got := s.Node("top").RemainingDeps; got != 1 {
		t.Fatalf("expected top remaining 1 after first MarkDone, got %d", got)
	}

	// The second call must not decrement top again.
	if ready := s.MarkDone("a"); len(ready) != 0 {
		t.Errorf("expected empty result from repeat MarkDone, got %v", ready)
	}
	if got := s.Node("top").RemainingDeps; got != 1 {
		t.Errorf("repeat MarkDone mutated dependents: remaining %d", got)
	}

	if ready := s.MarkDone("b"); len(ready) != 1 || ready[0] != "top" {
		t.Errorf("expected [top], got %v", ready)
	}
}

func TestAddPackageRejectsDuplicates(t *testing.T) {
	g := testGraph{"a": {}}
	s := FromGraph(g, names(g), nil, DefaultConfig())

	if s.AddPackage("a", nil, 0) {
		t.Error("expected AddPackage to reject an existing name")
	}
	if !s.AddPackage("b", nil, 0) {
		t.Error("expected AddPackage to accept a new name")
	}
	if s.AddPackage("b", nil, 0) {
		t.Error("expected AddPackage to reject a name it just added")
	}
}

func TestAddPackageIgnoresUnknownDeps(t *testing.T) {
	g := testGraph{"a": {}}
	s := FromGraph(g, names(g), nil, DefaultConfig())

	if !s.AddPackage("b", []string{"nope", "also-nope"}, 0) {
		t.Fatal("expected AddPackage to succeed")
	}
	if got := s.Node("b").RemainingDeps; got != 0 {
		t.Errorf("unknown deps must never block: remaining %d", got)
	}
}

func TestAddPackageCountsPendingKnownDeps(t *testing.T) {
	g := testGraph{"a": {}}
	s := FromGraph(g, names(g), nil, DefaultConfig())

	if !s.AddPackage("b", []string{"a"}, 1) {
		t.Fatal("expected AddPackage to succeed")
	}
	if got := s.Node("b").RemainingDeps; got != 1 {
		t.Fatalf("expected 1 remaining dep, got %d", got)
	}

	ready := s.MarkDone("a")
	if len(ready) != 1 || ready[0] != "b" {
		t.Errorf("expected [b] newly ready, got %v", ready)
	}
}

func TestAddPackageSkipsDoneDeps(t *testing.T) {
	g := testGraph{"a": {}}
	s := FromGraph(g, names(g), nil, DefaultConfig())
	s.MarkDone("a")

	if !s.AddPackage("b", []string{"a"}, 1) {
		t.Fatal("expected AddPackage to succeed")
	}
	if got := s.Node("b").RemainingDeps; got != 0 {
		t.Errorf("done deps must not be counted: remaining %d", got)
	}
}

func TestRemovePackageUnknownOrDone(t *testing.T) {
	g := testGraph{"a": {}}
	s := FromGraph(g, names(g), nil, DefaultConfig())

	if s.RemovePackage("nope", false) {
		t.Error("expected false for unknown package")
	}
	s.MarkDone("a")
	if s.RemovePackage("a", false) {
		t.Error("expected false for already-done package")
	}
}

func TestRemovePackageUnblocksDependents(t *testing.T) {
	g := testGraph{
		"app": {"lib"},
		"lib": {},
	}
	s := FromGraph(g, names(g), nil, DefaultConfig())

	if !s.RemovePackage("lib", false) {
		t.Fatal("expected removal to succeed")
	}
	// lib was marked done, so app no longer waits on it.
	if got := s.Node("app").RemainingDeps; got != 0 {
		t.Errorf("expected app unblocked after removal, got remaining %d", got)
	}
}

func TestPauseResumeNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	cfg := DefaultConfig()
	cfg.Observer = obs
	s := FromGraph(testGraph{"a": {}}, []string{"a"}, nil, cfg)

	s.Pause()
	if !s.IsPaused() {
		t.Fatal("expected paused")
	}
	s.Pause() // repeat is a no-op
	s.Resume()
	if s.IsPaused() {
		t.Fatal("expected resumed")
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.states) != 2 || obs.states[0] != StatePaused || obs.states[1] != StateRunning {
		t.Errorf("expected [paused running], got %v", obs.states)
	}
}

func TestSetViewModeNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	cfg := DefaultConfig()
	cfg.Observer = obs
	s := FromGraph(testGraph{"a": {}}, []string{"a"}, nil, cfg)

	s.SetViewMode(ViewAll, FilterFailed)

	mode, filter := s.ViewMode()
	if mode != ViewAll || filter != FilterFailed {
		t.Errorf("expected all/failed, got %s/%s", mode, filter)
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.modes) != 1 || obs.modes[0] != ViewAll {
		t.Errorf("expected one view mode notification, got %v", obs.modes)
	}
}
