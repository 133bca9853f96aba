package scheduler

import (
	"sort"
	"sync"

	"github.com/Iron-Ham/shipyard/internal/logging"
)

// Scheduler owns the package node map and the ready queue. All bookkeeping
// mutations run to completion under one mutex and are therefore atomic with
// respect to each other; only the publish callback itself executes unlocked.
// A Scheduler is built once per run, mutated throughout Run, and discarded
// afterward.
type Scheduler struct {
	cfg      Config
	observer PublishObserver
	logger   *logging.Logger

	mu    sync.Mutex
	cond  *sync.Cond
	nodes map[string]*PackageNode

	queue     []string
	enqueued  map[string]struct{} // placed on the ready queue at some point
	done      map[string]struct{} // completed; satisfies dependents
	cancelled map[string]bool     // withdrawn or blocked, never executed; true keeps dependents blocked
	terminal  map[string]struct{} // recorded in exactly one result collection

	paused  bool
	stopped bool
	running int // workers currently holding a dequeued package

	completed int
	total     int

	published []string
	failed    map[string]string
	skipped   []string

	viewMode ViewMode
	filter   DisplayFilter
}

// FromGraph builds a Scheduler for the packages in publishable that are not
// already published. Dependencies outside the publishable set, or already
// published, are dropped entirely and never counted, so a package whose only
// dependencies are out of scope is immediately schedulable.
func FromGraph(graph DependencyGraph, publishable, alreadyPublished []string, cfg Config) *Scheduler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultConfig().RetryBaseDelay
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	pub := make(map[string]struct{}, len(publishable))
	for _, name := range publishable {
		pub[name] = struct{}{}
	}
	pre := make(map[string]struct{}, len(alreadyPublished))
	for _, name := range alreadyPublished {
		pre[name] = struct{}{}
	}

	// Retained dependency edges: both endpoints must be publishable and
	// not already published.
	retained := make(map[string][]string, len(pub))
	for name := range pub {
		if _, ok := pre[name]; ok {
			continue
		}
		seen := make(map[string]struct{})
		var deps []string
		for _, dep := range graph.DependenciesOf(name) {
			if dep == name {
				continue
			}
			if _, dup := seen[dep]; dup {
				continue
			}
			if _, ok := pub[dep]; !ok {
				continue
			}
			if _, ok := pre[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			deps = append(deps, dep)
		}
		retained[name] = deps
	}

	levels := make(map[string]int, len(retained))
	var depth func(name string, onStack map[string]struct{}) int
	depth = func(name string, onStack map[string]struct{}) int {
		if lvl, ok := levels[name]; ok {
			return lvl
		}
		if _, ok := onStack[name]; ok {
			// The graph is assumed acyclic; a back edge here means
			// malformed input. Treat it as a leaf so construction
			// still terminates.
			return 0
		}
		onStack[name] = struct{}{}
		lvl := 0
		for _, dep := range retained[name] {
			if d := depth(dep, onStack) + 1; d > lvl {
				lvl = d
			}
		}
		delete(onStack, name)
		levels[name] = lvl
		return lvl
	}

	nodes := make(map[string]*PackageNode, len(retained))
	for name, deps := range retained {
		nodes[name] = &PackageNode{
			Name:          name,
			RemainingDeps: len(deps),
			Level:         depth(name, make(map[string]struct{})),
		}
	}
	for name, deps := range retained {
		for _, dep := range deps {
			nodes[dep].Dependents = append(nodes[dep].Dependents, name)
		}
	}
	// Deterministic dependent order keeps logs and tests stable.
	for _, node := range nodes {
		sort.Strings(node.Dependents)
	}

	s := &Scheduler{
		cfg:       cfg,
		observer:  observer,
		logger:    logger,
		nodes:     nodes,
		enqueued:  make(map[string]struct{}),
		done:      make(map[string]struct{}),
		cancelled: make(map[string]bool),
		terminal:  make(map[string]struct{}),
		failed:    make(map[string]string),
		total:     len(nodes),
		viewMode:  ViewWindow,
		filter:    FilterAll,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// MarkDone records name as completed and decrements the remaining-dependency
// count of every dependent still in the node map; dependents absent from the
// map are silently ignored. It returns the names whose count reached zero as
// a result. MarkDone is idempotent: repeat calls return nothing and mutate
// nothing.
func (s *Scheduler) MarkDone(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markDoneLocked(name)
}

func (s *Scheduler) markDoneLocked(name string) []string {
	if _, ok := s.done[name]; ok {
		return nil
	}
	s.done[name] = struct{}{}
	node, ok := s.nodes[name]
	if !ok {
		return nil
	}
	var ready []string
	for _, dep := range node.Dependents {
		dn, ok := s.nodes[dep]
		if !ok {
			continue
		}
		if dn.RemainingDeps == 0 {
			continue
		}
		dn.RemainingDeps--
		if dn.RemainingDeps == 0 {
			ready = append(ready, dep)
		}
	}
	return ready
}

// AddPackage registers a package discovered after construction. Only deps
// entries that refer to known, not-yet-done packages are counted; unknown
// dependencies are ignored and never block. If no dependency remains unmet
// the package is enqueued immediately. AddPackage returns false if the name
// is already present. It is safe to call while Run is executing.
func (s *Scheduler) AddPackage(name string, deps []string, level int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[name]; exists {
		return false
	}

	remaining := 0
	seen := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		if dep == name {
			continue
		}
		if _, dup := seen[dep]; dup {
			continue
		}
		seen[dep] = struct{}{}
		dn, known := s.nodes[dep]
		if !known {
			continue
		}
		if _, isDone := s.done[dep]; isDone {
			continue
		}
		dn.Dependents = append(dn.Dependents, name)
		remaining++
	}

	s.nodes[name] = &PackageNode{Name: name, RemainingDeps: remaining, Level: level}
	s.total++
	s.logger.Debug("package added", "package", name, "remaining_deps", remaining)

	if remaining == 0 {
		s.enqueueLocked(name)
	}
	return true
}

// RemovePackage withdraws a package from the run. It returns false for
// unknown or already-completed names. Without blockDependents, the package
// is marked done, so its dependents still unblock, and recorded as skipped;
// for one already on the queue both happen when a worker dequeues it. With
// blockDependents, every not-yet-done transitive dependent is additionally
// blocked and recorded as skipped.
func (s *Scheduler) RemovePackage(name string, blockDependents bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[name]; !ok {
		return false
	}
	if _, ok := s.done[name]; ok {
		return false
	}
	if _, ok := s.terminal[name]; ok {
		return false
	}

	s.cancelled[name] = blockDependents
	s.logger.Info("package removed", "package", name, "block_dependents", blockDependents)
	_, enqueued := s.enqueued[name]

	if blockDependents {
		if !enqueued {
			s.recordSkippedLocked(name)
		}
		s.blockDependentsLocked(name)
		return true
	}

	if !enqueued {
		ready := s.markDoneLocked(name)
		s.recordSkippedLocked(name)
		for _, r := range ready {
			s.enqueueLocked(r)
		}
	}
	return true
}

// Pause stops workers from starting new packages. In-flight publish calls
// are never aborted by a pause.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.observer.OnSchedulerState(StatePaused)
	s.logger.Info("scheduler paused")
}

// Resume lets workers dequeue packages again.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	s.observer.OnSchedulerState(StateRunning)
	s.logger.Info("scheduler resumed")
	s.cond.Broadcast()
}

// IsPaused reports whether the pause gate is set.
func (s *Scheduler) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetViewMode forwards presentation hints to the observer. The hints are
// stored for introspection but never influence scheduling.
func (s *Scheduler) SetViewMode(mode ViewMode, filter DisplayFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewMode = mode
	s.filter = filter
	s.observer.OnViewMode(mode, filter)
}

// ViewMode returns the current presentation hints.
func (s *Scheduler) ViewMode() (ViewMode, DisplayFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewMode, s.filter
}

// Node returns a copy of the named package node, or nil if unknown.
func (s *Scheduler) Node(name string) *PackageNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[name]
	if !ok {
		return nil
	}
	cp := *node
	cp.Dependents = append([]string(nil), node.Dependents...)
	return &cp
}

// Total returns the number of packages currently known to the scheduler.
func (s *Scheduler) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// enqueueLocked places name on the ready queue unless it has already been
// enqueued or reached a terminal state.
func (s *Scheduler) enqueueLocked(name string) {
	if _, ok := s.enqueued[name]; ok {
		return
	}
	if _, ok := s.terminal[name]; ok {
		return
	}
	if _, ok := s.done[name]; ok {
		return
	}
	s.enqueued[name] = struct{}{}
	s.queue = append(s.queue, name)
	s.observer.OnStage(name, StageReady)
	s.cond.Broadcast()
}

// blockDependentsLocked cancels every not-yet-done transitive dependent of
// name. The recursion stops at done nodes and no-ops on unknown names.
func (s *Scheduler) blockDependentsLocked(name string) {
	node, ok := s.nodes[name]
	if !ok {
		return
	}
	for _, dep := range node.Dependents {
		if _, ok := s.done[dep]; ok {
			continue
		}
		if _, ok := s.cancelled[dep]; ok {
			continue
		}
		s.cancelled[dep] = true
		s.observer.OnStage(dep, StageBlocked)
		s.logger.Debug("dependent blocked", "package", dep, "cause", name)
		if _, enqueued := s.enqueued[dep]; !enqueued {
			s.recordSkippedLocked(dep)
		}
		s.blockDependentsLocked(dep)
	}
}

// recordSkippedLocked moves name to the skipped collection exactly once.
func (s *Scheduler) recordSkippedLocked(name string) {
	if !s.markTerminalLocked(name) {
		return
	}
	s.skipped = append(s.skipped, name)
	s.observer.OnStage(name, StageSkipped)
}

// markTerminalLocked records that name reached a terminal state. It returns
// false if the package was already recorded.
func (s *Scheduler) markTerminalLocked(name string) bool {
	if _, ok := s.terminal[name]; ok {
		return false
	}
	s.terminal[name] = struct{}{}
	s.completed++
	if s.completed >= s.total {
		s.cond.Broadcast()
	}
	return true
}
