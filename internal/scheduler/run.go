package scheduler

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// PublishFunc performs the publish operation for a single package. An error
// return is a retryable failure; a context error triggers the cancellation
// path instead of a retry.
type PublishFunc func(ctx context.Context, pkg string) error

// Run executes the publish plan and blocks until every package has reached a
// terminal state, no remaining package can ever become ready, or ctx is
// cancelled. Cancellation is absorbed: Run returns the result of the work
// already completed, and packages that were never dequeued are simply absent
// from all three collections.
func (s *Scheduler) Run(ctx context.Context, fn PublishFunc) *Result {
	s.mu.Lock()
	var seeds []string
	for name, node := range s.nodes {
		if node.RemainingDeps == 0 {
			seeds = append(seeds, name)
		}
	}
	sort.Slice(seeds, func(i, j int) bool {
		a, b := s.nodes[seeds[i]], s.nodes[seeds[j]]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return a.Name < b.Name
	})
	for _, name := range seeds {
		s.enqueueLocked(name)
	}
	if len(s.queue) == 0 {
		// Nothing can ever become ready: an empty selection, a graph
		// with no zero-dependency package, or everything withdrawn
		// before the run. Return instead of waiting on work that
		// cannot start.
		total := s.total
		s.mu.Unlock()
		s.logger.Warn("no seedable packages", "total", total)
		return s.snapshot()
	}
	concurrency := s.cfg.Concurrency
	s.mu.Unlock()

	// Cancellation token: a context watcher flips the stopped flag and
	// wakes every worker blocked on the queue. Workers poll the flag
	// between work items rather than being interrupted.
	watch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.stop()
		case <-watch:
		}
	}()

	workers := pool.New().WithMaxGoroutines(concurrency)
	for i := 0; i < concurrency; i++ {
		workers.Go(func() {
			s.worker(ctx, fn)
		})
	}
	workers.Wait()
	close(watch)

	return s.snapshot()
}

// stop requests cooperative shutdown of all workers.
func (s *Scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cond.Broadcast()
}

// worker loops dequeuing packages until the run finishes or is stopped.
func (s *Scheduler) worker(ctx context.Context, fn PublishFunc) {
	for {
		name, ok := s.next()
		if !ok {
			return
		}
		if s.skipCancelled(name) {
			continue
		}
		s.attempt(ctx, name, fn)
	}
}

// next blocks until a package can be dequeued. It returns false when the run
// has finished, was stopped, or has gone quiescent with packages whose
// dependencies can never be satisfied.
func (s *Scheduler) next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.stopped || s.completed >= s.total {
			return "", false
		}
		if !s.paused && len(s.queue) > 0 {
			name := s.queue[0]
			s.queue = s.queue[1:]
			s.running++
			return name, true
		}
		if !s.paused && s.running == 0 {
			// Quiescent with unfinished packages: nothing queued and
			// nobody running means the remaining dependencies can
			// never be satisfied. Stop instead of waiting forever.
			s.logger.Warn("no progress possible", "completed", s.completed, "total", s.total)
			s.stopped = true
			s.cond.Broadcast()
			return "", false
		}
		s.cond.Wait()
	}
}

// skipCancelled records a dequeued-but-withdrawn package as skipped without
// invoking the publish callback. A non-blocking withdrawal still counts as
// done for its dependents, exactly as removal before enqueue does. Returns
// true if the package was skipped.
func (s *Scheduler) skipCancelled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocked, ok := s.cancelled[name]
	if !ok {
		return false
	}
	if !blocked {
		for _, r := range s.markDoneLocked(name) {
			s.enqueueLocked(r)
		}
	}
	s.recordSkippedLocked(name)
	s.releaseWorkerLocked()
	return true
}

// attempt runs the publish callback with retry and backoff until it
// succeeds, exhausts its retries, or the context is cancelled.
func (s *Scheduler) attempt(ctx context.Context, name string, fn PublishFunc) {
	s.setStage(name, StageRunning)
	for att := 0; ; att++ {
		err := fn(ctx, name)
		if err == nil {
			s.completePackage(name)
			return
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			// Cancellation is absorbed at the Run boundary. The
			// package stays unrecorded and Run returns a partial
			// result.
			s.stop()
			s.release()
			return
		}
		if att >= s.cfg.MaxRetries {
			s.failPackage(name, err)
			return
		}
		s.setStage(name, StageRetrying)
		s.logger.Warn("publish failed, retrying",
			"package", name, "attempt", att+1, "error", err.Error())

		timer := time.NewTimer(s.backoff(att))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.stop()
			s.release()
			return
		case <-timer.C:
		}
	}
}

// backoff returns the delay before retry number attempt+1.
func (s *Scheduler) backoff(attempt int) time.Duration {
	return s.cfg.RetryBaseDelay << attempt
}

// completePackage records a successful publish, marks the package done, and
// enqueues every dependent that became ready.
func (s *Scheduler) completePackage(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markTerminalLocked(name) {
		s.published = append(s.published, name)
		s.observer.OnStage(name, StageDone)
		s.logger.Info("package published", "package", name)
		for _, r := range s.markDoneLocked(name) {
			s.enqueueLocked(r)
		}
	}
	s.releaseWorkerLocked()
}

// failPackage records a terminal failure and blocks every transitive
// dependent.
func (s *Scheduler) failPackage(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markTerminalLocked(name) {
		s.failed[name] = err.Error()
		s.observer.OnStage(name, StageFailed)
		s.logger.Error("package failed", "package", name, "error", err.Error())
		s.blockDependentsLocked(name)
	}
	s.releaseWorkerLocked()
}

func (s *Scheduler) setStage(name string, stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer.OnStage(name, stage)
}

func (s *Scheduler) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseWorkerLocked()
}

func (s *Scheduler) releaseWorkerLocked() {
	s.running--
	s.cond.Broadcast()
}

// snapshot copies the result collections under the lock.
func (s *Scheduler) snapshot() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := &Result{
		Published: append([]string(nil), s.published...),
		Failed:    make(map[string]string, len(s.failed)),
		Skipped:   append([]string(nil), s.skipped...),
	}
	for name, msg := range s.failed {
		res.Failed[name] = msg
	}
	return res
}
