// Package scheduler implements the dependency-triggered concurrent engine
// that publishes a multi-package workspace in topological order.
//
// A [Scheduler] is built once per run from a [DependencyGraph] via
// [FromGraph], which keeps only the packages selected for publishing and
// counts, per package, the dependencies that still stand between it and the
// ready queue. [Scheduler.Run] seeds the queue with every package whose count
// is already zero and drains it with a bounded pool of workers; completing a
// package decrements the counts of its dependents and enqueues any that reach
// zero.
//
// Failures are retried with exponential backoff. A package that exhausts its
// retries is recorded as failed and every transitive dependent is blocked,
// never executed. The graph can be mutated while a run is active:
// [Scheduler.AddPackage] and [Scheduler.RemovePackage] are safe to call from
// inside a publish callback or from another goroutine, as are
// [Scheduler.Pause] and [Scheduler.Resume].
//
// The engine never deadlocks on malformed input. If no package can ever
// become ready (an empty selection, or a dependency cycle), Run returns a
// fail-safe partial result instead of waiting on work that cannot start.
// Cancellation of the surrounding context is absorbed at the Run boundary and
// also yields a partial result.
package scheduler
