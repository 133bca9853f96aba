package scheduler

// Result is the terminal outcome of a scheduler run.
type Result struct {
	// Published lists successfully published packages in completion order.
	Published []string `json:"published"`

	// Failed maps each package that exhausted its retries to the message
	// of its final error.
	Failed map[string]string `json:"failed,omitempty"`

	// Skipped lists packages that were withdrawn or blocked and never
	// executed.
	Skipped []string `json:"skipped,omitempty"`
}

// Ok reports whether the run completed without publish failures.
// Skipped packages do not count as failures.
func (r *Result) Ok() bool {
	return len(r.Failed) == 0
}

// Total returns the number of packages that reached a terminal state.
func (r *Result) Total() int {
	return len(r.Published) + len(r.Failed) + len(r.Skipped)
}
