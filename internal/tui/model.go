// Package tui renders live publish progress with bubbletea. It consumes
// events from the bus and drives the scheduler through a small controller
// interface, so it never touches scheduler internals.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/shipyard/internal/scheduler"
)

// Controller is the slice of the scheduler the TUI is allowed to drive.
type Controller interface {
	Pause()
	Resume()
	IsPaused() bool
	SetViewMode(mode scheduler.ViewMode, filter scheduler.DisplayFilter)
}

var _ Controller = (*scheduler.Scheduler)(nil)

// row is the display state of one package.
type row struct {
	name    string
	level   int
	stage   scheduler.Stage
	failMsg string
}

// Model is the bubbletea model for a publish run.
type Model struct {
	controller Controller
	cancel     context.CancelFunc

	title      string
	rows       []*row
	index      map[string]*row
	mode       scheduler.ViewMode
	filter     scheduler.DisplayFilter
	windowSize int

	spinner  spinner.Model
	width    int
	height   int
	paused   bool
	finished bool
	quitting bool
	result   *scheduler.Result
	total    int
}

// Options configures a Model.
type Options struct {
	// Title is shown in the header, usually the workspace name
	Title string
	// Packages are the initial package names with display levels, in the
	// order they should appear
	Packages []PackageInfo
	// Mode and Filter are the initial display settings
	Mode   scheduler.ViewMode
	Filter scheduler.DisplayFilter
	// WindowSize is the row budget for window mode
	WindowSize int
	// Cancel aborts the run; bound to the quit key
	Cancel context.CancelFunc
}

// PackageInfo seeds one display row.
type PackageInfo struct {
	Name  string
	Level int
}

// New creates a Model over the given controller.
func New(controller Controller, opts Options) Model {
	if opts.WindowSize < 1 {
		opts.WindowSize = 12
	}
	if opts.Mode == "" {
		opts.Mode = scheduler.ViewWindow
	}
	if opts.Filter == "" {
		opts.Filter = scheduler.FilterAll
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	m := Model{
		controller: controller,
		cancel:     opts.Cancel,
		title:      opts.Title,
		index:      make(map[string]*row, len(opts.Packages)),
		mode:       opts.Mode,
		filter:     opts.Filter,
		windowSize: opts.WindowSize,
		spinner:    sp,
		total:      len(opts.Packages),
	}
	for _, info := range opts.Packages {
		r := &row{name: info.Name, level: info.Level, stage: scheduler.StageWaiting}
		m.rows = append(m.rows, r)
		m.index[info.Name] = r
	}
	return m
}

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Result returns the final run result once the run has finished.
func (m Model) Result() *scheduler.Result {
	return m.result
}

// counts tallies rows by terminal outcome.
func (m Model) counts() (done, failed, skipped int) {
	for _, r := range m.rows {
		switch r.stage {
		case scheduler.StageDone:
			done++
		case scheduler.StageFailed:
			failed++
		case scheduler.StageSkipped, scheduler.StageBlocked:
			skipped++
		}
	}
	return done, failed, skipped
}
