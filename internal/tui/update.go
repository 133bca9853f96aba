package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/shipyard/internal/scheduler"
)

// Messages delivered by the event bridge in wire.go.
type (
	// StageMsg reports a package stage transition.
	StageMsg struct {
		Package string
		Stage   scheduler.Stage
		FailMsg string
	}

	// StateMsg reports a scheduler pause or resume.
	StateMsg struct {
		State scheduler.State
	}

	// ViewModeMsg reports a display mode change made elsewhere.
	ViewModeMsg struct {
		Mode   scheduler.ViewMode
		Filter scheduler.DisplayFilter
	}

	// PackageAddedMsg reports a package discovered mid-run.
	PackageAddedMsg struct {
		Package string
		Level   int
	}

	// PackageRemovedMsg reports a package withdrawn mid-run.
	PackageRemovedMsg struct {
		Package string
	}

	// FinishedMsg reports the end of the run with its result.
	FinishedMsg struct {
		Result *scheduler.Result
	}
)

// Update routes messages to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StageMsg:
		if r, ok := m.index[msg.Package]; ok {
			r.stage = msg.Stage
			if msg.FailMsg != "" {
				r.failMsg = msg.FailMsg
			}
		}
		return m, nil

	case StateMsg:
		m.paused = msg.State == scheduler.StatePaused
		return m, nil

	case ViewModeMsg:
		m.mode = msg.Mode
		m.filter = msg.Filter
		return m, nil

	case PackageAddedMsg:
		if _, ok := m.index[msg.Package]; !ok {
			r := &row{name: msg.Package, level: msg.Level, stage: scheduler.StageWaiting}
			m.rows = append(m.rows, r)
			m.index[msg.Package] = r
			m.total++
		}
		return m, nil

	case PackageRemovedMsg:
		if r, ok := m.index[msg.Package]; ok && !r.stage.IsTerminal() {
			r.stage = scheduler.StageSkipped
		}
		return m, nil

	case FinishedMsg:
		m.finished = true
		m.result = msg.Result
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.finished {
			return m, tea.Quit
		}
		// Cancel the run; the FinishedMsg that follows quits the program.
		m.quitting = true
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil

	case "p":
		return m, controllerCmd(m.controller.Pause)

	case "r":
		return m, controllerCmd(m.controller.Resume)

	case "v":
		if m.mode == scheduler.ViewWindow {
			m.mode = scheduler.ViewAll
		} else {
			m.mode = scheduler.ViewWindow
		}
		return m, setViewModeCmd(m.controller, m.mode, m.filter)

	case "f":
		m.filter = nextFilter(m.filter)
		return m, setViewModeCmd(m.controller, m.mode, m.filter)
	}

	return m, nil
}

// controllerCmd defers a controller call to a command. Controller methods
// fire observer callbacks that re-enter the program through Send, so they
// must never run on the goroutine that is draining the message queue.
func controllerCmd(call func()) tea.Cmd {
	return func() tea.Msg {
		call()
		return nil
	}
}

func setViewModeCmd(c Controller, mode scheduler.ViewMode, filter scheduler.DisplayFilter) tea.Cmd {
	return func() tea.Msg {
		c.SetViewMode(mode, filter)
		return nil
	}
}

func nextFilter(f scheduler.DisplayFilter) scheduler.DisplayFilter {
	switch f {
	case scheduler.FilterAll:
		return scheduler.FilterActive
	case scheduler.FilterActive:
		return scheduler.FilterFailed
	default:
		return scheduler.FilterAll
	}
}
