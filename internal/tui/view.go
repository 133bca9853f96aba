package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/shipyard/internal/scheduler"
	"github.com/Iron-Ham/shipyard/internal/util"
)

// View renders the current run state.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	visible := m.visibleRows()
	for _, r := range visible {
		b.WriteString(m.viewRow(r))
		b.WriteString("\n")
	}
	if hidden := len(m.filteredRows()) - len(visible); hidden > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d more", hidden)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m Model) viewHeader() string {
	title := "shipyard"
	if m.title != "" {
		title = "shipyard · " + m.title
	}

	done, failed, skipped := m.counts()
	progress := fmt.Sprintf("%d/%d published", done, m.total)
	if failed > 0 {
		progress += errorStyle.Render(fmt.Sprintf("  %d failed", failed))
	}
	if skipped > 0 {
		progress += mutedStyle.Render(fmt.Sprintf("  %d skipped", skipped))
	}

	status := m.spinner.View()
	switch {
	case m.finished:
		status = ""
	case m.quitting:
		status = warningStyle.Render("cancelling…")
	case m.paused:
		status = pausedStyle.Render("⏸ paused")
	}

	line := titleStyle.Render(title) + "  " + headerStyle.Render(progress)
	if status != "" {
		line += "  " + status
	}
	return line
}

func (m Model) viewRow(r *row) string {
	glyph, style := stageGlyph(r.stage, m.spinner.View())
	indent := strings.Repeat("  ", r.level)
	line := fmt.Sprintf("  %s %s%s", glyph, indent, pkgNameStyle.Render(r.name))
	if r.stage == scheduler.StageFailed && r.failMsg != "" {
		line += "  " + errorMsgStyle.Render(util.TruncateString(r.failMsg, 60))
	} else if !r.stage.IsTerminal() && r.stage != scheduler.StageRunning {
		line += "  " + style.Render(r.stage.String())
	}
	return line
}

func (m Model) viewFooter() string {
	pauseKey := "p pause"
	if m.paused {
		pauseKey = "r resume"
	}
	mode := "window"
	if m.mode == scheduler.ViewAll {
		mode = "all"
	}
	return helpStyle.Render(fmt.Sprintf("%s · v view (%s) · f filter (%s) · q quit",
		pauseKey, mode, m.filter))
}

// filteredRows applies the display filter.
func (m Model) filteredRows() []*row {
	if m.filter == scheduler.FilterAll {
		return m.rows
	}
	var out []*row
	for _, r := range m.rows {
		switch m.filter {
		case scheduler.FilterActive:
			if r.stage == scheduler.StageReady ||
				r.stage == scheduler.StageRunning ||
				r.stage == scheduler.StageRetrying {
				out = append(out, r)
			}
		case scheduler.FilterFailed:
			if r.stage == scheduler.StageFailed || r.stage == scheduler.StageBlocked {
				out = append(out, r)
			}
		}
	}
	return out
}

// visibleRows applies the view mode to the filtered rows. Window mode shows
// a sliding window positioned at the first non-terminal row so finished
// work scrolls off while upcoming work stays in sight.
func (m Model) visibleRows() []*row {
	rows := m.filteredRows()
	if m.mode == scheduler.ViewAll || len(rows) <= m.windowSize {
		return rows
	}

	start := 0
	for i, r := range rows {
		if !r.stage.IsTerminal() {
			start = i
			break
		}
	}
	// Keep one line of completed context above the window when possible.
	if start > 0 {
		start--
	}
	if start+m.windowSize > len(rows) {
		start = len(rows) - m.windowSize
	}
	return rows[start : start+m.windowSize]
}

func stageGlyph(stage scheduler.Stage, spinnerView string) (string, lipgloss.Style) {
	switch stage {
	case scheduler.StageWaiting:
		return mutedStyle.Render("·"), mutedStyle
	case scheduler.StageReady:
		return activeStyle.Render("○"), activeStyle
	case scheduler.StageRunning:
		return spinnerView, activeStyle
	case scheduler.StageRetrying:
		return warningStyle.Render("↻"), warningStyle
	case scheduler.StageDone:
		return successStyle.Render("✓"), successStyle
	case scheduler.StageFailed:
		return errorStyle.Render("✗"), errorStyle
	case scheduler.StageBlocked:
		return errorStyle.Render("⊘"), mutedStyle
	case scheduler.StageSkipped:
		return mutedStyle.Render("−"), mutedStyle
	default:
		return " ", mutedStyle
	}
}
