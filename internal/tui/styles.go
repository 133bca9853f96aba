package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#F87171") // Red
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	blueColor    = lipgloss.Color("#60A5FA") // Blue
	textColor    = lipgloss.Color("#F9FAFB") // Light text

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	pausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(blueColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	pkgNameStyle = lipgloss.NewStyle().
			Foreground(textColor)

	successStyle  = lipgloss.NewStyle().Foreground(successColor)
	warningStyle  = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	activeStyle   = lipgloss.NewStyle().Foreground(blueColor)
	errorMsgStyle = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
)
