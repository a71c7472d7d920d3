package output

import "github.com/charmbracelet/lipgloss"

// Colours from the ANSI 256-colour palette.
const (
	ColorWarning = lipgloss.Color("214")
	ColorDanger  = lipgloss.Color("196")
	ColorSuccess = lipgloss.Color("42")
	ColorMuted   = lipgloss.Color("245")
)

var (
	// WarningStyle renders warning lines.
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	// ErrorStyle renders error lines.
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorDanger)

	// SuccessStyle renders a successful result.
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)

	// MutedStyle renders secondary text.
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)
