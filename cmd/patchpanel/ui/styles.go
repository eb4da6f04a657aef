// Package ui is the interactive patchpanel: a bubbletea program over a
// session.Session with light/dark themes.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"patchpanel/internal/catalog"
)

// Palette
var (
	LightBackground = lipgloss.Color("#f4f5f6")
	LightForeground = lipgloss.Color("#1b1530")
	LightPrimary    = lipgloss.Color("#4c2a85")
	LightAccent     = lipgloss.Color("#7c4dff")
	LightMuted      = lipgloss.Color("#8a8f98")
	LightBorder     = lipgloss.Color("#dce0e5")
	LightCard       = lipgloss.Color("#ffffff")

	DarkBackground = lipgloss.Color("#0d0b14")
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#b388ff")
	DarkAccent     = lipgloss.Color("#00e5ff")
	DarkMuted      = lipgloss.Color("#6b7080")
	DarkBorder     = lipgloss.Color("#2a2540")
	DarkCard       = lipgloss.Color("#17132a")

	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#43a047")
	Warning     = lipgloss.Color("#ffc107")
	Info        = lipgloss.Color("#2196f3")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme picks dark mode from COLORFGBG or PATCHPANEL_DARK_MODE=1.
func DetectTheme() Theme {
	// COLORFGBG is "foreground;background"; indexes 0-6 and 8 are dark.
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	if os.Getenv("PATCHPANEL_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Cursor   lipgloss.Style
	AppTab   lipgloss.Style
	AppTabOn lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	CodeBlock lipgloss.Style
	Pane      lipgloss.Style
	Badge     lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),
		Cursor: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
		AppTab: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
		AppTabOn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Accent).
			Padding(0, 1).
			Bold(true),

		Success: lipgloss.NewStyle().Foreground(Success).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(Warning).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(Info),

		CodeBlock: lipgloss.NewStyle().
			Background(theme.Card).
			Foreground(theme.Foreground).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		Badge: lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// StatusBadge renders a compatibility status label.
func (s Styles) StatusBadge(st catalog.CompatibilityStatus) string {
	switch st {
	case catalog.StatusVerified:
		return s.Badge.Foreground(Success).Render("VERIFIED")
	case catalog.StatusWarning:
		return s.Badge.Foreground(Warning).Render("WARNING")
	case catalog.StatusIncompatible:
		return s.Badge.Foreground(Destructive).Render("INCOMPATIBLE")
	default:
		return s.Badge.Foreground(s.Theme.Muted).Render("UNKNOWN")
	}
}

// LogLine renders a log entry with its level color.
func (s Styles) LogLine(e catalog.LogEntry) string {
	var style lipgloss.Style
	switch e.Level {
	case catalog.LevelSuccess:
		style = s.Success
	case catalog.LevelError:
		style = s.Error
	case catalog.LevelWarn:
		style = s.Warning
	default:
		style = s.Info
	}
	return s.Muted.Render("["+e.Timestamp+"]") + " " + style.Render(e.Message)
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Muted.Render(strings.Repeat("─", width))
}
