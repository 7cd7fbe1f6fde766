// Package styles provides reusable lipgloss styles for dcg's interactive
// confirm prompt.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dcg-project/dcg/internal/tui/theme"
)

// Styles contains all the styled lipgloss renderers.
type Styles struct {
	// Title styles
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	SectionHead lipgloss.Style

	// Text styles
	Normal    lipgloss.Style
	Dimmed    lipgloss.Style
	Bold      lipgloss.Style
	Highlight lipgloss.Style

	// Response-level badge styles
	BadgeWarning   lipgloss.Style
	BadgeSoftBlock lipgloss.Style
	BadgeHardBlock lipgloss.Style

	// Severity badge styles
	SeverityCritical lipgloss.Style
	SeverityHigh     lipgloss.Style
	SeverityMedium   lipgloss.Style
	SeverityLow      lipgloss.Style

	// Container styles
	Panel      lipgloss.Style
	CommandBox lipgloss.Style
	Card       lipgloss.Style
	Selected   lipgloss.Style

	// Layout helpers
	Border   lipgloss.Style
	NoBorder lipgloss.Style
	Padded   lipgloss.Style
	Centered lipgloss.Style
}

// New creates a new Styles instance from the current theme.
func New() *Styles {
	return FromTheme(theme.Current)
}

// FromTheme creates styles from a specific theme.
func FromTheme(t *theme.Theme) *Styles {
	s := &Styles{}

	s.Title = lipgloss.NewStyle().
		Foreground(t.Mauve).
		Bold(true)

	s.Subtitle = lipgloss.NewStyle().
		Foreground(t.Subtext).
		Italic(true)

	s.SectionHead = lipgloss.NewStyle().
		Foreground(t.Blue).
		Bold(true).
		MarginTop(1).
		MarginBottom(1)

	s.Normal = lipgloss.NewStyle().
		Foreground(t.Text)

	s.Dimmed = lipgloss.NewStyle().
		Foreground(t.Subtext)

	s.Bold = lipgloss.NewStyle().
		Foreground(t.Text).
		Bold(true)

	s.Highlight = lipgloss.NewStyle().
		Foreground(t.Pink).
		Bold(true)

	badgeBase := lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true)

	s.BadgeWarning = badgeBase.
		Foreground(t.Base).
		Background(t.Yellow)

	s.BadgeSoftBlock = badgeBase.
		Foreground(t.Base).
		Background(t.Peach)

	s.BadgeHardBlock = badgeBase.
		Foreground(t.Base).
		Background(t.Red)

	s.SeverityCritical = badgeBase.
		Foreground(t.Base).
		Background(t.Red)

	s.SeverityHigh = badgeBase.
		Foreground(t.Base).
		Background(t.Peach)

	s.SeverityMedium = badgeBase.
		Foreground(t.Base).
		Background(t.Yellow)

	s.SeverityLow = badgeBase.
		Foreground(t.Base).
		Background(t.Teal)

	s.Panel = lipgloss.NewStyle().
		Background(t.Surface).
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Overlay0)

	s.CommandBox = lipgloss.NewStyle().
		Background(t.Mantle).
		Foreground(t.Green).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Overlay0)

	s.Card = lipgloss.NewStyle().
		Background(t.Surface0).
		Padding(1, 2).
		Border(lipgloss.NormalBorder()).
		BorderForeground(t.Overlay0)

	s.Selected = lipgloss.NewStyle().
		Background(t.Surface1).
		Border(lipgloss.ThickBorder()).
		BorderForeground(t.Mauve)

	s.Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Overlay0)

	s.NoBorder = lipgloss.NewStyle().
		Border(lipgloss.HiddenBorder())

	s.Padded = lipgloss.NewStyle().
		Padding(1, 2)

	s.Centered = lipgloss.NewStyle().
		Align(lipgloss.Center)

	return s
}

// ResponseLevelBadge returns the appropriate badge style for a response level.
func (s *Styles) ResponseLevelBadge(level string) lipgloss.Style {
	switch level {
	case "warning":
		return s.BadgeWarning
	case "soft_block":
		return s.BadgeSoftBlock
	case "hard_block":
		return s.BadgeHardBlock
	default:
		return s.Dimmed
	}
}

// SeverityBadge returns the appropriate badge style for a severity.
func (s *Styles) SeverityBadge(severity string) lipgloss.Style {
	switch severity {
	case "critical":
		return s.SeverityCritical
	case "high":
		return s.SeverityHigh
	case "medium":
		return s.SeverityMedium
	case "low":
		return s.SeverityLow
	default:
		return s.Dimmed
	}
}

// RenderResponseLevelBadge renders a response level as a styled badge.
func (s *Styles) RenderResponseLevelBadge(level string) string {
	icon := theme.ResponseLevelIcon(level)
	return s.ResponseLevelBadge(level).Render(icon + " " + level)
}

// RenderSeverityBadge renders a severity as a styled badge.
func (s *Styles) RenderSeverityBadge(severity string) string {
	emoji := theme.SeverityEmoji(severity)
	return s.SeverityBadge(severity).Render(emoji + " " + severity)
}
