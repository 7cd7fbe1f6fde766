// Package theme provides theming for dcg's interactive confirm prompt.
package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines a color scheme for the TUI.
type Theme struct {
	// Primary colors
	Mauve   lipgloss.Color // Titles, accents
	Blue    lipgloss.Color // Section headers, links
	Green   lipgloss.Color // Success, approved, commands
	Yellow  lipgloss.Color // Warning, caution tier
	Red     lipgloss.Color // Error, critical tier
	Peach   lipgloss.Color // Dangerous tier
	Teal    lipgloss.Color // Info, secondary
	Pink    lipgloss.Color // Highlights
	Flamingo lipgloss.Color // Alternative accent

	// Text colors
	Text    lipgloss.Color // Normal text
	Subtext lipgloss.Color // Dimmed text

	// Surface colors
	Surface  lipgloss.Color // Panels, boxes
	Surface0 lipgloss.Color // Lighter surface
	Surface1 lipgloss.Color // Even lighter surface
	Base     lipgloss.Color // Background
	Mantle   lipgloss.Color // Darker background
	Crust    lipgloss.Color // Darkest background

	// Overlay colors
	Overlay0 lipgloss.Color
	Overlay1 lipgloss.Color
	Overlay2 lipgloss.Color

	// Meta
	Name   string
	IsDark bool
}

// FlavorName represents a Catppuccin flavor.
type FlavorName string

const (
	FlavorMocha     FlavorName = "mocha"
	FlavorMacchiato FlavorName = "macchiato"
	FlavorFrappe    FlavorName = "frappe"
	FlavorLatte     FlavorName = "latte"
)

// Current holds the active theme.
var Current = Mocha()

// SetTheme sets the current theme by flavor name.
func SetTheme(flavor FlavorName) {
	switch flavor {
	case FlavorMocha:
		Current = Mocha()
	case FlavorMacchiato:
		Current = Macchiato()
	case FlavorFrappe:
		Current = Frappe()
	case FlavorLatte:
		Current = Latte()
	default:
		Current = Mocha()
	}
}

// SeverityColor returns the color for a catalog pattern severity
// (spec.md §3: low < medium < high < critical).
func (t *Theme) SeverityColor(severity string) lipgloss.Color {
	switch severity {
	case "critical":
		return t.Red
	case "high":
		return t.Peach
	case "medium":
		return t.Yellow
	case "low":
		return t.Teal
	default:
		return t.Text
	}
}

// ResponseLevelColor returns the color for a graduated response level
// (spec.md §4.8.1: warning < soft_block < hard_block).
func (t *Theme) ResponseLevelColor(level string) lipgloss.Color {
	switch level {
	case "hard_block":
		return t.Red
	case "soft_block":
		return t.Peach
	case "warning":
		return t.Yellow
	default:
		return t.Text
	}
}

// SeverityEmoji returns the emoji for a catalog pattern severity.
func SeverityEmoji(severity string) string {
	switch severity {
	case "critical":
		return "🔴"
	case "high":
		return "🟠"
	case "medium":
		return "🟡"
	case "low":
		return "🔵"
	default:
		return "⚪"
	}
}

// ResponseLevelIcon returns the icon for a graduated response level.
func ResponseLevelIcon(level string) string {
	switch level {
	case "hard_block":
		return "⛔"
	case "soft_block":
		return "✗"
	case "warning":
		return "⚠"
	default:
		return "?"
	}
}
