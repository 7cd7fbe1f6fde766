package hookio

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/utils"
)

// Catppuccin Mocha palette, matching internal/cli's quick-reference card.
var (
	colorRed    = lipgloss.Color("#f38ba8")
	colorPeach  = lipgloss.Color("#fab387")
	colorYellow = lipgloss.Color("#f9e2af")
	colorBlue   = lipgloss.Color("#89b4fa")
	colorText   = lipgloss.Color("#cdd6f4")
	colorMuted  = lipgloss.Color("#6c7086")
)

func levelStyle(level engine.ResponseLevel) (lipgloss.Color, string) {
	switch level {
	case engine.LevelHardBlock:
		return colorRed, "BLOCKED"
	case engine.LevelSoftBlock:
		return colorPeach, "BLOCKED"
	default:
		return colorYellow, "WARNING"
	}
}

// robotMode reports whether DCG_ROBOT asks for undecorated,
// machine-consumable rendering (spec.md §6 "Environment overrides") — it
// drops box-drawing as well as color.
func robotMode() bool { return os.Getenv("DCG_ROBOT") != "" }

// colorDisabled reports whether color should be stripped from the
// rendered box: DCG_NO_COLOR disables color only, DCG_ROBOT implies it
// (spec.md §6 "Environment overrides"). charmbracelet/log's own output
// already honors the standard NO_COLOR convention independently.
func colorDisabled() bool { return robotMode() || os.Getenv("DCG_NO_COLOR") != "" }

// RenderWarningBox renders the human-readable stderr box accompanying a
// Deny or Warn decision (spec.md §6: "a human-readable warning box on
// stderr"). Grounded on internal/cli's lipgloss quick-reference card
// styling.
func RenderWarningBox(d engine.Decision, rawCommand string) string {
	accent, label := levelStyle(d.ResponseLevel)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(
		fmt.Sprintf("%s — %s", label, d.RuleID))

	var lines []string
	lines = append(lines, title, "")
	lines = append(lines, lipgloss.NewStyle().Foreground(colorText).Render(d.Reason))
	lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render("command: "+rawCommand))

	if d.SessionThreshold > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render(
			fmt.Sprintf("session: %d/%d  history: %d/%d", d.SessionOccurrence, d.SessionThreshold, d.HistoryOccurrence, d.HistoryThreshold)))
	}

	if d.ConfirmCode != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorBlue).Render(
			"confirm: dcg confirm "+d.ConfirmCode))
	}
	if d.AllowOnceCode != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorBlue).Render(
			"override: dcg allow-once "+d.AllowOnceCode))
	}

	body := strings.Join(lines, "\n")
	border := lipgloss.RoundedBorder()
	if robotMode() {
		border = lipgloss.NormalBorder()
	}
	box := lipgloss.NewStyle().
		Border(border).
		BorderForeground(accent).
		Padding(0, 1)
	rendered := box.Render(body)
	if colorDisabled() {
		rendered = utils.StripANSI(rendered)
	}
	return rendered
}
