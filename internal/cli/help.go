// Package cli implements colorized help and quick reference card using lipgloss.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cheatsheetCmd = &cobra.Command{
	Use:   "cheatsheet",
	Short: "Print a colorized one-page command reference",
	RunE: func(cmd *cobra.Command, args []string) error {
		showQuickReference()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cheatsheetCmd)
}

// Catppuccin Mocha color palette
var (
	colorMauve   = lipgloss.Color("#cba6f7") // Title
	colorBlue    = lipgloss.Color("#89b4fa") // Section headers
	colorGreen   = lipgloss.Color("#a6e3a1") // Commands
	colorYellow  = lipgloss.Color("#f9e2af") // Flags
	colorRed     = lipgloss.Color("#f38ba8") // CRITICAL tier
	colorPeach   = lipgloss.Color("#fab387") // DANGEROUS tier
	colorCaution = lipgloss.Color("#f9e2af") // CAUTION tier
	colorOverlay = lipgloss.Color("#6c7086") // Muted text
	colorText    = lipgloss.Color("#cdd6f4") // Normal text
	colorBase    = lipgloss.Color("#1e1e2e") // Background
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			MarginTop(1)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	flagStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	criticalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	dangerousStyle = lipgloss.NewStyle().
			Foreground(colorPeach)

	cautionStyle = lipgloss.NewStyle().
			Foreground(colorCaution)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorOverlay)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Background(colorBase).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

func showQuickReference() {
	width := clampWidth(detectWidth())
	useUnicode := supportsUnicode()

	border := lipgloss.RoundedBorder()
	if !useUnicode {
		border = lipgloss.Border{
			Top:         "-",
			Bottom:      "-",
			Left:        "|",
			Right:       "|",
			TopLeft:     "+",
			TopRight:    "+",
			BottomLeft:  "+",
			BottomRight: "+",
		}
	}

	container := boxStyle.Copy().Border(border).Width(width)

	titleText := " DCG QUICK REFERENCE — Destructive Command Guard "
	titleRendered := gradientText(titleText, []lipgloss.Color{colorMauve, colorBlue})
	if !useUnicode {
		titleRendered = "DCG QUICK REFERENCE - Destructive Command Guard"
	}
	title := titleStyle.Copy().Width(width - 4).Align(lipgloss.Center).Render(titleRendered)

	setup := renderSection(useUnicode, "🔷 SETUP (once per project)", []string{
		bullet("dcg hook install", "wire the PreToolUse hook into ~/.claude/settings.json"),
		bullet("dcg hook install-git", "also install a git pre-commit scan"),
		bullet("dcg hook status", "check the hook is wired correctly"),
		bullet("dcg patterns test \"rm -rf ./build\" --json", "see what a command would do, without consulting history"),
	})

	runtime := renderSection(useUnicode, "🔶 AT RUNTIME (automatic)", []string{
		bullet("dcg hook pretooluse", "the hook entrypoint itself; never call by hand"),
		bullet("dcg confirm <code>", "retype a soft-blocked command to proceed"),
		bullet("dcg allow-once <code>", "confirm a pending grant exists, non-interactively"),
	})

	allowlist := renderSection(useUnicode, "🔧 ALLOWLIST", []string{
		bullet("dcg allowlist add \"terraform destroy -auto-approve\" --reason \"sandbox only\"", "suppress one rule for an exact command"),
		bullet("dcg allowlist list", "see current project + user entries"),
	})

	history := renderSection(useUnicode, "🔷 HISTORY", []string{
		bullet("dcg history show --rule-id core.git:force-push", "query the destructive-match log"),
		bullet("dcg history gc", "prune by age and entry count"),
	})

	patterns := renderSection(useUnicode, "🛡️ PATTERNS", []string{
		bullet("dcg patterns list --tier strict_git --all", "list bundled patterns, filterable by tier/severity"),
		bullet("dcg scan script.sh", "batch-evaluate a file's lines as shell commands"),
	})

	tiers := tierLegend(useUnicode)
	flags := flagLegend(useUnicode)
	footer := footerLegend(useUnicode)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		setup,
		runtime,
		allowlist,
		history,
		patterns,
		tiers,
		flags,
		footer,
	)

	fmt.Println(container.Render(content))
}

func clampWidth(w int) int {
	if w < 72 {
		return 72
	}
	if w > 100 {
		return 100
	}
	return w
}

func detectWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	// fall back to environment or default
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func supportsUnicode() bool {
	termEnv := strings.ToLower(os.Getenv("TERM"))
	locale := strings.ToLower(strings.Join([]string{
		os.Getenv("LC_ALL"),
		os.Getenv("LC_CTYPE"),
		os.Getenv("LANG"),
	}, " "))
	if strings.Contains(termEnv, "dumb") {
		return false
	}
	return strings.Contains(locale, "utf-8") || strings.Contains(locale, "utf8")
}

func gradientText(text string, colors []lipgloss.Color) string {
	if len(colors) == 0 || !supportsUnicode() {
		return text
	}
	runes := []rune(text)
	segments := len(colors)
	if segments == 1 {
		return lipgloss.NewStyle().Foreground(colors[0]).Render(text)
	}
	// Handle single character case to avoid division by zero
	if len(runes) <= 1 {
		return lipgloss.NewStyle().Foreground(colors[0]).Render(text)
	}

	var b strings.Builder
	for i, r := range runes {
		// simple linear gradient selection
		idx := i * (segments - 1) / (len(runes) - 1)
		b.WriteString(lipgloss.NewStyle().Foreground(colors[idx]).Render(string(r)))
	}
	return b.String()
}

func bullet(command, desc string) string {
	return commandStyle.Render("  "+command) + mutedStyle.Render("  "+desc)
}

func renderSection(useUnicode bool, title string, lines []string) string {
	if !useUnicode {
		title = strings.TrimLeft(title, "🔷🔶🔧🛡️ ") // strip icons for ASCII fallback
	}
	header := sectionStyle.Render(title)
	body := strings.Join(lines, "\n")
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func tierLegend(useUnicode bool) string {
	crit := "CRITICAL (hard block)"
	high := "HIGH (warn, blocks on repeats)"
	med := "MEDIUM/LOW (warn, blocks on repeats)"
	if useUnicode {
		crit = "🔴 " + crit
		high = "🟠 " + high
		med = "🟡 " + med
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("🎯 SEVERITIES"),
		fmt.Sprintf("  %s   %s   %s", criticalStyle.Render(crit), dangerousStyle.Render(high), cautionStyle.Render(med)),
	)
}

func flagLegend(useUnicode bool) string {
	prefix := "🚩 GLOBAL FLAGS"
	if !useUnicode {
		prefix = "FLAGS"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(prefix),
		flagStyle.Render("  -j, --json")+mutedStyle.Render("           structured output"),
		flagStyle.Render("  -C, --project <dir>")+mutedStyle.Render("   override project path"),
		flagStyle.Render("  -c, --config <path>")+mutedStyle.Render("   override config file path"),
		flagStyle.Render("  -v, --verbose")+mutedStyle.Render("         debug logging"),
	)
}

func footerLegend(useUnicode bool) string {
	human := "dcg confirm <code>"
	help := "dcg <command> --help"
	if !useUnicode {
		return mutedStyle.Render("RETRY: " + human + "   HELP: " + help)
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		mutedStyle.Render("RETRY: "), commandStyle.Render(human),
		mutedStyle.Render("   HELP: "), commandStyle.Render(help),
	)
}
