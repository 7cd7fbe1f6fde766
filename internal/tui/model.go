// Package tui implements the interactive TTY confirm/allow-once prompt
// (spec.md §4.8.1 soft-block confirm flow; §6 interactive.* config keys).
// Uses the Charmbracelet ecosystem: Bubble Tea and Lip Gloss.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dcg-project/dcg/internal/config"
	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/tui/styles"
	"github.com/dcg-project/dcg/internal/tui/theme"
)

// Outcome is the terminal result of a confirm prompt.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeLockedOut Outcome = "locked_out"
)

// Result is what RunConfirm returns to its CLI caller.
type Result struct {
	Outcome  Outcome
	Attempts int
}

type tickMsg time.Time

// Model drives the confirm prompt for a single soft-blocked Decision.
type Model struct {
	decision engine.Decision
	command  string
	cfg      config.InteractiveConfig
	styles   *styles.Styles
	shimmer  *styles.ShimmerState

	input    string
	attempts int
	remaining int // seconds left in the current attempt window

	locked        bool
	lockRemaining int // seconds left in a lockout

	result Result
	done   bool
}

// New builds a confirm-prompt Model for a soft_block/hard_block Decision.
// Under "command" verification the user must retype the raw command;
// under "code" verification the expected input is decision.ConfirmCode
// (falling back to AllowOnceCode for a hard-block allow-once grant).
// Styles come from theme.Current as the caller left it (Mocha unless the
// caller ran theme.SetTheme first).
func New(decision engine.Decision, command string, cfg config.InteractiveConfig) Model {
	return Model{
		decision:  decision,
		command:   command,
		cfg:       cfg,
		styles:    styles.New(),
		shimmer:   styles.NewShimmerState(len(command)),
		remaining: cfg.TimeoutSeconds,
	}
}

func (m Model) expectedInput() string {
	switch m.cfg.Verification {
	case "command":
		return m.command
	case "code":
		if m.decision.ConfirmCode != "" {
			return m.decision.ConfirmCode
		}
		return m.decision.AllowOnceCode
	default: // "none"
		return ""
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.cfg.Verification == "none" {
		return nil
	}
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tickMsg:
		if m.locked {
			m.lockRemaining--
			if m.lockRemaining <= 0 {
				m.locked = false
				m.attempts = 0
				m.remaining = m.cfg.TimeoutSeconds
			}
			return m, tick()
		}
		m.remaining--
		if m.remaining <= 0 {
			m.result = Result{Outcome: OutcomeTimedOut, Attempts: m.attempts}
			m.done = true
			return m, tea.Quit
		}
		m.shimmer.Advance()
		return m, tick()

	case tea.KeyMsg:
		if m.locked {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			m.result = Result{Outcome: OutcomeCancelled, Attempts: m.attempts}
			m.done = true
			return m, tea.Quit
		case "enter":
			if m.cfg.Verification == "none" {
				m.result = Result{Outcome: OutcomeConfirmed, Attempts: m.attempts + 1}
				m.done = true
				return m, tea.Quit
			}
			m.attempts++
			if m.input == m.expectedInput() {
				m.result = Result{Outcome: OutcomeConfirmed, Attempts: m.attempts}
				m.done = true
				return m, tea.Quit
			}
			m.input = ""
			if m.attempts >= m.cfg.MaxAttempts {
				if m.cfg.LockoutSeconds <= 0 {
					m.result = Result{Outcome: OutcomeLockedOut, Attempts: m.attempts}
					m.done = true
					return m, tea.Quit
				}
				m.locked = true
				m.lockRemaining = m.cfg.LockoutSeconds
			}
			return m, nil
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
			return m, nil
		default:
			if m.cfg.Verification != "none" && len(msg.Runes) > 0 {
				m.input += string(msg.Runes)
			}
			return m, nil
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	fmt.Fprintln(&b, s.Title.Render("dcg — confirm destructive command"))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, s.RenderResponseLevelBadge(string(m.decision.ResponseLevel)), s.RenderSeverityBadge(string(m.decision.Severity)))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, s.CommandBox.Render(m.shimmer.RenderShimmer(m.command, theme.Current.Pink)))
	fmt.Fprintln(&b)

	if m.locked {
		fmt.Fprintf(&b, "too many attempts — locked for %ds\n", m.lockRemaining)
		return b.String()
	}

	switch m.cfg.Verification {
	case "none":
		fmt.Fprintln(&b, s.Dimmed.Render("press enter to confirm, esc to cancel"))
	case "command":
		fmt.Fprintf(&b, "retype the command to confirm: %s\n", m.input)
	default:
		fmt.Fprintf(&b, "enter confirmation code %s: %s\n", s.Highlight.Render(m.decision.ConfirmCode), m.input)
	}
	status := fmt.Sprintf("%ds remaining · attempt %d/%d", m.remaining, m.attempts, m.cfg.MaxAttempts)
	fmt.Fprintln(&b, s.Subtitle.Render(status))
	return b.String()
}

// RunConfirm drives the confirm prompt to completion and returns its
// Result. cfg.Enabled=false or cfg.Verification="none" with no TTY should
// be handled by the caller before invoking this (spec.md §6: interactive
// mode is only meaningful in a real terminal).
func RunConfirm(decision engine.Decision, command string, cfg config.InteractiveConfig) (Result, error) {
	m := New(decision, command, cfg)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return Result{}, err
	}
	final, ok := finalModel.(Model)
	if !ok {
		return Result{}, fmt.Errorf("tui: unexpected model type")
	}
	return final.result, nil
}
