package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dcg-project/dcg/internal/config"
	"github.com/dcg-project/dcg/internal/engine"
)

func testDecision() engine.Decision {
	return engine.Decision{
		Kind:          engine.KindDeny,
		RuleID:        "core.git:reset-hard",
		Severity:      "high",
		ResponseLevel: engine.LevelSoftBlock,
		ConfirmCode:   "ab12",
	}
}

func keyMsg(runes string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(runes)}
}

func TestConfirmCodeMatchConfirms(t *testing.T) {
	cfg := config.InteractiveConfig{Verification: "code", TimeoutSeconds: 15, MaxAttempts: 3, LockoutSeconds: 60}
	m := New(testDecision(), "git reset --hard", cfg)

	next, _ := m.Update(keyMsg("ab12"))
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	if !m.done {
		t.Fatalf("expected done after a correct code")
	}
	if m.result.Outcome != OutcomeConfirmed {
		t.Fatalf("expected OutcomeConfirmed, got %v", m.result.Outcome)
	}
}

func TestConfirmWrongCodeThenLockout(t *testing.T) {
	cfg := config.InteractiveConfig{Verification: "code", TimeoutSeconds: 15, MaxAttempts: 2, LockoutSeconds: 30}
	m := New(testDecision(), "git reset --hard", cfg)

	for i := 0; i < 2; i++ {
		next, _ := m.Update(keyMsg("zzzz"))
		m = next.(Model)
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = next.(Model)
	}

	if m.done {
		t.Fatalf("expected not done, a lockout should keep the program running")
	}
	if !m.locked {
		t.Fatalf("expected locked=true after max_attempts wrong guesses")
	}
	if m.lockRemaining != 30 {
		t.Fatalf("expected lockRemaining=30, got %d", m.lockRemaining)
	}
}

func TestConfirmWrongCodeNoLockoutConfigEndsSession(t *testing.T) {
	cfg := config.InteractiveConfig{Verification: "code", TimeoutSeconds: 15, MaxAttempts: 1, LockoutSeconds: 0}
	m := New(testDecision(), "git reset --hard", cfg)

	next, _ := m.Update(keyMsg("zzzz"))
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	if !m.done {
		t.Fatalf("expected done when lockout_seconds=0 and attempts exhausted")
	}
	if m.result.Outcome != OutcomeLockedOut {
		t.Fatalf("expected OutcomeLockedOut, got %v", m.result.Outcome)
	}
}

func TestConfirmEscCancels(t *testing.T) {
	cfg := config.InteractiveConfig{Verification: "code", TimeoutSeconds: 15, MaxAttempts: 3, LockoutSeconds: 60}
	m := New(testDecision(), "git reset --hard", cfg)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)

	if !m.done || m.result.Outcome != OutcomeCancelled {
		t.Fatalf("expected cancelled, got %+v", m.result)
	}
}

func TestConfirmTimeoutViaTick(t *testing.T) {
	cfg := config.InteractiveConfig{Verification: "code", TimeoutSeconds: 1, MaxAttempts: 3, LockoutSeconds: 60}
	m := New(testDecision(), "git reset --hard", cfg)

	next, _ := m.Update(tickMsg{})
	m = next.(Model)

	if !m.done || m.result.Outcome != OutcomeTimedOut {
		t.Fatalf("expected timed out, got %+v", m.result)
	}
}

func TestNoneVerificationEnterConfirmsImmediately(t *testing.T) {
	cfg := config.InteractiveConfig{Verification: "none", TimeoutSeconds: 15, MaxAttempts: 3, LockoutSeconds: 60}
	m := New(testDecision(), "git reset --hard", cfg)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	if !m.done || m.result.Outcome != OutcomeConfirmed {
		t.Fatalf("expected immediate confirm, got %+v", m.result)
	}
}

func TestBackspaceEditsInput(t *testing.T) {
	cfg := config.InteractiveConfig{Verification: "code", TimeoutSeconds: 15, MaxAttempts: 3, LockoutSeconds: 60}
	m := New(testDecision(), "git reset --hard", cfg)

	next, _ := m.Update(keyMsg("abcd"))
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = next.(Model)

	if m.input != "abc" {
		t.Fatalf("expected input=%q after backspace, got %q", "abc", m.input)
	}
}

func TestViewRendersCommandAndBadges(t *testing.T) {
	cfg := config.InteractiveConfig{Verification: "code", TimeoutSeconds: 15, MaxAttempts: 3, LockoutSeconds: 60}
	m := New(testDecision(), "git reset --hard", cfg)

	view := m.View()
	if !strings.Contains(view, "git reset --hard") {
		t.Fatalf("expected the command to appear in the view")
	}
	if !strings.Contains(view, "soft_block") {
		t.Fatalf("expected the response level badge to appear in the view")
	}
}
