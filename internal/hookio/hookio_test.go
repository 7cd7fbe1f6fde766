package hookio

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dcg-project/dcg/internal/catalog"
	"github.com/dcg-project/dcg/internal/config"
	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/history"
	"github.com/dcg-project/dcg/internal/pending"
)

func newTestDeps(t *testing.T) engine.Deps {
	t.Helper()
	dir := t.TempDir()
	return engine.Deps{
		Catalog:  catalog.Default(),
		Pending:  pending.NewStore(filepath.Join(dir, "pending.jsonl")),
		History:  history.NewStore(filepath.Join(dir, "history.jsonl")),
		Sessions: history.NewSessionStore(filepath.Join(dir, "sessions")),
		Config:   config.DefaultConfig(),
	}
}

func TestParseEnvelopeMissingCommandAllows(t *testing.T) {
	_, _, ok := ParseEnvelope(strings.NewReader(`{}`))
	if ok {
		t.Fatalf("expected ok=false for an envelope with no command field")
	}
}

func TestParseEnvelopeMalformedJSONAllows(t *testing.T) {
	_, _, ok := ParseEnvelope(strings.NewReader(`not json`))
	if ok {
		t.Fatalf("expected ok=false for malformed JSON")
	}
}

func TestParseEnvelopeNonStringCommandAllows(t *testing.T) {
	_, _, ok := ParseEnvelope(strings.NewReader(`{"command": 5}`))
	if ok {
		t.Fatalf("expected ok=false for a non-string command field")
	}
}

func TestParseEnvelopeValid(t *testing.T) {
	env, cmd, ok := ParseEnvelope(strings.NewReader(`{"tool_name":"Bash","command":"git status","cwd":"/repo","session_id":"s1"}`))
	if !ok {
		t.Fatalf("expected ok=true for a valid envelope")
	}
	if cmd != "git status" || env.Cwd != "/repo" || env.SessionID != "s1" {
		t.Fatalf("unexpected envelope fields: %+v %q", env, cmd)
	}
}

func TestHandleEmptyEnvelopeAllowsWithNoStdout(t *testing.T) {
	deps := newTestDeps(t)
	var stdout, stderr bytes.Buffer
	code := Handle(strings.NewReader(`{}`), &stdout, &stderr, deps, time.Now())
	if code != ExitSuccess {
		t.Fatalf("expected ExitSuccess, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected empty stdout on allow, got %q", stdout.String())
	}
}

func TestHandleSafeCommandAllows(t *testing.T) {
	deps := newTestDeps(t)
	var stdout, stderr bytes.Buffer
	code := Handle(strings.NewReader(`{"tool_name":"Bash","command":"git status"}`), &stdout, &stderr, deps, time.Now())
	if code != ExitSuccess {
		t.Fatalf("expected ExitSuccess, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected empty stdout, got %q", stdout.String())
	}
}

func TestHandleFirstWarnUsesExitWarningAndNoStdout(t *testing.T) {
	deps := newTestDeps(t)
	var stdout, stderr bytes.Buffer
	env := `{"tool_name":"Bash","command":"git reset --hard HEAD~5","session_id":"sess-1"}`
	code := Handle(strings.NewReader(env), &stdout, &stderr, deps, time.Now())
	if code != ExitWarning {
		t.Fatalf("expected ExitWarning, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected empty stdout on warn, got %q", stdout.String())
	}
	if stderr.Len() == 0 {
		t.Fatalf("expected a rendered warning box on stderr")
	}
}

func TestHandleDenyEmitsSingleJSONObjectOnStdout(t *testing.T) {
	deps := newTestDeps(t)
	now := time.Now()
	env := `{"tool_name":"Bash","command":"git reset --hard HEAD~5","session_id":"sess-2"}`

	for i := 0; i < 2; i++ {
		var stdout, stderr bytes.Buffer
		Handle(strings.NewReader(env), &stdout, &stderr, deps, now.Add(time.Duration(i)*time.Second))
	}

	var stdout, stderr bytes.Buffer
	code := Handle(strings.NewReader(env), &stdout, &stderr, deps, now.Add(3*time.Second))
	if code != ExitDenied {
		t.Fatalf("expected ExitDenied, got %d", code)
	}

	var out HookOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("expected valid JSON on stdout, got %q: %v", stdout.String(), err)
	}
	if out.HookSpecificOutput.HookEventName != "PreToolUse" {
		t.Fatalf("unexpected hookEventName: %+v", out)
	}
	if out.HookSpecificOutput.PermissionDecision != "deny" {
		t.Fatalf("unexpected permissionDecision: %+v", out)
	}
	if out.HookSpecificOutput.ResponseLevel != "soft_block" {
		t.Fatalf("expected soft_block, got %+v", out)
	}
	if out.HookSpecificOutput.Remediation.ConfirmCommand == "" {
		t.Fatalf("expected a confirm remediation command")
	}
	if stderr.Len() == 0 {
		t.Fatalf("expected a rendered warning box on stderr")
	}
}
