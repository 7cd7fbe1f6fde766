package hookio

import (
	"fmt"
	"io"
	"time"

	"github.com/dcg-project/dcg/internal/engine"
	"github.com/dcg-project/dcg/internal/history"
)

// Handle implements the full hook stdin/stdout/exit-code contract
// (spec.md §6) around one Decision Engine evaluation: read the envelope,
// evaluate, and render the outcome to stdout/stderr, returning the
// process exit code the caller's main() should use.
func Handle(stdin io.Reader, stdout, stderr io.Writer, deps engine.Deps, now time.Time) int {
	env, command, ok := ParseEnvelope(stdin)
	if !ok {
		return ExitSuccess
	}

	sessionID := env.SessionID
	if sessionID == "" {
		// Non-Claude-Code callers may omit session_id; fall back to a
		// process-derived identity so session-scoped graduation still
		// activates for them (spec.md §4.7 "Session identity").
		sessionID = history.SessionIDFromProcess()
	}

	req := engine.CommandRequest{
		RawCommand: command,
		Cwd:        env.Cwd,
		AgentHint:  env.ToolName,
		SessionID:  sessionID,
		Now:        now,
	}

	d, _ := engine.Evaluate(req, deps, false)

	switch d.Kind {
	case engine.KindDeny:
		_ = WriteDenyOutput(stdout, d)
		fmt.Fprintln(stderr, RenderWarningBox(d, command))
		return ExitDenied
	case engine.KindWarn:
		fmt.Fprintln(stderr, RenderWarningBox(d, command))
		return ExitWarning
	default:
		return ExitSuccess
	}
}
