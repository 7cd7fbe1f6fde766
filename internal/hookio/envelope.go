package hookio

import (
	"encoding/json"
	"io"

	"github.com/dcg-project/dcg/internal/utils"
)

// Envelope is the stdin JSON object a PreToolUse hook invocation sends
// (spec.md §6). Unknown fields are ignored by json.Unmarshal's default
// behavior; no custom leniency is needed for that part of the contract.
type Envelope struct {
	ToolName  string `json:"tool_name"`
	Command   any    `json:"command"`
	Cwd       string `json:"cwd"`
	SessionID string `json:"session_id"`
}

// ParseEnvelope reads and decodes the hook stdin envelope. It never
// returns an error for malformed JSON or a non-string command field —
// those are "Allow with no stdout" outcomes per the contract, signaled by
// ok=false, not an error a caller needs to branch on specially.
func ParseEnvelope(r io.Reader) (req Envelope, command string, ok bool) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Envelope{}, "", false
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, "", false
	}
	cmd, isString := env.Command.(string)
	if !isString {
		return env, "", false
	}
	// An agent-supplied command string can carry ANSI escapes or stray
	// control bytes; strip them before it reaches pattern matching,
	// RenderWarningBox, or the history log.
	return env, utils.SanitizeInput(cmd), true
}
