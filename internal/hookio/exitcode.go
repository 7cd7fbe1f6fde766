// Package hookio implements the stdin/stdout contract the engine presents
// to a Claude Code PreToolUse hook (spec.md §6): a JSON envelope in, a
// fixed exit code and (on deny) a single JSON object out.
package hookio

// Exit codes are stable and documented for agent/robot-mode consumption
// (spec.md §6, §7); grounded on original_source/src/exit_codes.rs.
const (
	ExitSuccess    = 0 // Allow.
	ExitDenied     = 1 // Deny.
	ExitWarning    = 2 // Warn.
	ExitConfigErr  = 3 // Configuration error.
	ExitParseErr   = 4 // Parse/input error.
	ExitIOErr      = 5 // IO error.
)
