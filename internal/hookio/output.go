package hookio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dcg-project/dcg/internal/engine"
)

// Remediation lists the follow-up commands an agent (or the human behind
// it) can run to get past a deny, and an optional non-destructive
// alternative to the command that was blocked.
type Remediation struct {
	AllowOnceCommand string `json:"allowOnceCommand,omitempty"`
	AllowlistCommand string `json:"allowlistCommand,omitempty"`
	ConfirmCommand   string `json:"confirmCommand,omitempty"`
	SafeAlternative  string `json:"safeAlternative,omitempty"`
}

// HookSpecificOutput is the deny-path payload (spec.md §6).
type HookSpecificOutput struct {
	HookEventName      string       `json:"hookEventName"`
	PermissionDecision string       `json:"permissionDecision"`
	ResponseLevel      string       `json:"responseLevel"`
	RuleID             string       `json:"ruleId"`
	SessionOccurrence  int          `json:"sessionOccurrence"`
	SessionThreshold   int          `json:"sessionThreshold"`
	HistoryOccurrence  int          `json:"historyOccurrence"`
	HistoryThreshold   int          `json:"historyThreshold"`
	AllowOnceCode      string       `json:"allowOnceCode,omitempty"`
	ConfirmCode        string       `json:"confirmCode,omitempty"`
	Remediation        Remediation  `json:"remediation"`
}

// HookOutput wraps HookSpecificOutput under its fixed top-level key.
type HookOutput struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

// BuildDenyOutput renders the deny-path JSON payload for a Decision whose
// Kind is engine.KindDeny.
func BuildDenyOutput(d engine.Decision) HookOutput {
	remediation := Remediation{}
	if d.AllowOnceCode != "" {
		remediation.AllowOnceCommand = fmt.Sprintf("dcg allow-once %s", d.AllowOnceCode)
	}
	if d.ConfirmCode != "" {
		remediation.ConfirmCommand = fmt.Sprintf("dcg confirm %s", d.ConfirmCode)
	}
	if d.RuleID != "" {
		remediation.AllowlistCommand = fmt.Sprintf("dcg allowlist add --rule %s", d.RuleID)
	}

	return HookOutput{
		HookSpecificOutput: HookSpecificOutput{
			HookEventName:      "PreToolUse",
			PermissionDecision: "deny",
			ResponseLevel:      string(d.ResponseLevel),
			RuleID:             d.RuleID,
			SessionOccurrence:  d.SessionOccurrence,
			SessionThreshold:   d.SessionThreshold,
			HistoryOccurrence:  d.HistoryOccurrence,
			HistoryThreshold:   d.HistoryThreshold,
			AllowOnceCode:      d.AllowOnceCode,
			ConfirmCode:        d.ConfirmCode,
			Remediation:        remediation,
		},
	}
}

// WriteDenyOutput marshals a deny payload as a single compact JSON object,
// the exact shape the hook contract requires on stdout (spec.md §6).
func WriteDenyOutput(w io.Writer, d engine.Decision) error {
	return json.NewEncoder(w).Encode(BuildDenyOutput(d))
}
