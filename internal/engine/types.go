// Package engine implements the Decision Engine (spec.md §4.8): the
// deterministic orchestration of catalog, tokenizer, heredoc, allowlist,
// pending-exception, and occurrence-tracker components into a single
// Decision plus Trace for one CommandRequest.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/dcg-project/dcg/internal/allowlist"
	"github.com/dcg-project/dcg/internal/catalog"
	"github.com/dcg-project/dcg/internal/config"
)

// CommandRequest is the immutable input to one evaluation (spec.md §3).
type CommandRequest struct {
	RawCommand string
	Cwd        string
	AgentHint  string
	SessionID  string
	Now        time.Time
}

// ReasonSource names why a Decision resolved the way it did, carried into
// the hook output contract's "source" field (spec.md §6).
type ReasonSource string

const (
	SourceQuickReject      ReasonSource = "quick_reject"
	SourceSafePattern      ReasonSource = "safe_pattern"
	SourceAllowlist        ReasonSource = "allowlist"
	SourcePendingException ReasonSource = "pending_exception"
	SourcePack             ReasonSource = "pack"
	SourceHeredocAST       ReasonSource = "heredoc_ast"
	SourceConfigOverride   ReasonSource = "config_override"
	SourceLegacyPattern    ReasonSource = "legacy_pattern"
	SourceFailOpen         ReasonSource = "fail_open"
)

// ResponseLevel is the graduated-response outcome (spec.md §4.8.1).
type ResponseLevel string

const (
	LevelWarning   ResponseLevel = "warning"
	LevelSoftBlock ResponseLevel = "soft_block"
	LevelHardBlock ResponseLevel = "hard_block"
)

// Decision is the closed tagged result of one evaluation (spec.md §3:
// "Decision variants are a closed tagged set; prefer sum types over
// interface dispatch" — modeled here as a single struct with a Kind
// discriminant rather than an interface, so callers switch exhaustively
// without a type assertion).
type Decision struct {
	Kind DecisionKind

	// Allow
	ReasonSource ReasonSource
	Reason       string

	// Deny / Warn
	RuleID          string
	PackID          string
	PatternName     string
	Severity        catalog.Severity
	ResponseLevel   ResponseLevel
	AllowOnceCode   string
	ConfirmCode     string
	SessionOccurrence int
	SessionThreshold  int
	HistoryOccurrence int
	HistoryThreshold  int
}

// DecisionKind discriminates Decision's tagged variants.
type DecisionKind string

const (
	KindAllow DecisionKind = "allow"
	KindDeny  DecisionKind = "deny"
	KindWarn  DecisionKind = "warn"
)

// Outcome is the minimal result shape engine hands back to the heredoc
// extractor's Submitter (internal/heredoc.Outcome has the same fields; the
// pipeline's submitter copies one into the other).
type Outcome struct {
	Denied bool
	Note   string
}

// Match records one pattern hit against one segment, used both for the
// authoritative match and for trace detail (spec.md §4.9).
type Match struct {
	PackID      string
	PatternName string
	RuleID      string
	Severity    catalog.Severity
	Reason      string
	Mode        catalog.Mode
	MatchedSpan string
	SegmentRaw  string
}

// Deps bundles the engine's collaborators. A nil Catalog means
// catalog.Default(); a nil Allow is treated as an empty allowlist; a nil
// Pending, History or Sessions store is neither consulted nor written.
type Deps struct {
	Catalog  *catalog.Catalog
	Allow    *allowlist.List
	Pending  PendingStore
	History  HistoryStore
	Sessions SessionStore
	Config   config.Config
	// NewTraceID produces a correlation ID for the Trace (spec.md §4.9);
	// defaults to uuid.NewString when nil.
	NewTraceID func() string
}

func (d Deps) traceID() string {
	if d.NewTraceID != nil {
		return d.NewTraceID()
	}
	return uuid.NewString()
}
