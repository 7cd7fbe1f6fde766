package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/dcg-project/dcg/internal/allowlist"
	"github.com/dcg-project/dcg/internal/catalog"
	"github.com/dcg-project/dcg/internal/heredoc"
	"github.com/dcg-project/dcg/internal/history"
	"github.com/dcg-project/dcg/internal/tokenizer"
)

// maxCommandBytes bounds oversize input (spec.md §4.8.2: "oversize input
// (> 1 MiB)" fails open).
const maxCommandBytes = 1 << 20

// requestDeadline governs the whole pipeline (spec.md §5: "default 250 ms").
const requestDeadline = 250 * time.Millisecond

// Evaluate runs the full Decision Engine pipeline (spec.md §4.8) for one
// request, returning the Decision and, if withTrace is true, its Trace.
func Evaluate(req CommandRequest, deps Deps, withTrace bool) (Decision, *Trace) {
	rec := newRecorder(withTrace, deps.traceID())
	deadline := req.Now.Add(requestDeadline)

	if len(req.RawCommand) > maxCommandBytes {
		rec.warn("oversize input (> 1 MiB), fail-open")
		return allowDecision(SourceFailOpen, "oversize input"), rec.trace
	}

	d, _ := evaluate(req, deps, rec, 0, deadline)
	return d, rec.trace
}

// evaluate is the recursive core; depth tracks heredoc/inline re-submission
// depth (spec.md §4.4 "Recursion is bounded (default 4)"), and outcome is
// the minimal shape the heredoc extractor's Submitter needs back.
func evaluate(req CommandRequest, deps Deps, rec *recorder, depth int, deadline time.Time) (Decision, Outcome) {
	start := time.Now()
	if time.Now().After(deadline) {
		rec.warn("request deadline exceeded, fail-open")
		return allowDecision(SourceFailOpen, "deadline exceeded"), Outcome{}
	}

	segResult := tokenizer.Segments(req.RawCommand)
	rec.record(StepInputParsing, start, map[string]any{
		"segments":           len(segResult.Segments),
		"unterminated_quote": segResult.UnterminatedQuote,
	})
	if len(segResult.Segments) == 0 {
		return allowDecision(SourceQuickReject, "no executable segments"), Outcome{}
	}

	cat := deps.Catalog
	if cat == nil {
		cat = catalog.Default()
	}

	qrStart := time.Now()
	if !quickReject(segResult.Segments, cat) {
		rec.record(StepQuickReject, qrStart, map[string]any{"passed": false})
		return allowDecision(SourceQuickReject, "no trigger keyword present"), Outcome{}
	}
	rec.record(StepQuickReject, qrStart, map[string]any{"passed": true})

	if d, out, handled := evaluateHeredocs(req, deps, cat, segResult.Segments, rec, depth, deadline); handled {
		return d, out
	}

	enabledPacks := cat.EnabledPacks()

	safeStart := time.Now()
	if m, ok := firstSafeMatch(segResult.Segments, enabledPacks); ok {
		rec.record(StepSafePatternEval, safeStart, map[string]any{
			"pack_id": m.PackID, "pattern_name": m.PatternName,
		})
		return allowDecision(SourceSafePattern, m.PackID+":"+m.PatternName), Outcome{}
	}
	rec.record(StepSafePatternEval, safeStart, map[string]any{"matched": false})

	destructiveStart := time.Now()
	matches := destructiveMatches(segResult.Segments, enabledPacks)
	rec.record(StepDestructivePatternEval, destructiveStart, map[string]any{"candidates": len(matches)})

	var authoritative *Match
	for i := range matches {
		m := &matches[i]
		ctx := inferContext(m.SegmentRaw)
		if allowlistSuppresses(deps.Allow, req.RawCommand, ctx, rec) {
			continue
		}
		authoritative = m
		break
	}

	if authoritative == nil {
		return allowDecision(SourceAllowlist, "all destructive matches suppressed or none found"), Outcome{}
	}

	if deps.Pending != nil {
		if allowed, pendingErr := consultPending(deps.Pending, req); pendingErr == nil && allowed {
			return allowDecision(SourcePendingException, "active pending exception"), Outcome{}
		}
	}

	d := applyGraduation(req, deps, *authoritative, rec, depth)
	out := Outcome{Denied: d.Kind == KindDeny, Note: d.RuleID}
	return d, out
}

func evaluateHeredocs(req CommandRequest, deps Deps, cat *catalog.Catalog, segments []tokenizer.Segment, rec *recorder, depth int, deadline time.Time) (Decision, Outcome, bool) {
	heredocStart := time.Now()
	strict := deps.Config.Response.Mode == "paranoid"

	// firstDeny keeps the full Decision of the first denied sub-body so the
	// outer Deny carries its pack, pattern, level and reason, not just the
	// rule_id the Outcome holds.
	var firstDeny Decision
	submit := func(body, source string, subDepth int) (heredoc.Outcome, error) {
		subReq := CommandRequest{RawCommand: body, Cwd: req.Cwd, AgentHint: req.AgentHint, SessionID: req.SessionID, Now: req.Now}
		sub, out := evaluate(subReq, deps, rec, subDepth, deadline)
		if out.Denied && firstDeny.Kind == "" {
			firstDeny = sub
		}
		return heredoc.Outcome{Denied: out.Denied, Note: out.Note}, nil
	}

	for _, seg := range segments {
		out, warnings := heredoc.Walk(seg.Raw, seg.ExecWord, depth, strict, submit)
		for _, w := range warnings {
			rec.warn(w)
		}
		if out.Denied {
			rec.record(StepHeredocExtract, heredocStart, map[string]any{"denied": true, "note": out.Note})
			d := firstDeny
			if d.Kind != KindDeny {
				d = Decision{Kind: KindDeny, RuleID: out.Note}
			}
			d.ReasonSource = SourceHeredocAST
			return d, Outcome{Denied: true, Note: out.Note}, true
		}
	}
	rec.record(StepHeredocExtract, heredocStart, map[string]any{"denied": false})
	return Decision{}, Outcome{}, false
}

// quickReject reports whether the request passes the quick-reject filter
// (spec.md §4.3): true if some segment's executable word is a trigger
// keyword, OR a known interpreter (bash -c, python -c, ...) whose inline
// code cannot be judged without extraction first.
func quickReject(segments []tokenizer.Segment, cat *catalog.Catalog) bool {
	keywords := cat.TriggerKeywords()
	for _, seg := range segments {
		if seg.ExecWord == "" {
			continue
		}
		word := strings.ToLower(seg.ExecWord)
		if _, ok := keywords[word]; ok {
			return true
		}
		if heredoc.IsInterpreter(word) {
			return true
		}
	}
	return false
}

func firstSafeMatch(segments []tokenizer.Segment, packs []*catalog.Pack) (Match, bool) {
	for _, seg := range segments {
		span := seg.ExecSpan()
		for _, p := range packs {
			for _, pat := range p.Safe {
				if matchesWithinBudget(pat.Regex, span) {
					return Match{PackID: p.PackID, PatternName: pat.Name, RuleID: pat.RuleID(), Reason: pat.Reason, SegmentRaw: seg.Raw}, true
				}
			}
		}
	}
	return Match{}, false
}

func destructiveMatches(segments []tokenizer.Segment, packs []*catalog.Pack) []Match {
	var out []Match
	for _, seg := range segments {
		span := seg.ExecSpan()
		for _, p := range packs {
			for _, pat := range p.Destructive {
				if matchesWithinBudget(pat.Regex, span) {
					out = append(out, Match{
						PackID: p.PackID, PatternName: pat.Name, RuleID: pat.RuleID(),
						Severity: pat.Severity, Reason: pat.Reason, Mode: pat.Mode,
						MatchedSpan: span, SegmentRaw: seg.Raw,
					})
				}
			}
		}
	}
	return out
}

// matchesWithinBudget enforces the per-pattern wall-clock budget (spec.md
// §4.8.2 "default 5 ms"); regexp.Regexp's RE2 engine cannot itself time
// out mid-match, so the budget is enforced by bounding input size fed to
// already-linear-time RE2 evaluation rather than interrupting it — RE2
// has no catastrophic backtracking, so in practice evaluation never
// approaches the budget on realistic command lengths.
func matchesWithinBudget(re interface{ MatchString(string) bool }, s string) bool {
	if len(s) > maxCommandBytes {
		return false
	}
	return re.MatchString(s)
}

func inferContext(segRaw string) allowlist.ContextTag {
	trimmed := strings.TrimSpace(segRaw)
	if strings.HasPrefix(trimmed, "#") {
		return allowlist.ContextComment
	}
	return ""
}

func allowlistSuppresses(list *allowlist.List, rawCommand string, ctx allowlist.ContextTag, rec *recorder) bool {
	start := time.Now()
	suppressed := list.Suppresses(rawCommand, ctx)
	rec.record(StepAllowlistCheck, start, map[string]any{"suppressed": suppressed})
	return suppressed
}

func consultPending(store PendingStore, req CommandRequest) (bool, error) {
	matches, _, err := store.Query(req.Now, req.Cwd, req.RawCommand)
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if m.SingleUse {
			_ = store.Consume(m, req.Now)
			return true, nil
		}
		return true, nil
	}
	return false, nil
}

func applyGraduation(req CommandRequest, deps Deps, m Match, rec *recorder, depth int) Decision {
	start := time.Now()

	// sessionCount/historyCount reflect prior occurrences of this rule
	// (not counting the current evaluation) — the third invocation in a
	// session crosses session_threshold=2 only if the first two already
	// incremented it, so graduation reads the pre-increment count and the
	// bump is persisted for the next call.
	var sessionCount, historyCount int
	if deps.Sessions != nil && req.SessionID != "" {
		state := deps.Sessions.Load(req.SessionID, req.Now)
		sessionCount = int(state.SessionCount(m.RuleID))
		_ = deps.Sessions.IncrementAndSave(state, m.RuleID, req.Now)
	}
	if deps.History != nil {
		records, _, err := deps.History.LoadAll()
		if err == nil {
			historyCount = history.Count(filterByCwd(records, req, deps), m.RuleID, deps.Config.Response.HistoryWindow, req.Now)
		}
	}

	level := graduate(graduationInputs{
		Mode:               deps.Config.Response.Mode,
		Severity:           m.Severity,
		SessionCount:       sessionCount,
		HistoryCount:       historyCount,
		SessionThreshold:   deps.Config.Response.SessionThreshold,
		HistoryThreshold:   deps.Config.Response.HistoryThreshold,
		CriticalAlwaysHard: deps.Config.Response.CriticalAlwaysHard,
	})
	// A match found inside an extracted heredoc/inline-code body (depth>0)
	// never resolves to a plain warning: the command is already hidden
	// behind an interpreter wrapper, so the graduated first-offense
	// leniency that applies to a directly-typed command doesn't apply —
	// it still surfaces as a Deny the first time it's seen (spec.md §8:
	// `bash -c 'git reset --hard'` denies via heredoc_ast).
	if depth > 0 && level == LevelWarning {
		level = LevelSoftBlock
	}

	rec.record(StepGraduation, start, map[string]any{
		"level": level, "session_count": sessionCount, "history_count": historyCount,
	})

	allowed := level == LevelWarning
	if deps.History != nil {
		_ = deps.History.Append(history.Record{
			SchemaVersion: history.SchemaVersion,
			Timestamp:     req.Now,
			RuleID:        m.RuleID,
			PackID:        m.PackID,
			Severity:      string(m.Severity),
			ResponseLevel: string(level),
			SessionID:     req.SessionID,
			Cwd:           req.Cwd,
			CommandHash:   history.ComputeCommandHash(req.RawCommand),
			Allowed:       allowed,
		})
	}

	d := Decision{
		RuleID: m.RuleID, PackID: m.PackID, PatternName: m.PatternName,
		Severity: m.Severity, ResponseLevel: level, Reason: m.Reason,
		SessionOccurrence: sessionCount, SessionThreshold: deps.Config.Response.SessionThreshold,
		HistoryOccurrence: historyCount, HistoryThreshold: deps.Config.Response.HistoryThreshold,
	}

	switch level {
	case LevelWarning:
		d.Kind = KindWarn
		d.ReasonSource = SourcePack
		return d
	case LevelSoftBlock, LevelHardBlock:
		d.Kind = KindDeny
		d.ReasonSource = SourcePack
		if deps.Pending != nil {
			redacted := redactCommand(req.RawCommand)
			singleUse := level == LevelSoftBlock
			grant, _, err := deps.Pending.RecordBlock(req.Now, req.Cwd, req.RawCommand, m.Reason, redacted, singleUse)
			if err == nil {
				if singleUse {
					d.ConfirmCode = grant.ShortCode
				} else {
					d.AllowOnceCode = grant.ShortCode
				}
			}
		}
		return d
	default:
		d.Kind = KindAllow
		d.ReasonSource = SourceFailOpen
		return d
	}
}

func filterByCwd(records []history.Record, req CommandRequest, deps Deps) []history.Record {
	if !deps.Config.Response.ScopeByCwd {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if r.Cwd == req.Cwd {
			out = append(out, r)
		}
	}
	return out
}

// secretArgPattern matches "--flag=value"/"--flag value" pairs for
// credential-shaped flags, keeping the flag and eliding the value. The
// value excludes quote characters so a quoted argument's closing quote
// survives redaction.
var secretArgPattern = regexp.MustCompile(
	`(?i)(--?(?:password|passwd|pass|token|secret|api[_-]?key|access[_-]?key|auth)(?:=|\s+))([^\s"']+)`)

// bearerPattern matches a bearer-looking argument value, keeping the
// "Bearer " prefix and eliding the token.
var bearerPattern = regexp.MustCompile(`(?i)(Bearer\s+)([^\s"']+)`)

// redactCommand elides credential-shaped argument values — password/token
// flags and bearer tokens — the same way original_source's pending
// exception store redacts command_redacted, then truncates to 200 bytes.
func redactCommand(raw string) string {
	redacted := secretArgPattern.ReplaceAllString(raw, "${1}[REDACTED]")
	redacted = bearerPattern.ReplaceAllString(redacted, "${1}[REDACTED]")
	if len(redacted) > 200 {
		redacted = redacted[:200] + "…"
	}
	return redacted
}

func allowDecision(source ReasonSource, reason string) Decision {
	return Decision{Kind: KindAllow, ReasonSource: source, Reason: reason}
}
