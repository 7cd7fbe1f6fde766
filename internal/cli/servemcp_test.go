package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dcg-project/dcg/internal/engine"
)

type stubEvaluator struct {
	decision engine.Decision
}

func (s stubEvaluator) Evaluate(req engine.CommandRequest, withTrace bool) (engine.Decision, *engine.Trace) {
	return s.decision, nil
}

func TestRunMCPLoopEchoesDecisionPerLine(t *testing.T) {
	stub := stubEvaluator{decision: engine.Decision{
		Kind:   engine.KindDeny,
		RuleID: "core_filesystem:root_wipe",
		Reason: "matches a hard-coded destructive pattern",
	}}

	in := strings.NewReader(`{"id":1,"command":"rm -rf /","cwd":"/proj"}` + "\n")
	var out bytes.Buffer

	if err := runMCPLoop(in, &out, stub); err != nil {
		t.Fatal(err)
	}

	var resp mcpResponse
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
		t.Fatalf("decoding output %q: %v", out.String(), err)
	}
	if resp.Decision == nil || resp.Decision.Kind != "deny" || resp.Decision.RuleID != "core_filesystem:root_wipe" {
		t.Errorf("got %+v, want a deny decision for core_filesystem:root_wipe", resp)
	}
}

func TestRunMCPLoopReportsInvalidJSONWithoutFailing(t *testing.T) {
	stub := stubEvaluator{decision: engine.Decision{Kind: engine.KindAllow}}

	in := strings.NewReader("not json\n" + `{"id":2,"command":"echo hi","cwd":"/proj"}` + "\n")
	var out bytes.Buffer

	if err := runMCPLoop(in, &out, stub); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d response lines, want 2: %v", len(lines), lines)
	}

	var first mcpResponse
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decoding first line %q: %v", lines[0], err)
	}
	if first.Error == "" {
		t.Error("expected the first (malformed) line to produce an error response")
	}

	var second mcpResponse
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decoding second line %q: %v", lines[1], err)
	}
	if second.Decision == nil || second.Decision.Kind != "allow" {
		t.Errorf("expected the second (valid) line to produce an allow decision, got %+v", second)
	}
}
