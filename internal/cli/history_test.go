package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/dcg-project/dcg/internal/history"
)

func seedHistoryRecord(t *testing.T) history.Record {
	t.Helper()
	store := history.NewStore(history.DefaultPath(homeDir()))
	rec := history.Record{
		SchemaVersion: history.SchemaVersion,
		Timestamp:     time.Now(),
		RuleID:        "core_filesystem:root_wipe",
		PackID:        "core_filesystem",
		Severity:      "critical",
		ResponseLevel: "hard_block",
		SessionID:     "sess-1",
		Cwd:           "/proj",
		CommandHash:   history.ComputeCommandHash("rm -rf /"),
		Allowed:       false,
	}
	if err := store.Append(rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestHistoryShowFiltersByRuleID(t *testing.T) {
	withTempHome(t)
	seedHistoryRecord(t)

	origRuleID, origLimit := flagHistoryRuleID, flagHistoryLimit
	defer func() { flagHistoryRuleID, flagHistoryLimit = origRuleID, origLimit }()
	flagHistoryRuleID, flagHistoryLimit = "core_filesystem:root_wipe", 50

	out := captureStdout(t, func() {
		if err := historyShowCmd.RunE(historyShowCmd, nil); err != nil {
			t.Fatal(err)
		}
	})

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &resp); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}
	if resp.Count != 1 {
		t.Errorf("got count=%d, want 1", resp.Count)
	}
}

func TestHistoryGCPrunesByMaxEntries(t *testing.T) {
	withTempHome(t)
	seedHistoryRecord(t)
	seedHistoryRecord(t)

	origAge, origN := flagHistoryMaxAge, flagHistoryMaxN
	defer func() { flagHistoryMaxAge, flagHistoryMaxN = origAge, origN }()
	flagHistoryMaxAge, flagHistoryMaxN = history.DefaultMaxAge, 1

	out := captureStdout(t, func() {
		if err := historyGCCmd.RunE(historyGCCmd, nil); err != nil {
			t.Fatal(err)
		}
	})

	var resp struct {
		PrunedByCap int `json:"pruned_by_cap"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &resp); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}
	if resp.PrunedByCap != 1 {
		t.Errorf("got pruned_by_cap=%d, want 1", resp.PrunedByCap)
	}
}

func TestHistoryInitAndCommitRoundTrip(t *testing.T) {
	withTempHome(t)
	seedHistoryRecord(t)

	if err := historyInitCmd.RunE(historyInitCmd, nil); err != nil {
		t.Fatal(err)
	}

	out := captureStdout(t, func() {
		if err := historyCommitCmd.RunE(historyCommitCmd, nil); err != nil {
			t.Fatal(err)
		}
	})

	var resp struct {
		Committed bool `json:"committed"`
		Records   int  `json:"records"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &resp); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}
	if !resp.Committed || resp.Records != 1 {
		t.Errorf("got %+v, want committed=true records=1", resp)
	}
}
