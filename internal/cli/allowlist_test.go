package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dcg-project/dcg/internal/allowlist"
)

func TestAppendAllowlistEntryRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.toml")

	if err := appendAllowlistEntry(path, rawAllowEntry{Command: "rm -rf ./build", Reason: "known safe"}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := appendAllowlistEntry(path, rawAllowEntry{
		CommandPrefix: "terraform destroy",
		Context:       string(allowlist.ContextStringArgument),
		Reason:        "sandbox only",
	}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	list, err := allowlist.Load([]string{path}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Entries) != 2 {
		t.Fatalf("expected 2 entries after two appends, got %d (%v)", len(list.Entries), list.Warnings)
	}
	if !list.Suppresses("rm -rf ./build", "") {
		t.Error("expected the exact-command entry to suppress its command")
	}
}

func TestAppendAllowlistEntryRejectsUnacknowledgedRegex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.toml")
	if err := appendAllowlistEntry(path, rawAllowEntry{Pattern: "^anything$"}); err != nil {
		t.Fatalf("append itself should succeed, validation happens on load: %v", err)
	}

	list, err := allowlist.Load([]string{path}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Entries) != 0 {
		t.Fatalf("expected the unacknowledged regex entry to be dropped on load, got %d entries", len(list.Entries))
	}
	if len(list.Warnings) == 0 {
		t.Error("expected a load warning for the unacknowledged regex entry")
	}
}
