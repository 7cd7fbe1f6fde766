package pending

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	return NewStore(filepath.Join(t.TempDir(), "pending_exceptions.jsonl"))
}

func TestShortCodeDerivationIsDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	h1 := ComputeFullHash(now, "/home/user/project", "rm -rf /tmp/x")
	h2 := ComputeFullHash(now, "/home/user/project", "rm -rf /tmp/x")
	if h1 != h2 {
		t.Fatalf("full_hash must be deterministic for identical inputs")
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
	if ShortCodeFromHash(h1) != h1[60:] {
		t.Fatalf("short_code must be the last 4 hex chars")
	}
}

func TestRecordBlockAndQueryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	rec, _, err := s.RecordBlock(now, "/proj", "rm -rf ~/projects", "hard block", "rm -rf ~/projects", false)
	if err != nil {
		t.Fatal(err)
	}
	matched, _, err := s.Query(now, "/proj", "rm -rf ~/projects")
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 1 || matched[0].FullHash != rec.FullHash {
		t.Fatalf("expected to find the recorded exception, got %+v", matched)
	}
}

func TestSingleUseRecordBecomesInactiveAfterConsume(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	rec, _, err := s.RecordBlock(now, "/proj", "terraform destroy", "soft block", "terraform destroy", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Consume(rec, now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	matched, _, err := s.Query(now.Add(time.Hour), "/proj", "terraform destroy")
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 0 {
		t.Fatalf("expected consumed single-use record to be inactive, got %+v", matched)
	}
}

func TestExpiredRecordsExcludedFromActive(t *testing.T) {
	s := newTestStore(t)
	created := time.Now().Add(-25 * time.Hour)
	if _, _, err := s.RecordBlock(created, "/proj", "git push --force", "hard block", "git push --force", false); err != nil {
		t.Fatal(err)
	}
	active, maint, err := s.LoadActive(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("expected expired record excluded from active set")
	}
	if maint.PrunedExpired != 1 {
		t.Fatalf("expected PrunedExpired=1, got %d", maint.PrunedExpired)
	}
}

func TestCorruptLinesAreSkipped(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	if _, _, err := s.RecordBlock(now, "/proj", "git reset --hard", "warn", "git reset --hard", false); err != nil {
		t.Fatal(err)
	}
	f, err := s.openLocked()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(0, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("not valid json\n"); err != nil {
		t.Fatal(err)
	}
	unlock(f)

	active, maint, err := s.LoadActive(now)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("expected the one valid record to survive, got %d", len(active))
	}
	if maint.ParseErrors != 1 {
		t.Fatalf("expected 1 parse error recorded, got %d", maint.ParseErrors)
	}
}

func TestLookupByShortCodeMayCollide(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	rec, _, err := s.RecordBlock(now, "/proj", "rm -rf ~/projects", "hard block", "rm -rf ~/projects", false)
	if err != nil {
		t.Fatal(err)
	}
	found, _, err := s.LookupByShortCode(rec.ShortCode, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].FullHash != rec.FullHash {
		t.Fatalf("expected exactly the recorded exception, got %+v", found)
	}
}

func TestCompactDropsExpiredAndConsumed(t *testing.T) {
	s := newTestStore(t)
	past := time.Now().Add(-25 * time.Hour)
	if _, _, err := s.RecordBlock(past, "/proj", "old command", "warn", "old command", false); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	rec, _, err := s.RecordBlock(now, "/proj", "keep me active", "warn", "keep me active", true)
	if err != nil {
		t.Fatal(err)
	}
	consumedRec, _, err := s.RecordBlock(now, "/proj", "used once", "warn", "used once", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Consume(consumedRec, now); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Compact(now); err != nil {
		t.Fatal(err)
	}
	active, _, err := s.LoadActive(now)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].FullHash != rec.FullHash {
		t.Fatalf("expected compaction to retain only the still-active record, got %+v", active)
	}
}
