package history

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultMaxAge and DefaultMaxEntries are history pruning defaults
// (spec.md §4.7 "Maintenance").
const (
	DefaultMaxAge     = 30 * 24 * time.Hour
	DefaultMaxEntries = 10000
)

// SchemaVersion is the current HistoryRecord on-disk schema (spec.md §3).
const SchemaVersion = 1

// Record is one evaluated destructive match, fixed field order per
// spec.md §3.
type Record struct {
	SchemaVersion int       `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	RuleID        string    `json:"rule_id"`
	PackID        string    `json:"pack_id"`
	Severity      string    `json:"severity"`
	ResponseLevel string    `json:"response_level"`
	SessionID     string    `json:"session_id"`
	Cwd           string    `json:"cwd"`
	CommandHash   string    `json:"command_hash"`
	Allowed       bool      `json:"allowed"`
}

// ComputeCommandHash = sha256(command_raw), hex-encoded (spec.md §4.7).
func ComputeCommandHash(commandRaw string) string {
	sum := sha256.Sum256([]byte(commandRaw))
	return hex.EncodeToString(sum[:])
}

// DefaultPath returns ~/.config/dcg/history.jsonl.
func DefaultPath(homeDir string) string {
	return filepath.Join(homeDir, ".config", "dcg", "history.jsonl")
}

// Maintenance reports a prune pass's effect (supplemented feature,
// grounded on the pending store's maintenance counters).
type Maintenance struct {
	PrunedAge   int
	PrunedCap   int
	ParseErrors int
}

// Store is the append-only history log at a fixed path.
type Store struct {
	Path string
}

func NewStore(path string) *Store { return &Store{Path: path} }

func (s *Store) openLocked() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("history: lock: %w", err)
	}
	return f, nil
}

func unlock(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	f.Close()
}

// Append writes rec as a single JSON line (spec.md §4.7 "append-only").
// Append failures are treated as best-effort by callers (§5).
func (s *Store) Append(rec Record) error {
	f, err := s.openLocked()
	if err != nil {
		return err
	}
	defer unlock(f)
	if _, err := f.Seek(0, 2); err != nil {
		return fmt.Errorf("history: seek end: %w", err)
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	if _, err := f.Write(append(buf, '\n')); err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	return f.Sync()
}

// LoadAll parses every well-formed line. A corrupt line is skipped
// (fail-open, spec.md §4.8.2); an unreadable file is treated as empty.
func (s *Store) LoadAll() ([]Record, Maintenance, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Maintenance{}, nil
		}
		return nil, Maintenance{}, nil
	}
	defer f.Close()

	var records []Record
	var maint Maintenance
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			maint.ParseErrors++
			continue
		}
		records = append(records, rec)
	}
	return records, maint, nil
}

// Count returns the number of history records matching ruleID with
// Timestamp in [now-window, now] (spec.md §4.7 "Counters").
func Count(records []Record, ruleID string, window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	n := 0
	for _, rec := range records {
		if rec.RuleID != ruleID {
			continue
		}
		if rec.Timestamp.Before(cutoff) || rec.Timestamp.After(now) {
			continue
		}
		n++
	}
	return n
}

// Prune rewrites the store keeping only records younger than maxAge and,
// if over maxEntries, the most recent maxEntries records (spec.md §4.7
// "Maintenance": "pruned by age ... and cap ... on startup and
// periodically"), under a temp-file + rename (spec.md §4.6/§5: compaction
// writes temp → fsync → rename, never truncates the live file in place).
// The exclusive flock held on the original path for the duration guards
// the rename against a concurrent writer.
func (s *Store) Prune(maxAge time.Duration, maxEntries int, now time.Time) (Maintenance, error) {
	f, err := s.openLocked()
	if err != nil {
		return Maintenance{}, err
	}
	defer unlock(f)

	if _, err := f.Seek(0, 0); err != nil {
		return Maintenance{}, fmt.Errorf("history: seek: %w", err)
	}
	var records []Record
	var maint Maintenance
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	cutoff := now.Add(-maxAge)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			maint.ParseErrors++
			continue
		}
		if rec.Timestamp.Before(cutoff) {
			maint.PrunedAge++
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	if len(records) > maxEntries {
		maint.PrunedCap += len(records) - maxEntries
		records = records[len(records)-maxEntries:]
	}

	if err := s.rewriteRecords(records); err != nil {
		return maint, err
	}
	return maint, nil
}

// rewriteRecords writes records to a .tmp sibling of the store path,
// fsyncs it, and renames it over the store — matching session.go's save().
func (s *Store) rewriteRecords(records []Record) error {
	tmpPath := s.Path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("history: create temp store: %w", err)
	}
	for _, rec := range records {
		buf, err := json.Marshal(rec)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("history: marshal: %w", err)
		}
		if _, err := tmp.Write(append(buf, '\n')); err != nil {
			tmp.Close()
			return fmt.Errorf("history: write temp store: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("history: sync temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("history: close temp store: %w", err)
	}
	return os.Rename(tmpPath, s.Path)
}
