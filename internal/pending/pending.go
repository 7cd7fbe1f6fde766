// Package pending implements the pending-exception ("allow-once") store
// (spec.md §4.6), a line-oriented append-only log of short-lived grants
// keyed by (cwd, raw command). Ported line-for-line from
// _examples/original_source/src/pending_exceptions.rs, substituting
// golang.org/x/sys/unix advisory locking for Rust's fs2::FileExt.
package pending

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

// SchemaVersion is the current on-disk record schema (spec.md §3).
const SchemaVersion = 1

// TTL is the fixed, non-configurable lifetime of a pending exception
// (spec.md §4.6 "Create").
const TTL = 24 * time.Hour

// EnvPathOverride names the environment variable that overrides the
// default store path (spec.md §6).
const EnvPathOverride = "DCG_PENDING_EXCEPTIONS_PATH"

// Record is one pending exception, in the fixed field order of spec.md §3.
type Record struct {
	SchemaVersion   int        `json:"schema_version"`
	ShortCode       string     `json:"short_code"`
	FullHash        string     `json:"full_hash"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	Cwd             string     `json:"cwd"`
	CommandRaw      string     `json:"command_raw"`
	CommandRedacted string     `json:"command_redacted"`
	Reason          string     `json:"reason"`
	SingleUse       bool       `json:"single_use"`
	ConsumedAt      *time.Time `json:"consumed_at,omitempty"`
}

// IsConsumed reports whether this record has already been used.
func (r Record) IsConsumed() bool { return r.ConsumedAt != nil }

// IsExpired reports whether now is at or past ExpiresAt.
func (r Record) IsExpired(now time.Time) bool { return !now.Before(r.ExpiresAt) }

func (r Record) active(now time.Time) bool { return !r.IsConsumed() && !r.IsExpired(now) }

// Maintenance summarizes a load/compaction pass (supplemented feature,
// grounded on pending_exceptions.rs's PendingMaintenance).
type Maintenance struct {
	PrunedExpired int
	PrunedConsumed int
	ParseErrors   int
}

// New returns a Record for a fresh grant. now should be the decision
// time; redacted is the caller-computed redaction of commandRaw.
func New(now time.Time, cwd, commandRaw, reason, redacted string, singleUse bool) Record {
	hash := ComputeFullHash(now, cwd, commandRaw)
	return Record{
		SchemaVersion:   SchemaVersion,
		ShortCode:       ShortCodeFromHash(hash),
		FullHash:        hash,
		CreatedAt:       now,
		ExpiresAt:       now.Add(TTL),
		Cwd:             cwd,
		CommandRaw:      commandRaw,
		CommandRedacted: redacted,
		Reason:          reason,
		SingleUse:       singleUse,
	}
}

// ComputeFullHash implements spec.md §8 property 7:
// full_hash = sha256(rfc3339(created_at) + " | " + cwd + " | " + command_raw).
func ComputeFullHash(createdAt time.Time, cwd, commandRaw string) string {
	s := formatTimestamp(createdAt) + " | " + cwd + " | " + commandRaw
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ShortCodeFromHash returns the last 4 hex characters of a full hash.
func ShortCodeFromHash(hash string) string {
	if len(hash) < 4 {
		return hash
	}
	return hash[len(hash)-4:]
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// DefaultPath resolves the store path: DCG_PENDING_EXCEPTIONS_PATH if set,
// else ~/.config/dcg/pending_exceptions.jsonl.
func DefaultPath(getenv func(string) string, homeDir string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if override := getenv(EnvPathOverride); override != "" {
		return override
	}
	return filepath.Join(homeDir, ".config", "dcg", "pending_exceptions.jsonl")
}

// Store is the pending-exception log at a fixed path.
type Store struct {
	Path string
}

func NewStore(path string) *Store { return &Store{Path: path} }

// openLocked creates parent directories if needed, opens the store file
// for read+write (creating it if absent), and takes an exclusive advisory
// lock held for the lifetime of the returned file (caller must Close).
func (s *Store) openLocked() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return nil, fmt.Errorf("pending: create store dir: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("pending: open store: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("pending: lock store: %w", err)
	}
	return f, nil
}

func unlock(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	f.Close()
}

// LoadActive reconstructs current state: for each full_hash, the latest
// record on disk wins; returns only active (not consumed, not expired)
// records. A corrupt line is skipped and counted in Maintenance.ParseErrors
// (spec.md §4.6 "Fail-open": an unreadable file is treated as empty).
func (s *Store) LoadActive(now time.Time) ([]Record, Maintenance, error) {
	f, err := s.openLocked()
	if err != nil {
		return nil, Maintenance{}, err
	}
	defer unlock(f)
	return loadActiveFromFile(f, now)
}

func loadActiveFromFile(f *os.File, now time.Time) ([]Record, Maintenance, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return nil, Maintenance{}, fmt.Errorf("pending: seek: %w", err)
	}
	latest := map[string]Record{}
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
		latest[rec.FullHash] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, maint, fmt.Errorf("pending: scan: %w", err)
	}

	var active []Record
	for _, rec := range latest {
		switch {
		case rec.IsConsumed():
			maint.PrunedConsumed++
		case rec.IsExpired(now):
			maint.PrunedExpired++
		default:
			active = append(active, rec)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	return active, maint, nil
}

// appendRecord appends rec as a single JSON line, seeking to end first.
func appendRecord(f *os.File, rec Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("pending: marshal: %w", err)
	}
	if _, err := f.Seek(0, 2); err != nil {
		return fmt.Errorf("pending: seek end: %w", err)
	}
	if _, err := f.Write(append(buf, '\n')); err != nil {
		return fmt.Errorf("pending: append: %w", err)
	}
	return f.Sync()
}

// RecordBlock creates and durably appends a new pending exception for a
// denied command, returning the record and whatever maintenance counts
// the load-before-append pass observed.
func (s *Store) RecordBlock(now time.Time, cwd, commandRaw, reason, redacted string, singleUse bool) (Record, Maintenance, error) {
	f, err := s.openLocked()
	if err != nil {
		return Record{}, Maintenance{}, err
	}
	defer unlock(f)

	_, maint, err := loadActiveFromFile(f, now)
	if err != nil {
		return Record{}, maint, err
	}
	rec := New(now, cwd, commandRaw, reason, redacted, singleUse)
	if err := appendRecord(f, rec); err != nil {
		return Record{}, maint, err
	}
	return rec, maint, nil
}

// Query returns active records matching (cwd, commandRaw) exactly, per
// spec.md §4.6 "Query".
func (s *Store) Query(now time.Time, cwd, commandRaw string) ([]Record, Maintenance, error) {
	active, maint, err := s.LoadActive(now)
	if err != nil {
		return nil, maint, err
	}
	var matched []Record
	for _, rec := range active {
		if rec.Cwd == cwd && rec.CommandRaw == commandRaw {
			matched = append(matched, rec)
		}
	}
	return matched, maint, nil
}

// Consume marks a single-use record consumed by appending a full copy of
// it with ConsumedAt set to now; reconstruction's last-write-wins by
// full_hash makes this copy authoritative over the original grant
// (spec.md §4.6 "Tombstones and pruning").
func (s *Store) Consume(rec Record, now time.Time) error {
	f, err := s.openLocked()
	if err != nil {
		return err
	}
	defer unlock(f)
	tombstone := rec
	tombstone.ConsumedAt = &now
	return appendRecord(f, tombstone)
}

// LookupByShortCode returns every active record whose short_code matches;
// callers must disambiguate by full_hash or index if more than one is
// returned (spec.md §4.6 "Collision handling").
func (s *Store) LookupByShortCode(code string, now time.Time) ([]Record, Maintenance, error) {
	active, maint, err := s.LoadActive(now)
	if err != nil {
		return nil, maint, err
	}
	var out []Record
	for _, rec := range active {
		if rec.ShortCode == code {
			out = append(out, rec)
		}
	}
	return out, maint, nil
}

// Compact rewrites the store to hold only active records, under a
// temp-file + rename (spec.md §4.6 "A background or on-load compaction may
// rewrite the file with only active records ... under a whole-file rename
// (write temp → fsync → rename)"; spec.md §5). The exclusive flock held on
// the original path for the duration guards against a concurrent writer
// racing the rename; a crash mid-rewrite leaves either the old file or the
// fully-written new one, never a truncated one.
func (s *Store) Compact(now time.Time) (Maintenance, error) {
	f, err := s.openLocked()
	if err != nil {
		return Maintenance{}, err
	}
	defer unlock(f)

	active, maint, err := loadActiveFromFile(f, now)
	if err != nil {
		return maint, err
	}
	if err := s.rewriteRecords(active); err != nil {
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
		return fmt.Errorf("pending: create temp store: %w", err)
	}
	for _, rec := range records {
		buf, err := json.Marshal(rec)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("pending: marshal: %w", err)
		}
		if _, err := tmp.Write(append(buf, '\n')); err != nil {
			tmp.Close()
			return fmt.Errorf("pending: write temp store: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("pending: sync temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("pending: close temp store: %w", err)
	}
	return os.Rename(tmpPath, s.Path)
}
