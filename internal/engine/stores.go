package engine

import (
	"time"

	"github.com/dcg-project/dcg/internal/history"
	"github.com/dcg-project/dcg/internal/pending"
)

// PendingStore is the subset of *pending.Store the engine consults and
// writes to. Declared as an interface so tests can substitute an
// in-memory fake without touching disk.
type PendingStore interface {
	Query(now time.Time, cwd, commandRaw string) ([]pending.Record, pending.Maintenance, error)
	RecordBlock(now time.Time, cwd, commandRaw, reason, redacted string, singleUse bool) (pending.Record, pending.Maintenance, error)
	Consume(rec pending.Record, now time.Time) error
}

// HistoryStore is the subset of *history.Store the engine consults.
type HistoryStore interface {
	Append(rec history.Record) error
	LoadAll() ([]history.Record, history.Maintenance, error)
}

// SessionStore is the subset of *history.SessionStore the engine consults.
type SessionStore interface {
	Load(sessionID string, now time.Time) *history.SessionState
	IncrementAndSave(state *history.SessionState, ruleID string, now time.Time) error
}

var (
	_ PendingStore = (*pending.Store)(nil)
	_ HistoryStore = (*history.Store)(nil)
	_ SessionStore = (*history.SessionStore)(nil)
)
