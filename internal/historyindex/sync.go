package historyindex

import (
	"fmt"

	"github.com/dcg-project/dcg/internal/history"
)

// Sync absorbs any history.jsonl records not yet present in the cache.
// It is safe to call on every `dcg history` invocation: Insert is
// idempotent (INSERT OR IGNORE on the record's natural key), so a
// record seen twice (e.g. after a Prune rewrite reorders the file) is
// never double-counted.
func Sync(db *DB, store *history.Store) (int, error) {
	records, _, err := store.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("historyindex: load history: %w", err)
	}

	synced, err := db.LastSyncedLine()
	if err != nil {
		return 0, err
	}

	start := synced
	if start > len(records) {
		// history.jsonl was pruned/rewritten since the last sync; the
		// cursor no longer lines up with a position, so resync from
		// scratch. Insert is idempotent, so this costs time, not
		// correctness.
		start = 0
	}

	n := 0
	for _, rec := range records[start:] {
		if err := db.Insert(rec); err != nil {
			return n, err
		}
		n++
	}

	if err := db.setLastSyncedLine(len(records)); err != nil {
		return n, err
	}
	return n, nil
}
