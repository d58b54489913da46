package embedding

import (
	"context"
	"fmt"
)

// Deduplicator rejects enrollments whose embedding already matches another
// employee's stored face.
type Deduplicator struct {
	store *Store
}

// NewDeduplicator creates a deduplicator over the given store.
func NewDeduplicator(store *Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// IsDuplicate compares candidate against every stored embedding except
// excludeEmployeeID's own and returns the first conflicting employee whose
// cosine similarity reaches threshold. Callers must force a reload since the
// last enrollment (Store.Invalidate then Get) so the scan never runs against
// the candidate's own soon-to-be-replaced embedding or other stale rows.
func (d *Deduplicator) IsDuplicate(ctx context.Context, candidate []float64, excludeEmployeeID int64, threshold float64) (Match, bool, error) {
	snap, err := d.store.Get(ctx)
	if err != nil {
		return Match{}, false, fmt.Errorf("duplicate check: %w", err)
	}

	conflict, found := snap.FirstConflict(candidate, excludeEmployeeID, threshold)
	return conflict, found, nil
}
