// Package embedding holds the in-process cache of enrolled face embeddings
// and the nearest-neighbor matching used by the recognition pipeline.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/attendly/faceclock/internal/domain"
)

// DefaultTTL is how long a loaded snapshot stays fresh before the next read
// triggers a reload. Staleness is checked lazily on access; there is no
// background refresh.
const DefaultTTL = 5 * time.Minute

// IdentitySource supplies the enrolled identities from persistence.
type IdentitySource interface {
	ListEnrolled(ctx context.Context) ([]domain.EnrolledIdentity, error)
}

// Match is a successful nearest-neighbor lookup.
type Match struct {
	EmployeeID  int64
	DisplayName string
	Similarity  float64
}

// Snapshot is one immutable, fully built generation of the cache: a matrix of
// normalized embeddings with an index-aligned employee list. Readers work
// against a snapshot pointer and never observe a partial rebuild.
type Snapshot struct {
	matrix   [][]float64
	ids      []int64
	names    []string
	loadedAt time.Time
}

// Len returns the number of cached embeddings.
func (s *Snapshot) Len() int {
	return len(s.matrix)
}

// LoadedAt returns when this snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Match finds the row with the maximum cosine similarity to query, breaking
// ties by the lowest row index. It returns false when the cache is empty,
// the query is non-matchable (zero norm), or the best similarity is below
// threshold. Thresholds are minimum similarity to accept, not distance.
func (s *Snapshot) Match(query []float64, threshold float64) (Match, bool) {
	return s.bestExcluding(query, threshold, -1, false)
}

// FirstConflict scans rows in order and returns the first employee other
// than excludeID whose similarity to query reaches threshold. Used by the
// deduplicator; first occurrence wins for reproducibility.
func (s *Snapshot) FirstConflict(query []float64, excludeID int64, threshold float64) (Match, bool) {
	return s.bestExcluding(query, threshold, excludeID, true)
}

func (s *Snapshot) bestExcluding(query []float64, threshold float64, excludeID int64, firstHit bool) (Match, bool) {
	if len(s.matrix) == 0 {
		return Match{}, false
	}

	norm := floats.Norm(query, 2)
	if norm == 0 {
		return Match{}, false
	}
	q := make([]float64, len(query))
	copy(q, query)
	floats.Scale(1/norm, q)

	bestIdx := -1
	bestSim := 0.0
	for i, row := range s.matrix {
		if excludeID >= 0 && s.ids[i] == excludeID {
			continue
		}
		if len(row) != len(q) {
			continue
		}

		// Rows are normalized at load time, so the dot product is the
		// cosine similarity. Zero-norm rows were kept unnormalized and can
		// never reach a positive threshold.
		sim := floats.Dot(row, q)

		if firstHit {
			if sim >= threshold {
				return Match{EmployeeID: s.ids[i], DisplayName: s.names[i], Similarity: sim}, true
			}
			continue
		}

		// Strictly greater keeps the lowest index on ties
		if bestIdx == -1 || sim > bestSim {
			bestIdx = i
			bestSim = sim
		}
	}

	if firstHit || bestIdx == -1 || bestSim < threshold {
		return Match{}, false
	}
	return Match{EmployeeID: s.ids[bestIdx], DisplayName: s.names[bestIdx], Similarity: bestSim}, true
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides the snapshot freshness window.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store caches enrolled embeddings in memory and answers match queries.
// Reads are lock-free against the last published snapshot; a reload swaps in
// a fully built replacement under a write lock. Get may block on a reload
// (one storage round-trip).
type Store struct {
	source IdentitySource
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex // guards snap, stale and gen
	reloadMu sync.Mutex   // serializes rebuilds
	snap     *Snapshot
	stale    bool
	gen      uint64 // bumped by Invalidate so one racing a reload is not lost
}

// NewStore creates an embedding store backed by the given identity source.
func NewStore(source IdentitySource, logger *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		source: source,
		logger: logger.With("component", "embedding_store"),
		ttl:    DefaultTTL,
		now:    time.Now,
		stale:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate marks the cache stale so the next Get forces a reload. Must be
// called after any enrollment, update, or deletion of an identity.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.gen++
	s.mu.Unlock()
}

// Get returns the current snapshot, reloading first if it is stale or its
// TTL has expired.
func (s *Store) Get(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap, fresh := s.snap, s.isFreshLocked()
	s.mu.RUnlock()

	if fresh {
		return snap, nil
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	snap = s.snap
	s.mu.RUnlock()
	return snap, nil
}

func (s *Store) isFreshLocked() bool {
	return s.snap != nil && !s.stale && s.now().Sub(s.snap.loadedAt) <= s.ttl
}

// Reload rebuilds the snapshot from the identity source. A decode failure on
// one identity skips that identity and continues; only a failed fetch aborts
// the reload.
func (s *Store) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	// Another caller may have finished a reload while we waited
	s.mu.RLock()
	fresh := s.isFreshLocked()
	startGen := s.gen
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	identities, err := s.source.ListEnrolled(ctx)
	if err != nil {
		return fmt.Errorf("reload embedding cache: %w", err)
	}

	snap := &Snapshot{
		matrix:   make([][]float64, 0, len(identities)),
		ids:      make([]int64, 0, len(identities)),
		names:    make([]string, 0, len(identities)),
		loadedAt: s.now(),
	}

	for _, id := range identities {
		if len(id.Embedding) != domain.EmbeddingDim {
			s.logger.WarnContext(ctx, "skipping identity with invalid embedding",
				slog.Int64("employee_id", id.EmployeeID),
				slog.Int("dim", len(id.Embedding)),
			)
			continue
		}

		row := domain.Normalize(id.Embedding)
		if floats.Norm(row, 2) == 0 {
			s.logger.WarnContext(ctx, "zero-norm embedding kept as non-matchable",
				slog.Int64("employee_id", id.EmployeeID),
			)
		}

		snap.matrix = append(snap.matrix, row)
		snap.ids = append(snap.ids, id.EmployeeID)
		snap.names = append(snap.names, id.DisplayName)
	}

	s.mu.Lock()
	s.snap = snap
	// An Invalidate that landed after the fetch started may not be
	// reflected in this snapshot; leave the store stale so the next read
	// reloads again.
	if s.gen == startGen {
		s.stale = false
	}
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "embedding cache reloaded",
		slog.Int("identities", snap.Len()),
		slog.Int("fetched", len(identities)),
	)
	return nil
}

// Match normalizes query and returns the closest enrolled identity at or
// above threshold. An empty cache returns no match, never an error.
func (s *Store) Match(ctx context.Context, query []float64, threshold float64) (Match, bool, error) {
	snap, err := s.Get(ctx)
	if err != nil {
		return Match{}, false, err
	}
	m, ok := snap.Match(query, threshold)
	return m, ok, nil
}
