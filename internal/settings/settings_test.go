package settings

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/faceclock/internal/domain"
)

type memSettingsRepo struct {
	mu      sync.Mutex
	rows    map[string]string
	saveErr error
}

func newMemSettingsRepo(rows map[string]string) *memSettingsRepo {
	if rows == nil {
		rows = make(map[string]string)
	}
	return &memSettingsRepo{rows: rows}
}

func (r *memSettingsRepo) LoadAll(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.rows))
	for k, v := range r.rows {
		out[k] = v
	}
	return out, nil
}

func (r *memSettingsRepo) Save(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.rows[key] = value
	return nil
}

func testManager(repo Repository) *Manager {
	return NewManager(repo, slog.New(slog.DiscardHandler))
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestManager_Defaults(t *testing.T) {
	m := testManager(newMemSettingsRepo(nil))

	v := m.Snapshot()
	assert.Equal(t, 0.75, v.MatchThreshold)
	assert.Equal(t, 0.75, v.DuplicateThreshold)
	assert.Equal(t, 5*time.Second, v.Cooldown)
	assert.Equal(t, 0.8, v.MinConfidence)
}

func TestManager_Load(t *testing.T) {
	t.Run("overlays persisted values", func(t *testing.T) {
		repo := newMemSettingsRepo(map[string]string{
			"match_threshold":  "0.82",
			"cooldown_seconds": "30",
		})
		m := testManager(repo)

		require.NoError(t, m.Load(context.Background()))

		v := m.Snapshot()
		assert.Equal(t, 0.82, v.MatchThreshold)
		assert.Equal(t, 30*time.Second, v.Cooldown)
		assert.Equal(t, 0.75, v.DuplicateThreshold, "untouched keys keep their default")
	})

	t.Run("invalid rows are skipped", func(t *testing.T) {
		repo := newMemSettingsRepo(map[string]string{
			"match_threshold":  "nan-ish",
			"cooldown_seconds": "-4",
			"mystery_key":      "1",
		})
		m := testManager(repo)

		require.NoError(t, m.Load(context.Background()))

		v := m.Snapshot()
		assert.Equal(t, 0.75, v.MatchThreshold)
		assert.Equal(t, 5*time.Second, v.Cooldown)
	})
}

func TestManager_Update(t *testing.T) {
	t.Run("applies and persists a patch", func(t *testing.T) {
		repo := newMemSettingsRepo(nil)
		m := testManager(repo)

		v, err := m.Update(context.Background(), Patch{
			MatchThreshold:  floatPtr(0.9),
			CooldownSeconds: intPtr(10),
		})
		require.NoError(t, err)
		assert.Equal(t, 0.9, v.MatchThreshold)
		assert.Equal(t, 10*time.Second, v.Cooldown)

		assert.Equal(t, "0.9", repo.rows["match_threshold"])
		assert.Equal(t, "10", repo.rows["cooldown_seconds"])
	})

	t.Run("rejects out-of-range thresholds", func(t *testing.T) {
		m := testManager(newMemSettingsRepo(nil))

		_, err := m.Update(context.Background(), Patch{MatchThreshold: floatPtr(1.5)})
		assert.ErrorIs(t, err, domain.ErrInvalidThreshold)

		_, err = m.Update(context.Background(), Patch{DuplicateThreshold: floatPtr(0)})
		assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
	})

	t.Run("persistence failure leaves values unchanged", func(t *testing.T) {
		repo := newMemSettingsRepo(nil)
		repo.saveErr = errors.New("connection refused")
		m := testManager(repo)

		_, err := m.Update(context.Background(), Patch{MatchThreshold: floatPtr(0.9)})
		require.Error(t, err)
		assert.Equal(t, 0.75, m.Snapshot().MatchThreshold)
	})
}

func TestManager_ConcurrentSnapshot(t *testing.T) {
	m := testManager(newMemSettingsRepo(nil))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v := m.Snapshot()
				// both thresholds must come from the same generation
				assert.Equal(t, v.MatchThreshold, v.DuplicateThreshold)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		th := 0.5 + float64(i)*0.01
		_, err := m.Update(context.Background(), Patch{
			MatchThreshold:     &th,
			DuplicateThreshold: &th,
		})
		require.NoError(t, err)
	}
	wg.Wait()
}
