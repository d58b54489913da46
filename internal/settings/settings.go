package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/attendly/faceclock/internal/domain"
)

// Storage keys for persisted settings.
const (
	keyMatchThreshold     = "match_threshold"
	keyDuplicateThreshold = "duplicate_threshold"
	keyCooldownSeconds    = "cooldown_seconds"
	keyMinConfidence      = "min_confidence"
)

// Values is one consistent snapshot of the recognition tunables. The match
// and duplicate thresholds are numerically equal by default but deliberately
// independent: one decides "is this a known person", the other "is this a
// new person".
type Values struct {
	MatchThreshold     float64       `json:"match_threshold"`
	DuplicateThreshold float64       `json:"duplicate_threshold"`
	Cooldown           time.Duration `json:"cooldown"`
	MinConfidence      float64       `json:"min_confidence"`
}

// Defaults returns the out-of-the-box tuning.
func Defaults() Values {
	return Values{
		MatchThreshold:     0.75,
		DuplicateThreshold: 0.75,
		Cooldown:           5 * time.Second,
		MinConfidence:      0.8,
	}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	MatchThreshold     *float64 `json:"match_threshold,omitempty"`
	DuplicateThreshold *float64 `json:"duplicate_threshold,omitempty"`
	CooldownSeconds    *int     `json:"cooldown_seconds,omitempty"`
	MinConfidence      *float64 `json:"min_confidence,omitempty"`
}

// Repository persists settings as string key/value pairs.
type Repository interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, key, value string) error
}

// Manager holds the live settings and serves consistent snapshots to the
// recognition and enrollment paths while updates arrive at runtime.
type Manager struct {
	repo   Repository
	logger *slog.Logger

	mu     sync.RWMutex
	values Values
}

func NewManager(repo Repository, logger *slog.Logger) *Manager {
	return &Manager{
		repo:   repo,
		logger: logger.With("component", "settings"),
		values: Defaults(),
	}
}

// Snapshot returns the current values. Callers read every tunable they need
// from one snapshot so a concurrent update cannot mix generations.
func (m *Manager) Snapshot() Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values
}

// Load overlays persisted settings onto the defaults. Unknown keys and
// unparseable values are skipped with a warning so one bad row cannot take
// the service down.
func (m *Manager) Load(ctx context.Context) error {
	stored, err := m.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	values := Defaults()
	for key, raw := range stored {
		switch key {
		case keyMatchThreshold:
			m.parseThreshold(key, raw, &values.MatchThreshold)
		case keyDuplicateThreshold:
			m.parseThreshold(key, raw, &values.DuplicateThreshold)
		case keyMinConfidence:
			m.parseThreshold(key, raw, &values.MinConfidence)
		case keyCooldownSeconds:
			secs, err := strconv.Atoi(raw)
			if err != nil || secs < 0 {
				m.logger.Warn("skipping invalid setting", "key", key, "value", raw)
				continue
			}
			values.Cooldown = time.Duration(secs) * time.Second
		default:
			m.logger.Warn("skipping unknown setting", "key", key)
		}
	}

	m.mu.Lock()
	m.values = values
	m.mu.Unlock()
	return nil
}

func (m *Manager) parseThreshold(key, raw string, dst *float64) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || v > 1 {
		m.logger.Warn("skipping invalid setting", "key", key, "value", raw)
		return
	}
	*dst = v
}

// Update validates and applies a patch, persisting each changed key before
// publishing the new snapshot.
func (m *Manager) Update(ctx context.Context, patch Patch) (Values, error) {
	if err := validate(patch); err != nil {
		return Values{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.values
	var writes [][2]string
	if patch.MatchThreshold != nil {
		next.MatchThreshold = *patch.MatchThreshold
		writes = append(writes, [2]string{keyMatchThreshold, formatFloat(*patch.MatchThreshold)})
	}
	if patch.DuplicateThreshold != nil {
		next.DuplicateThreshold = *patch.DuplicateThreshold
		writes = append(writes, [2]string{keyDuplicateThreshold, formatFloat(*patch.DuplicateThreshold)})
	}
	if patch.CooldownSeconds != nil {
		next.Cooldown = time.Duration(*patch.CooldownSeconds) * time.Second
		writes = append(writes, [2]string{keyCooldownSeconds, strconv.Itoa(*patch.CooldownSeconds)})
	}
	if patch.MinConfidence != nil {
		next.MinConfidence = *patch.MinConfidence
		writes = append(writes, [2]string{keyMinConfidence, formatFloat(*patch.MinConfidence)})
	}

	for _, w := range writes {
		if err := m.repo.Save(ctx, w[0], w[1]); err != nil {
			return Values{}, domain.ErrPersistence.WithError(fmt.Errorf("save setting %s: %w", w[0], err))
		}
	}

	m.values = next
	m.logger.Info("settings updated",
		"match_threshold", next.MatchThreshold,
		"duplicate_threshold", next.DuplicateThreshold,
		"cooldown", next.Cooldown,
		"min_confidence", next.MinConfidence,
	)
	return next, nil
}

func validate(patch Patch) error {
	for _, th := range []*float64{patch.MatchThreshold, patch.DuplicateThreshold, patch.MinConfidence} {
		if th != nil && (*th <= 0 || *th > 1) {
			return domain.ErrInvalidThreshold
		}
	}
	if patch.CooldownSeconds != nil && *patch.CooldownSeconds < 0 {
		return domain.ErrValidationFailed.WithDetails("cooldown_seconds must not be negative")
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
