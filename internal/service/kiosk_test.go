package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/faceclock/internal/audit"
	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/embedding"
	"github.com/attendly/faceclock/internal/liveness"
	"github.com/attendly/faceclock/internal/pipeline"
	"github.com/attendly/faceclock/internal/settings"
)

type stubLedger struct{}

func (stubLedger) Apply(_ context.Context, _ int64, _ time.Time, _ string, _ time.Duration) (domain.AttendanceEvent, error) {
	return domain.AttendanceEvent{Outcome: domain.OutcomeCheckIn}, nil
}

type stubMatcher struct{}

func (stubMatcher) Match(_ context.Context, _ []float64, _ float64) (embedding.Match, bool, error) {
	return embedding.Match{}, false, nil
}

func newKioskFixture(t *testing.T) (*KioskService, *fakePhotoStore) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	faces := &fakeProvider{}
	photos := newFakePhotoStore()
	mgr := settings.NewManager(stubSettingsRepo{}, logger)
	p := pipeline.New(faces, stubMatcher{}, stubLedger{}, mgr, &audit.NoOpLogger{}, logger)

	return NewKioskService(p, faces, photos, liveness.DefaultConfig(), logger), photos
}

func TestKioskService_Sessions(t *testing.T) {
	t.Run("start and end", func(t *testing.T) {
		svc, _ := newKioskFixture(t)

		info := svc.StartSession()
		assert.NotEmpty(t, info.ID)
		assert.NoError(t, svc.EndSession(info.ID))
		assert.ErrorIs(t, svc.EndSession(info.ID), domain.ErrSessionNotFound)
	})

	t.Run("sessions are independent", func(t *testing.T) {
		svc, _ := newKioskFixture(t)

		a := svc.StartSession()
		b := svc.StartSession()
		assert.NotEqual(t, a.ID, b.ID)

		require.NoError(t, svc.EndSession(a.ID))
		assert.NoError(t, svc.EndSession(b.ID))
	})

	t.Run("idle sessions are swept on the next start", func(t *testing.T) {
		svc, _ := newKioskFixture(t)

		current := time.Unix(1000, 0)
		svc.now = func() time.Time { return current }

		stale := svc.StartSession()
		current = current.Add(DefaultSessionTTL + time.Second)
		_ = svc.StartSession()

		assert.ErrorIs(t, svc.EndSession(stale.ID), domain.ErrSessionNotFound)
	})
}

func TestKioskService_ProcessFrame(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown session is an error", func(t *testing.T) {
		svc, _ := newKioskFixture(t)

		_, err := svc.ProcessFrame(ctx, "no-such-session", goodPhoto(t))
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("malformed frame degrades to wait", func(t *testing.T) {
		svc, _ := newKioskFixture(t)
		info := svc.StartSession()

		result, err := svc.ProcessFrame(ctx, info.ID, []byte("garbage"))
		require.NoError(t, err, "decode errors must not surface to the kiosk")
		assert.Equal(t, pipeline.StatusWait, result.Status)
	})

	t.Run("unrecognized frame leaves no snapshot behind", func(t *testing.T) {
		svc, photos := newKioskFixture(t)
		info := svc.StartSession()

		result, err := svc.ProcessFrame(ctx, info.ID, goodPhoto(t))
		require.NoError(t, err)
		assert.Equal(t, pipeline.StatusWait, result.Status, "no liveness evidence on the first frame")
		assert.Zero(t, photos.count())
	})
}
