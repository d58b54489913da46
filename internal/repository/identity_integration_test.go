//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/attendly/faceclock/internal/domain"
)

func setupIntegrationTest(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "faceclock_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/faceclock_test?sslmode=disable", host, port.Port())

	db, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		CREATE EXTENSION IF NOT EXISTS "vector";

		CREATE TABLE employees (
			id BIGINT PRIMARY KEY,
			display_name VARCHAR(255) NOT NULL,
			department VARCHAR(255) NOT NULL DEFAULT '',
			face_enrolled BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE enrolled_faces (
			employee_id BIGINT PRIMARY KEY REFERENCES employees(id) ON DELETE CASCADE,
			embedding vector(512) NOT NULL,
			photo_ref VARCHAR(255) NOT NULL DEFAULT '',
			enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE attendance_records (
			id BIGSERIAL PRIMARY KEY,
			employee_id BIGINT NOT NULL REFERENCES employees(id),
			date DATE NOT NULL,
			check_in_time TIMESTAMPTZ NOT NULL,
			check_out_time TIMESTAMPTZ,
			status VARCHAR(16) NOT NULL,
			last_event_at TIMESTAMPTZ NOT NULL,
			photo_ref VARCHAR(255) NOT NULL DEFAULT '',
			working_hours DOUBLE PRECISION,
			UNIQUE (employee_id, date)
		);

		INSERT INTO employees (id, display_name, department) VALUES
			(1, 'Alice', 'Engineering'),
			(2, 'Bob', 'Sales');
	`)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func TestIdentityRepository_Integration(t *testing.T) {
	db, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(db)

	embedding := make([]float64, domain.EmbeddingDim)
	embedding[0] = 1

	t.Run("enroll and list round trip", func(t *testing.T) {
		identity := &domain.EnrolledIdentity{
			EmployeeID: 1,
			PhotoRef:   "1.jpg",
			Embedding:  embedding,
		}
		require.NoError(t, repo.Enroll(ctx, identity))
		assert.False(t, identity.EnrolledAt.IsZero())

		identities, err := repo.ListEnrolled(ctx)
		require.NoError(t, err)
		require.Len(t, identities, 1)
		assert.Equal(t, int64(1), identities[0].EmployeeID)
		assert.Equal(t, "Alice", identities[0].DisplayName)
		assert.InDelta(t, 1.0, identities[0].Embedding[0], 1e-6)

		var flagged bool
		require.NoError(t, db.QueryRow(ctx, `SELECT face_enrolled FROM employees WHERE id = 1`).Scan(&flagged))
		assert.True(t, flagged)
	})

	t.Run("re-enrollment replaces the embedding", func(t *testing.T) {
		updated := make([]float64, domain.EmbeddingDim)
		updated[1] = 1
		require.NoError(t, repo.Enroll(ctx, &domain.EnrolledIdentity{
			EmployeeID: 1,
			PhotoRef:   "1b.jpg",
			Embedding:  updated,
		}))

		identity, err := repo.GetByEmployeeID(ctx, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, identity.Embedding[1], 1e-6)
		assert.Equal(t, "1b.jpg", identity.PhotoRef)
	})

	t.Run("enroll unknown employee rolls back", func(t *testing.T) {
		err := repo.Enroll(ctx, &domain.EnrolledIdentity{
			EmployeeID: 99,
			Embedding:  embedding,
		})
		assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)

		var count int
		require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM enrolled_faces WHERE employee_id = 99`).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("delete clears the enrollment flag", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, 1))

		var flagged bool
		require.NoError(t, db.QueryRow(ctx, `SELECT face_enrolled FROM employees WHERE id = 1`).Scan(&flagged))
		assert.False(t, flagged)

		_, err := repo.GetByEmployeeID(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
	})
}

func TestAttendanceRepository_Integration(t *testing.T) {
	db, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	checkIn := date.Add(9 * time.Hour)

	record := &domain.AttendanceRecord{
		EmployeeID:  2,
		Date:        date,
		CheckInTime: checkIn,
		Status:      domain.StatusCheckedIn,
		LastEventAt: checkIn,
		PhotoRef:    "in.jpg",
	}
	require.NoError(t, repo.InsertCheckIn(ctx, record))

	t.Run("duplicate day rejected by the constraint", func(t *testing.T) {
		err := repo.InsertCheckIn(ctx, record)
		assert.ErrorContains(t, err, "already recorded")
	})

	t.Run("check out updates the day", func(t *testing.T) {
		out := date.Add(17 * time.Hour)
		hours := 8.0
		record.Status = domain.StatusCheckedOut
		record.CheckOutTime = &out
		record.LastEventAt = out
		record.WorkingHours = &hours
		require.NoError(t, repo.UpdateCheckOut(ctx, record))

		loaded, err := repo.GetForDate(ctx, 2, date)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, domain.StatusCheckedOut, loaded.Status)
		require.NotNil(t, loaded.WorkingHours)
		assert.InDelta(t, 8.0, *loaded.WorkingHours, 1e-9)
	})
}
