package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/attendly/faceclock/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories use. pgxmock
// implements it for unit tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IdentityRepositoryInterface defines operations for enrolled face data access
type IdentityRepositoryInterface interface {
	ListEnrolled(ctx context.Context) ([]domain.EnrolledIdentity, error)
	GetByEmployeeID(ctx context.Context, employeeID int64) (*domain.EnrolledIdentity, error)
	Enroll(ctx context.Context, identity *domain.EnrolledIdentity) error
	Delete(ctx context.Context, employeeID int64) error
}

// AttendanceRepositoryInterface defines operations for attendance data access
type AttendanceRepositoryInterface interface {
	GetForDate(ctx context.Context, employeeID int64, date time.Time) (*domain.AttendanceRecord, error)
	InsertCheckIn(ctx context.Context, record *domain.AttendanceRecord) error
	UpdateCheckOut(ctx context.Context, record *domain.AttendanceRecord) error
}

// SettingsRepositoryInterface defines operations for persisted settings
type SettingsRepositoryInterface interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, key, value string) error
}
