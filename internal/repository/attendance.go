package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/attendly/faceclock/internal/domain"
)

type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// GetForDate returns the record for one (employee, day), or (nil, nil) when
// the employee has no record that day.
func (r *AttendanceRepository) GetForDate(ctx context.Context, employeeID int64, date time.Time) (*domain.AttendanceRecord, error) {
	query := `
		SELECT employee_id, date, check_in_time, check_out_time, status, last_event_at, photo_ref, working_hours
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2
	`

	var record domain.AttendanceRecord
	err := r.pool.QueryRow(ctx, query, employeeID, date).Scan(
		&record.EmployeeID,
		&record.Date,
		&record.CheckInTime,
		&record.CheckOutTime,
		&record.Status,
		&record.LastEventAt,
		&record.PhotoRef,
		&record.WorkingHours,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record: %w", err)
	}

	return &record, nil
}

// InsertCheckIn creates the day's record. The unique constraint on
// (employee_id, date) backstops the ledger's per-key lock across processes.
func (r *AttendanceRepository) InsertCheckIn(ctx context.Context, record *domain.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (employee_id, date, check_in_time, status, last_event_at, photo_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		record.EmployeeID,
		record.Date,
		record.CheckInTime,
		record.Status,
		record.LastEventAt,
		record.PhotoRef,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("check-in already recorded: %w", err)
		}
		return fmt.Errorf("insert check-in: %w", err)
	}

	return nil
}

func (r *AttendanceRepository) UpdateCheckOut(ctx context.Context, record *domain.AttendanceRecord) error {
	query := `
		UPDATE attendance_records
		SET check_out_time = $3, status = $4, last_event_at = $5, photo_ref = $6, working_hours = $7
		WHERE employee_id = $1 AND date = $2
	`

	result, err := r.pool.Exec(ctx, query,
		record.EmployeeID,
		record.Date,
		record.CheckOutTime,
		record.Status,
		record.LastEventAt,
		record.PhotoRef,
		record.WorkingHours,
	)
	if err != nil {
		return fmt.Errorf("update check-out: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update check-out: no record for employee %d on %s", record.EmployeeID, record.Date.Format(time.DateOnly))
	}

	return nil
}
