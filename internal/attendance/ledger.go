package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attendly/faceclock/internal/domain"
)

// Repository is the persistence surface the ledger needs. GetForDate returns
// (nil, nil) when no record exists for the given day.
type Repository interface {
	GetForDate(ctx context.Context, employeeID int64, date time.Time) (*domain.AttendanceRecord, error)
	InsertCheckIn(ctx context.Context, record *domain.AttendanceRecord) error
	UpdateCheckOut(ctx context.Context, record *domain.AttendanceRecord) error
}

// Ledger applies recognition events to per-day attendance records. Each
// (employee, day) transitions NONE -> CHECKED_IN -> CHECKED_OUT at most once,
// with a cooldown suppressing rapid repeat triggers from a continuous camera
// feed.
type Ledger struct {
	repo   Repository
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedger(repo Repository, logger *slog.Logger) *Ledger {
	return &Ledger{
		repo:   repo,
		logger: logger.With("component", "attendance"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Apply records a recognition of employeeID at time now. It is atomic per
// (employee, day): concurrent applications serialize on a per-key mutex, and
// the database's uniqueness constraint on (employee_id, date) backstops
// multi-process deployments.
func (l *Ledger) Apply(ctx context.Context, employeeID int64, now time.Time, photoRef string, cooldown time.Duration) (domain.AttendanceEvent, error) {
	date := domain.DateOf(now)

	key := l.keyLock(employeeID, date)
	key.Lock()
	defer key.Unlock()

	record, err := l.repo.GetForDate(ctx, employeeID, date)
	if err != nil {
		return domain.AttendanceEvent{}, fmt.Errorf("load attendance record: %w", err)
	}

	if record == nil {
		return l.checkIn(ctx, employeeID, date, now, photoRef)
	}

	switch record.Status {
	case domain.StatusCheckedIn:
		if now.Sub(record.LastEventAt) < cooldown {
			return domain.AttendanceEvent{
				Outcome: domain.OutcomeAlready,
				Reason:  domain.ReasonCooldown,
				Record:  record,
			}, nil
		}
		return l.checkOut(ctx, record, now, photoRef)
	case domain.StatusCheckedOut:
		return domain.AttendanceEvent{
			Outcome: domain.OutcomeAlready,
			Reason:  domain.ReasonAlreadyCheckedOut,
			Record:  record,
		}, nil
	default:
		return domain.AttendanceEvent{}, fmt.Errorf("attendance record in unknown status %q", record.Status)
	}
}

func (l *Ledger) checkIn(ctx context.Context, employeeID int64, date, now time.Time, photoRef string) (domain.AttendanceEvent, error) {
	record := &domain.AttendanceRecord{
		EmployeeID:  employeeID,
		Date:        date,
		CheckInTime: now,
		Status:      domain.StatusCheckedIn,
		LastEventAt: now,
		PhotoRef:    photoRef,
	}
	if err := l.repo.InsertCheckIn(ctx, record); err != nil {
		return domain.AttendanceEvent{}, fmt.Errorf("insert check-in: %w", err)
	}

	l.logger.Info("attendance transition",
		"employee_id", employeeID,
		"outcome", domain.OutcomeCheckIn,
		"at", now,
	)
	return domain.AttendanceEvent{Outcome: domain.OutcomeCheckIn, Record: record}, nil
}

func (l *Ledger) checkOut(ctx context.Context, record *domain.AttendanceRecord, now time.Time, photoRef string) (domain.AttendanceEvent, error) {
	hours := now.Sub(record.CheckInTime).Hours()
	record.Status = domain.StatusCheckedOut
	record.CheckOutTime = &now
	record.LastEventAt = now
	record.WorkingHours = &hours
	if photoRef != "" {
		record.PhotoRef = photoRef
	}
	if err := l.repo.UpdateCheckOut(ctx, record); err != nil {
		return domain.AttendanceEvent{}, fmt.Errorf("update check-out: %w", err)
	}

	l.logger.Info("attendance transition",
		"employee_id", record.EmployeeID,
		"outcome", domain.OutcomeCheckOut,
		"working_hours", hours,
		"at", now,
	)
	return domain.AttendanceEvent{Outcome: domain.OutcomeCheckOut, Record: record}, nil
}

// keyLock returns the mutex guarding one (employee, day) pair. Entries are
// tiny and bounded by active employees per day, so they are not reaped.
func (l *Ledger) keyLock(employeeID int64, date time.Time) *sync.Mutex {
	k := fmt.Sprintf("%d:%s", employeeID, date.Format(time.DateOnly))
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[k]
	if !ok {
		m = &sync.Mutex{}
		l.locks[k] = m
	}
	return m
}
