package handler

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/repository"
)

// AttendanceHandler serves attendance record lookups
type AttendanceHandler struct {
	records repository.AttendanceRepositoryInterface
	logger  *slog.Logger
	now     func() time.Time
}

func NewAttendanceHandler(records repository.AttendanceRepositoryInterface, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		records: records,
		logger:  logger,
		now:     time.Now,
	}
}

// Today GET /v1/attendance/:employee_id/today - today's record for an employee
func (h *AttendanceHandler) Today(c *fiber.Ctx) error {
	employeeID, err := parseEmployeeID(c)
	if err != nil {
		return err
	}

	record, err := h.records.GetForDate(c.Context(), employeeID, domain.DateOf(h.now()))
	if err != nil {
		return domain.ErrPersistence.WithError(err)
	}
	if record == nil {
		return domain.ErrNotFound
	}

	return c.JSON(record)
}
