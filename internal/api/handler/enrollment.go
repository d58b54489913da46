package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/attendly/faceclock/internal/domain"
)

// EnrollmentManager interface for the enrollment service
type EnrollmentManager interface {
	Enroll(ctx context.Context, employeeID int64, imageData []byte) (*domain.EnrolledIdentity, error)
	Delete(ctx context.Context, employeeID int64) error
}

// EnrollmentHandler handles face enrollment requests
type EnrollmentHandler struct {
	service EnrollmentManager
	logger  *slog.Logger
}

func NewEnrollmentHandler(service EnrollmentManager, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger,
	}
}

// EnrollResponse response for enroll endpoint
type EnrollResponse struct {
	EmployeeID int64  `json:"employee_id"`
	PhotoRef   string `json:"photo_ref,omitempty"`
	EnrolledAt string `json:"enrolled_at"`
}

// Enroll POST /v1/employees/:employee_id/face - enroll an employee's face
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	employeeID, err := parseEmployeeID(c)
	if err != nil {
		return err
	}

	imageBytes, err := extractAndValidateImage(c, "image")
	if err != nil {
		return err
	}

	identity, err := h.service.Enroll(c.Context(), employeeID, imageBytes)
	if err != nil {
		return err
	}

	enrolledAt := identity.EnrolledAt
	if enrolledAt.IsZero() {
		enrolledAt = time.Now().UTC()
	}

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		EmployeeID: identity.EmployeeID,
		PhotoRef:   identity.PhotoRef,
		EnrolledAt: enrolledAt.UTC().Format(time.RFC3339),
	})
}

// Delete DELETE /v1/employees/:employee_id/face - remove an enrollment
func (h *EnrollmentHandler) Delete(c *fiber.Ctx) error {
	employeeID, err := parseEmployeeID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), employeeID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseEmployeeID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("employee_id")
	if err != nil || id <= 0 {
		return 0, domain.ErrValidationFailed.WithDetails("employee_id must be a positive integer")
	}
	return int64(id), nil
}
