package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/pipeline"
	"github.com/attendly/faceclock/internal/service"
)

// KioskSessionService interface for the kiosk service
type KioskSessionService interface {
	StartSession() service.SessionInfo
	EndSession(id string) error
	ProcessFrame(ctx context.Context, id string, frameData []byte) (pipeline.Result, error)
}

// KioskHandler handles capture session and frame requests
type KioskHandler struct {
	service KioskSessionService
	logger  *slog.Logger
}

func NewKioskHandler(service KioskSessionService, logger *slog.Logger) *KioskHandler {
	return &KioskHandler{
		service: service,
		logger:  logger,
	}
}

// StartSession POST /v1/kiosk/sessions - open a capture session
func (h *KioskHandler) StartSession(c *fiber.Ctx) error {
	info := h.service.StartSession()
	return c.Status(fiber.StatusCreated).JSON(info)
}

// EndSession DELETE /v1/kiosk/sessions/:id - discard a capture session
func (h *KioskHandler) EndSession(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return domain.ErrValidationFailed.WithDetails("session id is required")
	}

	if err := h.service.EndSession(id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ProcessFrame POST /v1/kiosk/sessions/:id/frames - run one camera frame
// through the recognition pipeline
func (h *KioskHandler) ProcessFrame(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return domain.ErrValidationFailed.WithDetails("session id is required")
	}

	frame, err := extractAndValidateImage(c, "frame")
	if err != nil {
		return err
	}

	result, err := h.service.ProcessFrame(c.Context(), id, frame)
	if err != nil {
		return err
	}

	return c.JSON(result)
}
