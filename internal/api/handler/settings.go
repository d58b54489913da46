package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/settings"
)

// SettingsManager interface for the settings manager
type SettingsManager interface {
	Snapshot() settings.Values
	Update(ctx context.Context, patch settings.Patch) (settings.Values, error)
}

// SettingsHandler serves the runtime recognition tunables
type SettingsHandler struct {
	manager SettingsManager
	logger  *slog.Logger
}

func NewSettingsHandler(manager SettingsManager, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		manager: manager,
		logger:  logger,
	}
}

// SettingsResponse response for settings endpoints
type SettingsResponse struct {
	MatchThreshold     float64 `json:"match_threshold"`
	DuplicateThreshold float64 `json:"duplicate_threshold"`
	CooldownSeconds    int     `json:"cooldown_seconds"`
	MinConfidence      float64 `json:"min_confidence"`
}

func toSettingsResponse(v settings.Values) SettingsResponse {
	return SettingsResponse{
		MatchThreshold:     v.MatchThreshold,
		DuplicateThreshold: v.DuplicateThreshold,
		CooldownSeconds:    int(v.Cooldown.Seconds()),
		MinConfidence:      v.MinConfidence,
	}
}

// Get GET /v1/settings - current tunables
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	return c.JSON(toSettingsResponse(h.manager.Snapshot()))
}

// Update PATCH /v1/settings - apply a partial update
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var patch settings.Patch
	if err := c.BodyParser(&patch); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	values, err := h.manager.Update(c.Context(), patch)
	if err != nil {
		return err
	}

	return c.JSON(toSettingsResponse(values))
}
