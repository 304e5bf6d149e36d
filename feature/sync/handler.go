package sync

import (
	"errors"

	"inventory-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for manual sync runs.
type Handler struct {
	pipeline *Pipeline
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(pipeline *Pipeline, logger *zap.Logger) *Handler {
	return &Handler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/sync", h.HandleSync)
}

// HandleSync triggers one sync cycle.
// @Summary Run one sync cycle
// @Description Fetches both snapshots, replaces the store, and reconciles the reservation ledger.
// @Tags sync
// @Produce json
// @Success 200 {object} sync.Report
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	report, err := h.pipeline.RunOnce(c.Context())
	if errors.Is(err, ErrAlreadyRunning) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}
	if errors.Is(err, ErrNothingToLoad) {
		return c.JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}
	if err != nil {
		l.Error("Manual sync cycle failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}
