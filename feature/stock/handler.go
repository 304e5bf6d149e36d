package stock

import (
	"errors"

	"inventory-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for stock reads.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the stock routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/stock")
	group.Get("/", h.HandleList)
	group.Get("/:item", h.HandleItem)
}

// HandleList returns reservation-aware aggregates for all items.
// @Summary List stock aggregates
// @Description Reservation-aware totals per item, optionally filtered by brand (category).
// @Tags stock
// @Produce json
// @Param brand query string false "Category filter"
// @Success 200 {array} stock.Aggregates
// @Router /stock [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	views, err := h.service.ListView(c.Context(), c.Query("brand"))
	if err != nil {
		l.Error("Stock list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(views)
}

// HandleItem returns reservation-aware aggregates for a single item.
// @Summary Get stock aggregates for one item
// @Tags stock
// @Produce json
// @Param item path string true "Item name"
// @Success 200 {object} stock.Aggregates
// @Failure 404 {object} map[string]string
// @Router /stock/{item} [get]
func (h *Handler) HandleItem(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	view, err := h.service.ItemView(c.Context(), c.Params("item"))
	if errors.Is(err, ErrItemNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown item",
		})
	}
	if err != nil {
		l.Error("Stock item read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(view)
}
