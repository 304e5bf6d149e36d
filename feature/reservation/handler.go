package reservation

import (
	"errors"

	"inventory-manager/core/logger"
	"inventory-manager/feature/stock"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reservations.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the reservation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reservations")
	group.Post("/", h.HandleReserve)
}

type reserveBody struct {
	Item       string  `json:"item"`
	Qty        float64 `json:"qty"`
	ReservedBy string  `json:"reserved_by"`
	Days       int     `json:"days"`
}

type reserveResponse struct {
	Reservation reservationView   `json:"reservation"`
	Aggregates  *stock.Aggregates `json:"aggregates"`
}

type reservationView struct {
	Item       string  `json:"item"`
	Qty        float64 `json:"qty"`
	ReservedBy string  `json:"reserved_by"`
	EndDate    string  `json:"end_date"`
}

// HandleReserve admits a new reservation.
// @Summary Reserve stock
// @Description Admits a reservation when current availability net of active reservations still covers the quantity.
// @Tags reservations
// @Accept json
// @Produce json
// @Param payload body reservation.reserveBody true "Reservation request"
// @Success 201 {object} reservation.reserveResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]interface{}
// @Router /reservations [post]
func (h *Handler) HandleReserve(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var body reserveBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed request body",
		})
	}

	result, err := h.service.Reserve(c.Context(), ReserveRequest{
		Item:       body.Item,
		Qty:        body.Qty,
		ReservedBy: body.ReservedBy,
		Days:       body.Days,
	})

	var insufficient *InsufficientAvailabilityError
	switch {
	case err == nil:
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrUnknownHolder):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, stock.ErrItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown item",
		})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     insufficient.Error(),
			"available": insufficient.Remaining,
		})
	default:
		l.Error("Reservation admission failed",
			zap.String("item", body.Item), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	l.Info("Reservation admitted",
		zap.String("item", result.Reservation.Item),
		zap.Float64("qty", result.Reservation.Qty),
		zap.String("reserved_by", result.Reservation.ReservedBy))

	return c.Status(fiber.StatusCreated).JSON(reserveResponse{
		Reservation: reservationView{
			Item:       result.Reservation.Item,
			Qty:        result.Reservation.Qty,
			ReservedBy: result.Reservation.ReservedBy,
			EndDate:    result.Reservation.EndDate.Format("2006-01-02"),
		},
		Aggregates: result.Aggregates,
	})
}
