package reservation

import (
	"inventory-manager/core/credentials"
	"inventory-manager/core/mailer"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the reservation feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, creds credentials.Store, notifier mailer.Notifier, lock bool) *Feature {
	svc := NewService(db, logger, creds, notifier, lock)
	return &Feature{
		service: svc,
		handler: NewHandler(svc, logger),
	}
}

// Service returns the reservation service for wiring into other features.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "reservation"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
