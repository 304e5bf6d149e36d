package sync

import (
	"inventory-manager/feature/reservation/reconcile"
	"inventory-manager/feature/stock"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	pipeline *Pipeline
	handler  *Handler
	enabled  bool
}

// NewFeature creates the sync feature. The feature is disabled when no
// gateway extractor is configured; the manual endpoint then stays off.
func NewFeature(db *gorm.DB, extractor Extractor, allocator reconcile.Allocator, archiver *Archiver, logger *zap.Logger, enabled bool) *Feature {
	pipeline := NewPipeline(stock.NewStore(db), extractor, allocator, archiver, logger)
	return &Feature{
		pipeline: pipeline,
		handler:  NewHandler(pipeline, logger),
		enabled:  enabled,
	}
}

// Pipeline returns the pipeline for the scheduler and CLI commands.
func (f *Feature) Pipeline() *Pipeline {
	return f.pipeline
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
