package cmd

import (
	"fmt"

	"inventory-manager/core/config"
	credstore "inventory-manager/core/credentials"
	"inventory-manager/core/database"
	"inventory-manager/core/logger"
	reservationmodels "inventory-manager/feature/reservation/models"
	stockmodels "inventory-manager/feature/stock/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// bootstrap loads configuration, builds the logger, connects the database,
// and migrates the schema. Shared by every command that touches the store.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}

	err = db.AutoMigrate(
		&stockmodels.StockItem{},
		&stockmodels.StockMovement{},
		&reservationmodels.StockReservation{},
		&credstore.Credential{},
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("migrate schema: %w", err)
	}

	return cfg, logg, db, nil
}
