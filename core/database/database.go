package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a database connection based on the configured driver.
// MySQL is the production driver; sqlite exists for tests and local runs.
func Connect(cfg Config) (*gorm.DB, error) {
	// Suppress GORM's own logging; the application logger covers it.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	if cfg.Driver == "sqlite" {
		return connectSQLite(cfg, gormConfig, timeout)
	}
	return connectMySQL(cfg, gormConfig, timeout)
}

func connectMySQL(cfg Config, gormConfig *gorm.Config, timeout int) (*gorm.DB, error) {
	// go-sql-driver requires special characters in the password to be URL encoded.
	userInfo := url.UserPassword(cfg.User, cfg.Password).String()

	dsn := fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		userInfo, cfg.Host, cfg.Port, cfg.Name, timeout, timeout, timeout)

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Bound row-lock waits so a contended reservation surfaces a retryable
	// error instead of blocking indefinitely.
	if cfg.LockWaitSeconds > 0 {
		if err := db.Exec("SET SESSION innodb_lock_wait_timeout = ?", cfg.LockWaitSeconds).Error; err != nil {
			return nil, fmt.Errorf("failed to set lock wait timeout: %w", err)
		}
	}

	return db, nil
}

func connectSQLite(cfg Config, gormConfig *gorm.Config, timeout int) (*gorm.DB, error) {
	name := cfg.Name
	// A plain ":memory:" DSN gives every pooled connection its own database;
	// shared cache keeps them on one.
	if name == ":memory:" {
		name = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(name), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// SQLite permits one writer; a single pooled connection serializes
	// concurrent transactions instead of surfacing SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Duration(timeout) * time.Second * 10)

	return db, nil
}

// SupportsRowLocks reports whether the connected dialect honors
// SELECT ... FOR UPDATE. SQLite serializes writers globally instead.
func SupportsRowLocks(db *gorm.DB) bool {
	return db.Dialector.Name() != "sqlite"
}
