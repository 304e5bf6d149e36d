// Package database handles database connections for the inventory store.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) that configures
// MySQL connections for production and sqlite connections for tests, based on the
// application's configuration.
//
// # Connect
//
// Connect establishes a connection with bounded setup and I/O timeouts, pooled
// connections, and (on MySQL) a bounded innodb lock wait so reservation
// transactions fail with a retryable error rather than deadlocking.
//
// # Row Locking
//
// Reservation admission relies on SELECT ... FOR UPDATE. SupportsRowLocks lets
// callers skip the locking clause on sqlite, where a single pooled connection
// already serializes writers.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
