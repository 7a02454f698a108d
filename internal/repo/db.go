// Package repo implements the persistence layer for the price index and
// watch store on GORM. This file holds the SQLite bootstrap (pure Go
// driver, no cgo) and schema migration.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
)

// OpenSQLite opens (or creates) the database file and applies PRAGMAs
// suited to a single-writer price index: WAL for concurrent readers while
// ingests write, and a busy timeout so overlapping receipt submissions
// queue instead of failing.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early when the parent directory is missing; the driver would
	// otherwise surface it as sqlite "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every persisted model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Product{},
		&domain.ProductAlias{},
		&domain.PricePoint{},
		&domain.WatchedItem{},
		&domain.NotificationRecord{},
		&domain.Idempotency{},
	)
}
