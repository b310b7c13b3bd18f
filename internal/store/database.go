// Package store persists snapshots and the replay log using gorm over
// sqlite, in the style of the teacher's internal/database package.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps a gorm connection to the replay/snapshot database.
type DB struct {
	*gorm.DB
}

// Open connects to the sqlite file at path and auto-migrates the
// store's schema.
func Open(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&SessionRecord{},
		&SnapshotRecord{},
		&TickLogRecord{},
		&IntentRecord{},
	); err != nil {
		return nil, fmt.Errorf("store: failed to migrate schema: %w", err)
	}

	return &DB{db}, nil
}

// Close releases the underlying sql.DB connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
