package db

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (creating if needed) the SQLite database at path and migrates its tables.
func Open(path string) (*gorm.DB, error) {
	if err := createDBDirectory(path); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to open database")
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	configureLogger(gdb)

	log.Info().Str("path", path).Msg("Database initialized successfully")
	return gdb, nil
}

// createDBDirectory creates the parent directory of the database file if it doesn't exist.
func createDBDirectory(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			log.Error().Err(err).Msg("Failed to create database directory")
			return err
		}
	}
	return nil
}

// Migrate creates the tables if they don't exist.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&Entry{}); err != nil {
		log.Error().Err(err).Msg("Failed to auto-migrate database")
		return err
	}
	return nil
}

// configureLogger silences GORM unless debug logging is enabled.
func configureLogger(gdb *gorm.DB) {
	if zerolog.GlobalLevel() == zerolog.Disabled {
		gdb.Logger = gdb.Logger.LogMode(logger.Silent)
	} else {
		gdb.Logger = gdb.Logger.LogMode(logger.Info)
	}
}

// Close closes the underlying database connection.
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get raw database connection")
		return err
	}
	return sqlDB.Close()
}
