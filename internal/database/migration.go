package database

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"toolroom/internal/database/migration"
)

// RunMigrations applies every pending migration found in migrationsDir.
func RunMigrations(dbURL, migrationsDir string, verbose bool, log *zap.Logger) error {
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	migrationsURL, err := SourceURL(migrationsDir)
	if err != nil {
		return err
	}
	return migration.Migrate(dbURL, migrationsURL, verbose, log)
}

// SourceURL turns a directory into the file:// source golang-migrate expects.
func SourceURL(dir string) (string, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return "file://" + filepath.ToSlash(absPath), nil
}
