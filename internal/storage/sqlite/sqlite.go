// Package sqlitestorage implements the storage.Backend interface on SQLite.
// The database lives in memory unless a file path is given. It wraps the GORM
// backend via composition; the only SQLite-specific concerns are opening the
// database and releasing it on Close.
package sqlitestorage

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vidcoord/vidcoord/internal/database"
	gormstorage "github.com/vidcoord/vidcoord/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db     *gorm.DB
	logger *slog.Logger
}

// New creates a new SQLite storage backend for one session. Rows of other
// sessions in the same file are left alone.
func New(path string, sessionID uuid.UUID, logger *slog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB %q: %w", path, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:        db,
		SessionID: sessionID,
		Logger:    logger,
	})

	return &Backend{
		Backend: gormBackend,
		db:      db,
		logger:  logger,
	}, nil
}

// Close releases the database. An in-memory database loses its contents.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if err := database.Close(b.db); err != nil {
		return fmt.Errorf("failed to close SQLite DB: %w", err)
	}
	b.logger.Debug("Closed SQLite DB")
	return nil
}
