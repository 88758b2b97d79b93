//go:build !js

package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vidcoord/vidcoord/internal/config"
	"github.com/vidcoord/vidcoord/internal/storage"
	"github.com/vidcoord/vidcoord/internal/storage/memory"
	sqlitestorage "github.com/vidcoord/vidcoord/internal/storage/sqlite"
)

func openStore(cfg config.StorageConfig, sessionID uuid.UUID, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite.Path, sessionID, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
