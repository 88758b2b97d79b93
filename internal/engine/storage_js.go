//go:build js

package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vidcoord/vidcoord/internal/config"
	"github.com/vidcoord/vidcoord/internal/storage"
	"github.com/vidcoord/vidcoord/internal/storage/memory"
)

// the sqlite driver does not build for the browser
func openStore(cfg config.StorageConfig, sessionID uuid.UUID, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("storage type %q is not available in the browser", cfg.Type)
	}
}
