// Package gormstorage implements the storage.Backend interface on top of any
// GORM database. Every row carries the session ID, so several sessions can
// share one database without seeing each other's logs.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vidcoord/vidcoord/internal/database"
	"github.com/vidcoord/vidcoord/internal/model"
	"github.com/vidcoord/vidcoord/internal/model/convert"
	"github.com/vidcoord/vidcoord/internal/storage"
	"github.com/vidcoord/vidcoord/pkg/core"
	"gorm.io/gorm"
)

// Dependencies holds everything the GORM backend needs
type Dependencies struct {
	DB        *gorm.DB
	SessionID uuid.UUID
	Logger    *slog.Logger
}

// Backend writes measurement logs synchronously through GORM.
type Backend struct {
	db        *gorm.DB
	sessionID uuid.UUID
	logger    *slog.Logger
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		db:        deps.DB,
		sessionID: deps.SessionID,
		logger:    logger,
	}
}

// Init migrates the measurement tables.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm backend has no database")
	}
	return database.Migrate(b.db)
}

// Close is a no-op; the owner of the *gorm.DB closes it.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) session() *gorm.DB {
	return b.db.Where("session_id = ?", b.sessionID.String())
}

// AppendDistance inserts a distance row at the end of the log.
func (b *Backend) AppendDistance(r core.DistanceRecord) error {
	row, err := convert.CoreToDistance(b.sessionID, r)
	if err != nil {
		return err
	}
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert distance: %w", err)
	}
	return nil
}

// RemoveDistance deletes the row at index in insertion order.
func (b *Backend) RemoveDistance(index int) error {
	return b.removeAt(&model.Distance{}, index)
}

// ClearDistances deletes every distance row of the session.
func (b *Backend) ClearDistances() error {
	if err := b.session().Delete(&model.Distance{}).Error; err != nil {
		return fmt.Errorf("failed to clear distances: %w", err)
	}
	return nil
}

// Distances returns the distance log in insertion order.
func (b *Backend) Distances() ([]core.DistanceRecord, error) {
	var rows []model.Distance
	if err := b.session().Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load distances: %w", err)
	}
	out := make([]core.DistanceRecord, 0, len(rows))
	for _, row := range rows {
		r, err := convert.DistanceToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// AppendAngle inserts an angle row at the end of the log.
func (b *Backend) AppendAngle(r core.AngleRecord) error {
	row, err := convert.CoreToAngle(b.sessionID, r)
	if err != nil {
		return err
	}
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert angle: %w", err)
	}
	return nil
}

// RemoveAngle deletes the row at index in insertion order.
func (b *Backend) RemoveAngle(index int) error {
	return b.removeAt(&model.Angle{}, index)
}

// ClearAngles deletes every angle row of the session.
func (b *Backend) ClearAngles() error {
	if err := b.session().Delete(&model.Angle{}).Error; err != nil {
		return fmt.Errorf("failed to clear angles: %w", err)
	}
	return nil
}

// Angles returns the angle log in insertion order.
func (b *Backend) Angles() ([]core.AngleRecord, error) {
	var rows []model.Angle
	if err := b.session().Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load angles: %w", err)
	}
	out := make([]core.AngleRecord, 0, len(rows))
	for _, row := range rows {
		r, err := convert.AngleToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// removeAt resolves the index to a primary key and deletes that row.
func (b *Backend) removeAt(table any, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", storage.ErrIndexOutOfRange, index)
	}
	var ids []uint
	err := b.session().Model(table).Order("id").Offset(index).Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to locate row %d: %w", index, err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: %d", storage.ErrIndexOutOfRange, index)
	}
	if err := b.db.Delete(table, ids[0]).Error; err != nil {
		return fmt.Errorf("failed to delete row %d: %w", index, err)
	}
	b.logger.Debug("Removed log row", "index", index, "id", ids[0])
	return nil
}
