// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/vidcoord/vidcoord/internal/geo"
	"github.com/vidcoord/vidcoord/internal/model"
	"github.com/vidcoord/vidcoord/pkg/core"
	"gorm.io/datatypes"
)

// pointsToJSON converts points to datatypes.JSON for DB storage.
func pointsToJSON(points []core.Point) (datatypes.JSON, error) {
	data, err := json.Marshal(points)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func pointsFromJSON(data datatypes.JSON, want int) ([]core.Point, error) {
	var points []core.Point
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("failed to decode points: %w", err)
	}
	if len(points) != want {
		return nil, fmt.Errorf("expected %d points, got %d", want, len(points))
	}
	return points, nil
}

// CoreToDistance converts a core.DistanceRecord to a GORM model.Distance.
func CoreToDistance(sessionID uuid.UUID, r core.DistanceRecord) (model.Distance, error) {
	points, err := pointsToJSON(r.Points[:])
	if err != nil {
		return model.Distance{}, err
	}
	wkt, err := geo.WKT(r.Points[:])
	if err != nil {
		return model.Distance{}, err
	}
	return model.Distance{
		SessionID:   sessionID.String(),
		RecordID:    r.ID.String(),
		Value:       r.Value,
		CaptureTime: r.CaptureTime,
		Points:      points,
		Geometry:    wkt,
	}, nil
}

// DistanceToCore converts a GORM model.Distance back to a core.DistanceRecord.
func DistanceToCore(m model.Distance) (core.DistanceRecord, error) {
	id, err := uuid.Parse(m.RecordID)
	if err != nil {
		return core.DistanceRecord{}, fmt.Errorf("invalid record id %q: %w", m.RecordID, err)
	}
	points, err := pointsFromJSON(m.Points, 2)
	if err != nil {
		return core.DistanceRecord{}, err
	}
	return core.DistanceRecord{
		ID:          id,
		Value:       m.Value,
		CaptureTime: m.CaptureTime,
		Points:      [2]core.Point{points[0], points[1]},
	}, nil
}

// CoreToAngle converts a core.AngleRecord to a GORM model.Angle.
func CoreToAngle(sessionID uuid.UUID, r core.AngleRecord) (model.Angle, error) {
	points, err := pointsToJSON(r.Points[:])
	if err != nil {
		return model.Angle{}, err
	}
	wkt, err := geo.WKT(r.Points[:])
	if err != nil {
		return model.Angle{}, err
	}
	return model.Angle{
		SessionID:   sessionID.String(),
		RecordID:    r.ID.String(),
		Value:       r.Value,
		CaptureTime: r.CaptureTime,
		Points:      points,
		Geometry:    wkt,
	}, nil
}

// AngleToCore converts a GORM model.Angle back to a core.AngleRecord.
func AngleToCore(m model.Angle) (core.AngleRecord, error) {
	id, err := uuid.Parse(m.RecordID)
	if err != nil {
		return core.AngleRecord{}, fmt.Errorf("invalid record id %q: %w", m.RecordID, err)
	}
	points, err := pointsFromJSON(m.Points, 3)
	if err != nil {
		return core.AngleRecord{}, err
	}
	return core.AngleRecord{
		ID:          id,
		Value:       m.Value,
		CaptureTime: m.CaptureTime,
		Points:      [3]core.Point{points[0], points[1], points[2]},
	}, nil
}
