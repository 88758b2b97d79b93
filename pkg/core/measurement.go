// pkg/core/measurement.go
package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Unit is the real-world length unit of a calibration.
type Unit string

const (
	UnitCentimeter Unit = "cm"
	UnitMeter      Unit = "m"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == UnitCentimeter || u == UnitMeter
}

// ParseUnit accepts "cm" or "m" in any case.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("unsupported unit %q", s)
	}
	return u, nil
}

// Calibration converts native pixel lengths into real-world lengths.
// MetersPerPixel is the real length, expressed in Unit, covered by one native pixel.
type Calibration struct {
	MetersPerPixel float64 `json:"metersPerPixel"`
	Unit           Unit    `json:"unit"`
}

// DistanceRecord is a completed two-point measurement.
type DistanceRecord struct {
	ID          uuid.UUID `json:"id"`
	Value       float64   `json:"value"` // pixels
	CaptureTime float64   `json:"captureTime"`
	Points      [2]Point  `json:"points"`
}

// AngleRecord is a completed three-point measurement with the vertex at Points[1].
type AngleRecord struct {
	ID          uuid.UUID `json:"id"`
	Value       float64   `json:"value"` // degrees, two decimals
	CaptureTime float64   `json:"captureTime"`
	Points      [3]Point  `json:"points"`
}
