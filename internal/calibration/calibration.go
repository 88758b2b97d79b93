package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/vidcoord/vidcoord/internal/geo"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// ErrInvalidCalibrationInput is returned when a scale cannot be derived
var ErrInvalidCalibrationInput = errors.New("invalid calibration input")

// DeriveScale builds a calibration from two reference points and the real
// length between them. Both the pixel distance and the real distance must be
// positive and finite.
func DeriveScale(scalePoints [2]core.Point, realDistance float64, unit core.Unit) (core.Calibration, error) {
	if !unit.Valid() {
		return core.Calibration{}, fmt.Errorf("%w: unit %q", ErrInvalidCalibrationInput, unit)
	}
	if !finitePositive(realDistance) {
		return core.Calibration{}, fmt.Errorf("%w: real distance %v", ErrInvalidCalibrationInput, realDistance)
	}
	pixelDistance := geo.Distance(scalePoints[0], scalePoints[1])
	if !finitePositive(pixelDistance) {
		return core.Calibration{}, fmt.Errorf("%w: pixel distance %v", ErrInvalidCalibrationInput, pixelDistance)
	}
	return core.Calibration{
		MetersPerPixel: realDistance / pixelDistance,
		Unit:           unit,
	}, nil
}

// Apply converts a pixel length into the calibration's unit.
// ok is false when no calibration is set.
func Apply(cal *core.Calibration, pixelValue float64) (realValue float64, unit core.Unit, ok bool) {
	if cal == nil {
		return 0, "", false
	}
	return pixelValue * cal.MetersPerPixel, cal.Unit, true
}

// ParseUnit parses a unit name, reporting failures as invalid calibration input.
func ParseUnit(s string) (core.Unit, error) {
	u, err := core.ParseUnit(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCalibrationInput, err)
	}
	return u, nil
}

// Describe renders the calibration the way the host shows it, e.g. "1px = 0.5000 cm".
func Describe(cal *core.Calibration) string {
	if cal == nil {
		return "uncalibrated"
	}
	return fmt.Sprintf("1px = %.4f %s", cal.MetersPerPixel, cal.Unit)
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
