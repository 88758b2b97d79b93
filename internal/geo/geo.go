package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/vidcoord/vidcoord/pkg/core"
)

// All points handled here live in native video pixel space unless a function
// says otherwise. Display coordinates only enter through ToNative.

// ErrInvalidCoordinates is returned when a coordinate string cannot be parsed
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrDisplayNotMeasured is returned when the rendered frame size is still unknown
var ErrDisplayNotMeasured = errors.New("display size not measured")

// ErrDegenerateGeometry is returned when an angle ray has zero length
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// PointFromString parses a string in the format "x,y" into a core.Point.
func PointFromString(coords string) (core.Point, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return core.Point{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Point{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Point{}, ErrInvalidCoordinates
	}
	p := core.Point{X: x, Y: y}
	if !Finite(p) {
		return core.Point{}, ErrInvalidCoordinates
	}
	return p, nil
}

// Finite reports whether both coordinates are real numbers.
func Finite(p core.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
