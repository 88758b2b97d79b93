package geo

import (
	"math"

	"github.com/vidcoord/vidcoord/pkg/core"
)

// ToNative maps a pointer location on the rendered frame into native pixel
// space. Each axis is scaled on its own, so a stretched display still maps
// back onto the decoded frame.
func ToNative(display core.Point, size core.DisplaySize, native core.VideoDimensions) (core.Point, error) {
	if !size.Measured() {
		return core.Point{}, ErrDisplayNotMeasured
	}
	if !Finite(display) {
		return core.Point{}, ErrInvalidCoordinates
	}
	p := core.Point{
		X: display.X * (float64(native.Width) / size.Width),
		Y: display.Y * (float64(native.Height) / size.Height),
	}
	if !Finite(p) {
		return core.Point{}, ErrInvalidCoordinates
	}
	return p, nil
}

// DisplayHeightFor returns the rendered height that keeps the native aspect
// ratio at the given rendered width.
func DisplayHeightFor(displayWidth float64, native core.VideoDimensions) float64 {
	aspect := native.Aspect()
	if aspect == 0 || displayWidth <= 0 {
		return 0
	}
	return math.Round(displayWidth / aspect)
}
