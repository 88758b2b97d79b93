// pkg/core/point.go
package core

import "math"

// Point is a location in native video pixel space.
// X grows to the right and Y grows downward, as in the decoded frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VideoDimensions are the intrinsic pixel dimensions of the loaded video.
type VideoDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (d VideoDimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Aspect returns width divided by height, or 0 for invalid dimensions.
func (d VideoDimensions) Aspect() float64 {
	if !d.Valid() {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// DefaultVideoDimensions is used until a video reports its own size.
var DefaultVideoDimensions = VideoDimensions{Width: 1920, Height: 1080}

// DisplaySize is the rendered size of the captured frame on the host surface.
type DisplaySize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measured reports whether the host has reported a usable size.
func (s DisplaySize) Measured() bool {
	return s.Width > 0 && s.Height > 0 && !math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}
