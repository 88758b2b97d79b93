package frame

import (
	"errors"
	"math"

	"github.com/vidcoord/vidcoord/pkg/core"
)

// ErrInvalidFrameRate is returned for frame rates that are not finite and positive
var ErrInvalidFrameRate = errors.New("invalid frame rate")

// ValidFrameRate reports whether fps can drive frame stepping.
func ValidFrameRate(fps float64) bool {
	return fps > 0 && !math.IsInf(fps, 0) && !math.IsNaN(fps)
}

// FrameIndex returns the index of the frame nearest to t.
func FrameIndex(t, fps float64) int64 {
	return int64(math.Round(t * fps))
}

// StepFrame moves exactly one frame from currentTime. The current time is
// first snapped to the nearest frame boundary so repeated steps never drift.
// The result is clamped to [0, duration]; an unknown duration (NaN, +Inf or
// negative) only clamps the lower bound.
func StepFrame(currentTime, fps float64, dir core.Direction, duration float64) (float64, error) {
	if !ValidFrameRate(fps) {
		return currentTime, ErrInvalidFrameRate
	}
	idx := FrameIndex(currentTime, fps)
	if dir == core.Back {
		idx--
	} else {
		idx++
	}
	next := float64(idx) / fps
	if next < 0 {
		next = 0
	}
	if knownDuration(duration) && next > duration {
		next = duration
	}
	return next, nil
}

func knownDuration(d float64) bool {
	return d >= 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}
