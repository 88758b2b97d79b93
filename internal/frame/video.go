package frame

import (
	"context"
	"image"

	"github.com/vidcoord/vidcoord/pkg/core"
)

// Video is the host media surface the engine drives. Implementations wrap a
// decoder or a playback element; the engine never decodes video itself.
type Video interface {
	// Dimensions returns the native pixel size of the video.
	Dimensions() core.VideoDimensions
	// Duration returns the length in seconds, or NaN when unknown.
	Duration() float64
	// Position returns the current playback position in seconds.
	Position() float64
	// Seek moves the playback position and returns once the seek completed.
	Seek(ctx context.Context, t float64) error
	// Frame decodes the image at the current position.
	Frame(ctx context.Context) (image.Image, error)
}
