// Package synthetic provides a generated video whose image changes exactly at
// every frame boundary of a chosen rate. It stands in for a decoder in tests
// and in hosts that want to exercise the engine without media files.
package synthetic

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/vidcoord/vidcoord/pkg/core"
)

// Option configures a Video.
type Option func(*Video)

// WithSeekDelay makes every seek take d before completing.
func WithSeekDelay(d time.Duration) Option {
	return func(v *Video) {
		v.seekDelay = d
	}
}

// WithStartPosition sets the initial playback position.
func WithStartPosition(t float64) Option {
	return func(v *Video) {
		v.pos = t
	}
}

// Video is a generated clip of a fixed frame rate.
type Video struct {
	dims     core.VideoDimensions
	duration float64
	fps      float64

	seekDelay time.Duration

	mu    sync.Mutex
	pos   float64
	seeks int
}

// New creates a clip of the given size, length in seconds and frame rate.
func New(dims core.VideoDimensions, duration, fps float64, opts ...Option) *Video {
	v := &Video{dims: dims, duration: duration, fps: fps}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Video) Dimensions() core.VideoDimensions { return v.dims }

func (v *Video) Duration() float64 { return v.duration }

// FrameRate returns the rate the clip was generated at.
func (v *Video) FrameRate() float64 { return v.fps }

func (v *Video) Position() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos
}

// Seeks returns how many seeks completed.
func (v *Video) Seeks() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seeks
}

func (v *Video) Seek(ctx context.Context, t float64) error {
	if v.seekDelay > 0 {
		timer := time.NewTimer(v.seekDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.pos = math.Max(0, math.Min(t, v.duration))
	v.seeks++
	return nil
}

func (v *Video) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &pattern{index: v.FrameAt(v.Position()), w: v.dims.Width, h: v.dims.Height}, nil
}

// FrameAt returns the index of the frame shown at t.
func (v *Video) FrameAt(t float64) int64 {
	return int64(math.Floor(t*v.fps + 1e-9))
}

// pattern is a frame image computed on demand. Its red and green channels
// encode the frame index and blue carries a diagonal gradient.
type pattern struct {
	index int64
	w, h  int
}

func (p *pattern) ColorModel() color.Model { return color.RGBAModel }

func (p *pattern) Bounds() image.Rectangle { return image.Rect(0, 0, p.w, p.h) }

func (p *pattern) At(x, y int) color.Color {
	return color.RGBA{
		R: uint8(p.index * 37),
		G: uint8(p.index * 11),
		B: uint8(x + y),
		A: 0xff,
	}
}
