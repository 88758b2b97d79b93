package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// StepFrame seeks exactly one frame forward or back. While a frame is
// captured, the working points are discarded and the capture moves with it.
func (s *Session) StepFrame(ctx context.Context, dir core.Direction) (float64, error) {
	s.cancelProbe()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		return 0, ErrNoVideo
	}
	next, err := frame.StepFrame(s.video.Position(), s.frameRate, dir, s.duration)
	if err != nil {
		return 0, err
	}
	s.epoch++
	if err := s.video.Seek(ctx, next); err != nil {
		return 0, fmt.Errorf("seek to %.3fs: %w", next, err)
	}
	if s.mode != core.ModeIdle {
		s.points = nil
		s.frameTime = next
	}
	return next, nil
}

// SetFrameRate sets the frame rate by hand. Any probe result that arrives
// afterwards is discarded.
func (s *Session) SetFrameRate(fps float64) error {
	if !frame.ValidFrameRate(fps) {
		return fmt.Errorf("%w: %v", frame.ErrInvalidFrameRate, fps)
	}
	s.cancelProbe()

	s.mu.Lock()
	s.frameRate = fps
	s.frameRateEstimated = false
	s.epoch++
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.FrameRateChanged(fps, false)
	}
	return nil
}

// FrameRate returns the frame rate and whether it came from a probe.
func (s *Session) FrameRate() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameRate, s.frameRateEstimated
}

// BeginProbe hands the video to a frame rate probe together with the epoch
// its result must match. Until ApplyFrameRateEstimate is called, State and
// Snapshot report the position the video had here.
func (s *Session) BeginProbe() (frame.Video, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		return nil, 0, ErrNoVideo
	}
	s.probeOrigin = s.video.Position()
	s.probing = true
	return s.video, s.epoch, nil
}

// ApplyFrameRateEstimate ends the probe begun by BeginProbe and stores its
// result if nothing changed since the probe began. Failed probes leave the
// previous frame rate in place.
func (s *Session) ApplyFrameRateEstimate(epoch uint64, fps float64, err error) bool {
	s.mu.Lock()
	s.probing = false
	s.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		s.logger.Debug("Frame rate probe cancelled")
		return false
	}
	if err != nil {
		s.logger.Warn("Frame rate estimation failed, keeping previous", "error", err)
		return false
	}

	s.mu.Lock()
	if epoch != s.epoch {
		current := s.epoch
		s.mu.Unlock()
		s.logger.Info("Discarded stale frame rate estimate", "fps", fps, "probeEpoch", epoch, "epoch", current)
		return false
	}
	s.frameRate = fps
	s.frameRateEstimated = true
	s.mu.Unlock()

	s.logger.Info("Frame rate estimated", "fps", fps)
	if s.observer != nil {
		s.observer.FrameRateChanged(fps, true)
	}
	return true
}
