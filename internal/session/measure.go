package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vidcoord/vidcoord/internal/calibration"
	"github.com/vidcoord/vidcoord/internal/geo"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// ClickResult describes what a click on the captured frame produced.
type ClickResult struct {
	Point    core.Point           `json:"point"`
	Scale    bool                 `json:"scale"`
	Distance *core.DistanceRecord `json:"distance,omitempty"`
	Angle    *core.AngleRecord    `json:"angle,omitempty"`
}

// Click places a point at a display location. While capturing, the second
// point records a distance and the third an angle with its vertex at the
// second point; a further click starts a new set. While setting the scale,
// points go to the scale set and the second one returns to capturing.
func (s *Session) Click(display core.Point) (ClickResult, error) {
	s.mu.Lock()
	res, err := s.click(display)
	cal := s.calibration
	s.mu.Unlock()
	if err != nil {
		return res, err
	}

	if s.observer != nil {
		if res.Distance != nil {
			s.observer.DistanceRecorded(*res.Distance, cal)
		}
		if res.Angle != nil {
			s.observer.AngleRecorded(*res.Angle)
		}
	}
	return res, nil
}

func (s *Session) click(display core.Point) (ClickResult, error) {
	if s.mode == core.ModeIdle {
		return ClickResult{}, fmt.Errorf("%w: click while %s", ErrInvalidTransition, s.mode)
	}
	p, err := geo.ToNative(display, s.display, s.dims)
	if err != nil {
		return ClickResult{}, err
	}
	res := ClickResult{Point: p}

	if s.mode == core.ModeSettingScale {
		s.scalePoints = append(s.scalePoints, p)
		if len(s.scalePoints) == 2 {
			s.mode = core.ModeCapturing
		}
		res.Scale = true
		return res, nil
	}

	if len(s.points) >= 3 {
		s.points = nil
	}
	candidate := append(append([]core.Point(nil), s.points...), p)

	switch len(candidate) {
	case 2:
		rec := core.DistanceRecord{
			ID:          uuid.New(),
			Value:       geo.Distance(candidate[0], candidate[1]),
			CaptureTime: s.frameTime,
			Points:      [2]core.Point{candidate[0], candidate[1]},
		}
		if err := s.store.AppendDistance(rec); err != nil {
			return ClickResult{}, fmt.Errorf("failed to record distance: %w", err)
		}
		res.Distance = &rec
	case 3:
		value, err := geo.Angle(candidate[0], candidate[1], candidate[2])
		if err != nil {
			if errors.Is(err, geo.ErrDegenerateGeometry) {
				s.logger.Warn("Rejected angle point", "point", p, "vertex", candidate[1], "error", err)
			}
			return ClickResult{}, err
		}
		rec := core.AngleRecord{
			ID:          uuid.New(),
			Value:       value,
			CaptureTime: s.frameTime,
			Points:      [3]core.Point{candidate[0], candidate[1], candidate[2]},
		}
		if err := s.store.AppendAngle(rec); err != nil {
			return ClickResult{}, fmt.Errorf("failed to record angle: %w", err)
		}
		res.Angle = &rec
	}
	s.points = candidate
	return res, nil
}

// EnterScaleMode starts collecting a fresh pair of scale points. The current
// calibration stays in effect until a new one is committed.
func (s *Session) EnterScaleMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == core.ModeIdle {
		return fmt.Errorf("%w: set scale while %s", ErrInvalidTransition, s.mode)
	}
	s.scalePoints = nil
	s.mode = core.ModeSettingScale
	return nil
}

// CommitScale derives a calibration from the two scale points. On failure the
// previous calibration is left in place.
func (s *Session) CommitScale(realDistance float64, unit core.Unit) (core.Calibration, error) {
	s.mu.Lock()
	if s.mode == core.ModeIdle {
		s.mu.Unlock()
		return core.Calibration{}, fmt.Errorf("%w: commit scale while %s", ErrInvalidTransition, s.mode)
	}
	if len(s.scalePoints) != 2 {
		n := len(s.scalePoints)
		s.mu.Unlock()
		return core.Calibration{}, fmt.Errorf("%w: have %d", ErrScalePointsIncomplete, n)
	}
	cal, err := calibration.DeriveScale([2]core.Point{s.scalePoints[0], s.scalePoints[1]}, realDistance, unit)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("Calibration rejected, keeping previous", "error", err)
		return core.Calibration{}, err
	}
	s.calibration = &cal
	s.mode = core.ModeCapturing
	s.mu.Unlock()

	s.logger.Info("Calibration set", "calibration", calibration.Describe(&cal))
	if s.observer != nil {
		s.observer.CalibrationChanged(&cal)
	}
	return cal, nil
}

// ClearCalibration removes the calibration. Real-unit values disappear from
// every view and export immediately since they are computed on read.
func (s *Session) ClearCalibration() {
	s.mu.Lock()
	had := s.calibration != nil
	s.calibration = nil
	s.mu.Unlock()

	if had && s.observer != nil {
		s.observer.CalibrationChanged(nil)
	}
}

// Calibration returns a copy of the current calibration, or nil.
func (s *Session) Calibration() *core.Calibration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.calibration == nil {
		return nil
	}
	cal := *s.calibration
	return &cal
}

// RemoveDistanceAt deletes the distance at a zero-based log position.
func (s *Session) RemoveDistanceAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.RemoveDistance(index)
}

// RemoveAngleAt deletes the angle at a zero-based log position.
func (s *Session) RemoveAngleAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.RemoveAngle(index)
}

// ClearDistances empties the distance log.
func (s *Session) ClearDistances() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ClearDistances()
}

// ClearAngles empties the angle log.
func (s *Session) ClearAngles() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ClearAngles()
}
