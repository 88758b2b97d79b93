package session

import (
	"math"

	"github.com/google/uuid"
	"github.com/vidcoord/vidcoord/internal/calibration"
	"github.com/vidcoord/vidcoord/internal/geo"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// State is a read-only picture of the session for rendering.
type State struct {
	SessionID          uuid.UUID            `json:"sessionId"`
	Mode               string               `json:"mode"`
	VideoLoaded        bool                 `json:"videoLoaded"`
	Dimensions         core.VideoDimensions `json:"videoDimensions"`
	Duration           *float64             `json:"duration"`
	Display            core.DisplaySize     `json:"display"`
	CurrentTime        float64              `json:"currentTime"`
	FrameRate          float64              `json:"frameRate"`
	FrameRateEstimated bool                 `json:"frameRateEstimated"`
	CaptureTime        *float64             `json:"captureTime"`
	Points             []core.Point         `json:"points"`
	ScalePoints        []core.Point         `json:"scalePoints"`
	ScalePixelDistance *float64             `json:"scalePixelDistance"`
	Calibration        *core.Calibration    `json:"calibration"`
	LiveDistance       *MeasuredValue       `json:"liveDistance"`
	LiveAngle          *float64             `json:"liveAngle"`
	Epoch              uint64               `json:"epoch"`
}

// MeasuredValue is a pixel length with its calibrated counterpart, if any.
type MeasuredValue struct {
	Pixels    float64   `json:"pixels"`
	RealValue *float64  `json:"realValue"`
	RealUnit  core.Unit `json:"realUnit,omitempty"`
}

// DistanceView is a logged distance with its calibrated value, if any.
type DistanceView struct {
	core.DistanceRecord
	RealValue *float64  `json:"realValue"`
	RealUnit  core.Unit `json:"realUnit,omitempty"`
}

func measure(cal *core.Calibration, pixels float64) MeasuredValue {
	mv := MeasuredValue{Pixels: pixels}
	if rv, unit, ok := calibration.Apply(cal, pixels); ok {
		mv.RealValue = &rv
		mv.RealUnit = unit
	}
	return mv
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		SessionID:          s.id,
		Mode:               s.mode.String(),
		VideoLoaded:        s.video != nil,
		Dimensions:         s.dims,
		Display:            s.display,
		FrameRate:          s.frameRate,
		FrameRateEstimated: s.frameRateEstimated,
		Points:             append([]core.Point{}, s.points...),
		ScalePoints:        append([]core.Point{}, s.scalePoints...),
		Epoch:              s.epoch,
	}
	if s.video != nil {
		st.CurrentTime = s.position()
		if d := s.duration; d >= 0 && !math.IsInf(d, 0) {
			st.Duration = &d
		}
	}
	if s.mode != core.ModeIdle {
		t := s.frameTime
		st.CaptureTime = &t
	}
	if s.calibration != nil {
		cal := *s.calibration
		st.Calibration = &cal
	}
	if len(s.scalePoints) == 2 {
		d := geo.Distance(s.scalePoints[0], s.scalePoints[1])
		st.ScalePixelDistance = &d
	}
	if len(s.points) >= 2 {
		mv := measure(s.calibration, geo.Distance(s.points[0], s.points[1]))
		st.LiveDistance = &mv
	}
	if len(s.points) == 3 {
		if a, err := geo.Angle(s.points[0], s.points[1], s.points[2]); err == nil {
			st.LiveAngle = &a
		}
	}
	return st
}

// Distances returns the distance log with calibrated values applied.
func (s *Session) Distances() ([]DistanceView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.store.Distances()
	if err != nil {
		return nil, err
	}
	views := make([]DistanceView, len(records))
	for i, r := range records {
		mv := measure(s.calibration, r.Value)
		views[i] = DistanceView{DistanceRecord: r, RealValue: mv.RealValue, RealUnit: mv.RealUnit}
	}
	return views, nil
}

// Angles returns the angle log.
func (s *Session) Angles() ([]core.AngleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Angles()
}

// Snapshot copies everything an export needs under one lock.
func (s *Session) Snapshot() (core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	distances, err := s.store.Distances()
	if err != nil {
		return core.Snapshot{}, err
	}
	angles, err := s.store.Angles()
	if err != nil {
		return core.Snapshot{}, err
	}
	snap := core.Snapshot{
		SessionID:       s.id,
		VideoDimensions: s.dims,
		FrameRate:       s.frameRate,
		Distances:       distances,
		Angles:          angles,
	}
	if s.video != nil {
		snap.CurrentTime = s.position()
	}
	if s.calibration != nil {
		cal := *s.calibration
		snap.Calibration = &cal
	}
	return snap, nil
}
