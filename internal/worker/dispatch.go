package worker

import (
	"context"

	"github.com/vidcoord/vidcoord/internal/dispatcher"
	"github.com/vidcoord/vidcoord/internal/parser"
)

// RegisterHandlers registers the measurement and navigation commands with
// the dispatcher. All of them run synchronously so the host sees the new
// state in the reply.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Mode transitions
	d.Register(":CAPTURE:", m.handleCapture, dispatcher.Logged())
	d.Register(":BACK:", m.handleBack, dispatcher.Logged())

	// Point placement
	d.Register(":CLICK:", m.handleClick, dispatcher.Logged())
	d.Register(":POINTS:CLEAR:", m.handleClearPoints)

	// Calibration
	d.Register(":SCALE:BEGIN:", m.handleScaleBegin, dispatcher.Logged())
	d.Register(":SCALE:COMMIT:", m.handleScaleCommit, dispatcher.Logged())
	d.Register(":SCALE:CLEAR:", m.handleScaleClear, dispatcher.Logged())

	// Navigation and frame rate
	d.Register(":FRAME:STEP:", m.handleFrameStep, dispatcher.Logged())
	d.Register(":FPS:SET:", m.handleFrameRateSet, dispatcher.Logged())
	d.Register(":FPS:ESTIMATE:", m.handleFrameRateEstimate, dispatcher.Logged())
	d.Register(":FPS:CANCEL:", m.handleFrameRateCancel)

	// Measurement logs
	d.Register(":DISTANCES:", m.handleDistances)
	d.Register(":ANGLES:", m.handleAngles)
	d.Register(":DISTANCE:REMOVE:", m.handleDistanceRemove, dispatcher.Logged())
	d.Register(":DISTANCE:CLEAR:", m.handleDistanceClear, dispatcher.Logged())
	d.Register(":ANGLE:REMOVE:", m.handleAngleRemove, dispatcher.Logged())
	d.Register(":ANGLE:CLEAR:", m.handleAngleClear, dispatcher.Logged())
}

func (m *Manager) handleCapture(e dispatcher.Event) (any, error) {
	return m.deps.Session.Capture()
}

func (m *Manager) handleBack(e dispatcher.Event) (any, error) {
	return nil, m.deps.Session.BackToVideo()
}

func (m *Manager) handleClick(e dispatcher.Event) (any, error) {
	pt, err := m.deps.Parser.ParsePoint(e.Args)
	if err != nil {
		return nil, err
	}
	return m.deps.Session.Click(pt)
}

func (m *Manager) handleClearPoints(e dispatcher.Event) (any, error) {
	m.deps.Session.ClearPoints()
	return nil, nil
}

func (m *Manager) handleScaleBegin(e dispatcher.Event) (any, error) {
	return nil, m.deps.Session.EnterScaleMode()
}

func (m *Manager) handleScaleCommit(e dispatcher.Event) (any, error) {
	realDistance, unit, err := m.deps.Parser.ParseScale(e.Args)
	if err != nil {
		return nil, err
	}
	return m.deps.Session.CommitScale(realDistance, unit)
}

func (m *Manager) handleScaleClear(e dispatcher.Event) (any, error) {
	m.deps.Session.ClearCalibration()
	return nil, nil
}

func (m *Manager) handleFrameStep(e dispatcher.Event) (any, error) {
	dir, err := m.deps.Parser.ParseDirection(e.Args)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.deps.SeekTimeout)
	defer cancel()
	return m.deps.Session.StepFrame(ctx, dir)
}

func (m *Manager) handleFrameRateSet(e dispatcher.Event) (any, error) {
	fps, err := m.deps.Parser.ParseFloat(e.Args, "frame rate")
	if err != nil {
		return nil, err
	}
	if err := m.deps.Session.SetFrameRate(fps); err != nil {
		return nil, err
	}
	return fps, nil
}

// handleFrameRateEstimate starts a probe. With a "wait" arg it blocks until
// the probe is done and returns the resulting frame rate, which is the
// previous one if the probe failed or was superseded.
func (m *Manager) handleFrameRateEstimate(e dispatcher.Event) (any, error) {
	if err := m.StartFrameRateProbe(); err != nil {
		return nil, err
	}
	if !parser.HasFlag(e.Args, "wait") {
		return "started", nil
	}
	m.WaitForProbe()
	fps, _ := m.deps.Session.FrameRate()
	return fps, nil
}

func (m *Manager) handleFrameRateCancel(e dispatcher.Event) (any, error) {
	m.deps.Runner.Cancel()
	return nil, nil
}

func (m *Manager) handleDistances(e dispatcher.Event) (any, error) {
	return m.deps.Session.Distances()
}

func (m *Manager) handleAngles(e dispatcher.Event) (any, error) {
	return m.deps.Session.Angles()
}

func (m *Manager) handleDistanceRemove(e dispatcher.Event) (any, error) {
	i, err := m.deps.Parser.ParseIndex(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, m.deps.Session.RemoveDistanceAt(i)
}

func (m *Manager) handleDistanceClear(e dispatcher.Event) (any, error) {
	return nil, m.deps.Session.ClearDistances()
}

func (m *Manager) handleAngleRemove(e dispatcher.Event) (any, error) {
	i, err := m.deps.Parser.ParseIndex(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, m.deps.Session.RemoveAngleAt(i)
}

func (m *Manager) handleAngleClear(e dispatcher.Event) (any, error) {
	return nil, m.deps.Session.ClearAngles()
}
