package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/internal/parser"
	"github.com/vidcoord/vidcoord/internal/session"
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Session   *session.Session
	Estimator *frame.Estimator
	Runner    *Runner
	Parser    *parser.Parser
	Logger    *slog.Logger
	// SeekTimeout bounds a frame step, which seeks under the session lock.
	SeekTimeout time.Duration
}

// DefaultSeekTimeout is used when Dependencies.SeekTimeout is not set.
const DefaultSeekTimeout = 5 * time.Second

// Manager turns host commands into session operations and runs frame rate
// probes in the background.
type Manager struct {
	deps Dependencies
}

// NewManager creates a new worker manager. The session is told to cancel
// probes through the runner before it moves the playback position.
func NewManager(deps Dependencies) *Manager {
	if deps.Runner == nil {
		deps.Runner = NewRunner(context.Background())
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	if deps.SeekTimeout <= 0 {
		deps.SeekTimeout = DefaultSeekTimeout
	}
	deps.Session.SetProbeCanceller(deps.Runner)
	return &Manager{deps: deps}
}

// StartFrameRateProbe begins estimating the frame rate of the loaded video.
// A probe already in flight is cancelled first. The result is applied only
// if the session did not change while probing.
func (m *Manager) StartFrameRateProbe() error {
	if m.deps.Estimator == nil {
		return fmt.Errorf("frame rate probing disabled")
	}
	// make sure the previous probe has restored the position before reading it
	m.deps.Runner.Cancel()

	v, epoch, err := m.deps.Session.BeginProbe()
	if err != nil {
		return err
	}
	err = m.deps.Runner.Start(func(ctx context.Context) {
		fps, err := m.deps.Estimator.Estimate(ctx, v)
		m.deps.Session.ApplyFrameRateEstimate(epoch, fps, err)
	})
	if err != nil {
		m.deps.Session.ApplyFrameRateEstimate(epoch, 0, err)
	}
	return err
}

// WaitForProbe blocks until the running probe, if any, has finished.
func (m *Manager) WaitForProbe() {
	m.deps.Runner.Wait()
}

// ProbeRunning reports whether a frame rate probe is in flight.
func (m *Manager) ProbeRunning() bool {
	return m.deps.Runner.Running()
}

// Close cancels any running probe.
func (m *Manager) Close() {
	m.deps.Runner.Close()
}
