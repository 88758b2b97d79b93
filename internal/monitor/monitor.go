package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/vidcoord/vidcoord/internal/session"
)

// Status is a periodic summary of the session.
type Status struct {
	Time               time.Time `json:"time"`
	SessionID          string    `json:"sessionId"`
	Mode               string    `json:"mode"`
	VideoLoaded        bool      `json:"videoLoaded"`
	CurrentTime        float64   `json:"currentTime"`
	FrameRate          float64   `json:"frameRate"`
	FrameRateEstimated bool      `json:"frameRateEstimated"`
	Calibrated         bool      `json:"calibrated"`
	Distances          int       `json:"distances"`
	Angles             int       `json:"angles"`
	ProbeRunning       bool      `json:"probeRunning"`
}

// Fields returns the numeric and boolean parts of st for telemetry.
func (st Status) Fields() map[string]any {
	return map[string]any{
		"videoLoaded":        st.VideoLoaded,
		"currentTime":        st.CurrentTime,
		"frameRate":          st.FrameRate,
		"frameRateEstimated": st.FrameRateEstimated,
		"calibrated":         st.Calibrated,
		"distances":          st.Distances,
		"angles":             st.Angles,
		"probeRunning":       st.ProbeRunning,
	}
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session      *session.Session
	ProbeRunning func() bool
	Logger       *slog.Logger
	// StatusFile, when set, always holds the latest status as JSON.
	StatusFile string
	// Sink receives every status, e.g. for telemetry.
	Sink     func(Status)
	Interval time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current session status
func (s *Service) GetStatus() (Status, error) {
	state := s.deps.Session.State()
	snap, err := s.deps.Session.Snapshot()
	if err != nil {
		return Status{}, fmt.Errorf("read measurement logs: %w", err)
	}
	st := Status{
		Time:               time.Now(),
		SessionID:          state.SessionID.String(),
		Mode:               state.Mode,
		VideoLoaded:        state.VideoLoaded,
		CurrentTime:        state.CurrentTime,
		FrameRate:          state.FrameRate,
		FrameRateEstimated: state.FrameRateEstimated,
		Calibrated:         state.Calibration != nil,
		Distances:          len(snap.Distances),
		Angles:             len(snap.Angles),
	}
	if s.deps.ProbeRunning != nil {
		st.ProbeRunning = s.deps.ProbeRunning()
	}
	return st, nil
}

// report writes one status to the status file, the log and the sink.
func (s *Service) report(statusFile *os.File) {
	st, err := s.GetStatus()
	if err != nil {
		s.deps.Logger.Error("Error reading status", "error", err)
		return
	}

	if statusFile != nil {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			data = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		statusFile.Truncate(0)
		statusFile.Seek(0, 0)
		statusFile.Write(append(data, '\n'))
	}

	s.deps.Logger.Debug("Status",
		"mode", st.Mode,
		"frameRate", st.FrameRate,
		"distances", st.Distances,
		"angles", st.Angles,
		"probeRunning", st.ProbeRunning)

	if s.deps.Sink != nil {
		s.deps.Sink(st)
	}
}

// Start starts the status monitor goroutine. It does nothing when the
// interval is not positive.
func (s *Service) Start() error {
	if s.deps.Interval <= 0 {
		return nil
	}
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}

	var statusFile *os.File
	if s.deps.StatusFile != "" {
		f, err := os.Create(s.deps.StatusFile)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("error creating status file: %w", err)
		}
		statusFile = f
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(done)
		}()

		s.deps.Logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.report(statusFile)
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for its last report to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	stop, done := s.stopChan, s.done
	s.isRunning = false
	s.mu.Unlock()

	close(stop)
	<-done
}
