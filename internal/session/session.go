package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/internal/geo"
	"github.com/vidcoord/vidcoord/internal/storage"
	"github.com/vidcoord/vidcoord/internal/storage/memory"
	"github.com/vidcoord/vidcoord/pkg/core"
)

var (
	// ErrInvalidTransition is returned when an operation is not legal in the current mode
	ErrInvalidTransition = errors.New("invalid mode transition")
	// ErrNoVideo is returned by operations that need a loaded video
	ErrNoVideo = errors.New("no video loaded")
	// ErrScalePointsIncomplete is returned when committing a scale without two reference points
	ErrScalePointsIncomplete = errors.New("two scale points required")
)

// Observer is told about completed measurements and settings changes.
// Calls happen after the session lock is released.
type Observer interface {
	DistanceRecorded(r core.DistanceRecord, cal *core.Calibration)
	AngleRecorded(r core.AngleRecord)
	CalibrationChanged(cal *core.Calibration)
	FrameRateChanged(fps float64, estimated bool)
}

// ProbeCanceller stops an in-flight frame rate probe and waits for it to
// release the video.
type ProbeCanceller interface {
	Cancel()
}

// Options configures a new Session.
type Options struct {
	ID        uuid.UUID
	Store     storage.Backend
	Logger    *slog.Logger
	Observer  Observer
	FrameRate float64
}

// Session owns all measurement state of one loaded video: the interaction
// mode, the working point sets, the calibration, the frame rate and the
// measurement logs.
type Session struct {
	id       uuid.UUID
	store    storage.Backend
	logger   *slog.Logger
	observer Observer

	mu        sync.RWMutex
	video     frame.Video
	dims      core.VideoDimensions
	duration  float64
	display   core.DisplaySize
	mode      core.Mode
	frameTime float64

	points      []core.Point
	scalePoints []core.Point
	calibration *core.Calibration

	frameRate          float64
	frameRateEstimated bool

	// epoch changes whenever playback state changes under a running probe
	epoch  uint64
	prober ProbeCanceller

	// while a probe seeks the shared video, position reads report where the
	// user was when it began
	probing     bool
	probeOrigin float64
}

// New creates a session with no video loaded.
func New(opts Options) *Session {
	s := &Session{
		id:        opts.ID,
		store:     opts.Store,
		logger:    opts.Logger,
		observer:  opts.Observer,
		dims:      core.DefaultVideoDimensions,
		duration:  math.NaN(),
		frameRate: opts.FrameRate,
	}
	if s.id == uuid.Nil {
		s.id = uuid.New()
	}
	if s.store == nil {
		s.store = memory.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if !frame.ValidFrameRate(s.frameRate) {
		s.frameRate = core.DefaultFrameRate
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// SetProbeCanceller installs the hook used to stop frame rate probes before
// the session moves the playback position.
func (s *Session) SetProbeCanceller(p ProbeCanceller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prober = p
}

// cancelProbe must be called without holding mu: the probe may be waiting to
// report its result through the session.
func (s *Session) cancelProbe() {
	s.mu.RLock()
	p := s.prober
	s.mu.RUnlock()
	if p != nil {
		p.Cancel()
	}
}

// position must be called with mu held and a video loaded.
func (s *Session) position() float64 {
	if s.probing {
		return s.probeOrigin
	}
	return s.video.Position()
}

// Mode returns the current interaction mode.
func (s *Session) Mode() core.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Epoch returns the current generation counter.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// LoadVideo replaces the video. Working points, scale points, calibration and
// the captured frame are reset; the measurement logs and frame rate are kept.
func (s *Session) LoadVideo(v frame.Video) error {
	if v == nil {
		return ErrNoVideo
	}
	s.cancelProbe()

	s.mu.Lock()
	hadCalibration := s.calibration != nil
	s.video = v
	s.dims = v.Dimensions()
	if !s.dims.Valid() {
		s.dims = core.DefaultVideoDimensions
	}
	s.duration = v.Duration()
	if s.display.Width > 0 {
		s.display.Height = geo.DisplayHeightFor(s.display.Width, s.dims)
	}
	s.mode = core.ModeIdle
	s.frameTime = 0
	s.points = nil
	s.scalePoints = nil
	s.calibration = nil
	s.probing = false
	s.epoch++
	dims, duration := s.dims, s.duration
	s.mu.Unlock()

	s.logger.Info("Video loaded", "width", dims.Width, "height", dims.Height, "duration", duration)
	if hadCalibration && s.observer != nil {
		s.observer.CalibrationChanged(nil)
	}
	return nil
}

// Video returns the loaded video, or nil.
func (s *Session) Video() frame.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.video
}

// SetDisplaySize records the rendered size of the frame. A non-positive height
// is derived from the width and the native aspect ratio.
func (s *Session) SetDisplaySize(width, height float64) (core.DisplaySize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height <= 0 {
		height = geo.DisplayHeightFor(width, s.dims)
	}
	size := core.DisplaySize{Width: width, Height: height}
	if !size.Measured() {
		return s.display, fmt.Errorf("display size %vx%v: %w", width, height, geo.ErrDisplayNotMeasured)
	}
	s.display = size
	return size, nil
}

// Capture freezes the current frame for measuring. The capture time is the
// playback position at this moment.
func (s *Session) Capture() (float64, error) {
	s.cancelProbe()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		return 0, ErrNoVideo
	}
	if s.mode != core.ModeIdle {
		return 0, fmt.Errorf("%w: capture from %s", ErrInvalidTransition, s.mode)
	}
	s.frameTime = s.video.Position()
	s.points = nil
	s.scalePoints = nil
	s.mode = core.ModeCapturing
	s.logger.Debug("Frame captured", "time", s.frameTime)
	return s.frameTime, nil
}

// BackToVideo leaves the captured frame and discards unfinished point sets.
func (s *Session) BackToVideo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == core.ModeIdle {
		return fmt.Errorf("%w: return to video from %s", ErrInvalidTransition, s.mode)
	}
	s.mode = core.ModeIdle
	s.frameTime = 0
	s.points = nil
	s.scalePoints = nil
	return nil
}

// ClearPoints discards the working point set.
func (s *Session) ClearPoints() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = nil
}
