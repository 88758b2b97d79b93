package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidcoord/vidcoord/internal/dispatcher"
	"github.com/vidcoord/vidcoord/internal/export"
	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/internal/logging"
	"github.com/vidcoord/vidcoord/internal/media/synthetic"
	"github.com/vidcoord/vidcoord/internal/parser"
	"github.com/vidcoord/vidcoord/internal/session"
	"github.com/vidcoord/vidcoord/internal/worker"
)

// ErrNoOpener is returned by :VIDEO:LOAD: when the host cannot open media sources
var ErrNoOpener = errors.New("no video opener configured")

// Opener opens a media source for playback and frame grabbing.
type Opener interface {
	Open(ctx context.Context, source string) (frame.Video, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session    *session.Session
	Worker     *worker.Manager
	Exporter   *export.Exporter
	Opener     Opener
	LogManager *logging.SlogManager
	Tags       *logging.Tags
	Parser     *parser.Parser
	Logger     *slog.Logger

	// ProbeOnLoad starts a frame rate probe after every successful load.
	ProbeOnLoad bool
	// OpenTimeout bounds how long opening a source may take.
	OpenTimeout time.Duration
	Version     string
}

// Service provides the lifecycle and export commands: loading videos,
// reporting state and producing export buffers.
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	if deps.Exporter == nil {
		deps.Exporter = export.New(export.Options{Logger: deps.Logger})
	}
	if deps.OpenTimeout <= 0 {
		deps.OpenTimeout = 30 * time.Second
	}
	return &Service{deps: deps}
}

// RegisterHandlers registers the lifecycle commands with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", s.handleVersion)
	d.Register(":STATUS:", s.handleStatus)
	d.Register(":COMMANDS:", func(dispatcher.Event) (any, error) {
		return d.Commands(), nil
	})

	d.Register(":VIDEO:LOAD:", s.handleVideoLoad, dispatcher.Logged())
	d.Register(":VIDEO:SYNTHETIC:", s.handleVideoSynthetic, dispatcher.Logged())
	d.Register(":DISPLAY:SIZE:", s.handleDisplaySize)

	d.Register(":EXPORT:CSV:", s.exportHandler(export.FormatCSV), dispatcher.Logged())
	d.Register(":EXPORT:JSON:", s.exportHandler(export.FormatJSON), dispatcher.Logged())

	// host log lines never hold up the page
	d.Register(":LOG:", s.handleLog, dispatcher.Buffered(1000))
}

func (s *Service) handleVersion(e dispatcher.Event) (any, error) {
	return s.deps.Version, nil
}

func (s *Service) handleStatus(e dispatcher.Event) (any, error) {
	return s.deps.Session.State(), nil
}

func (s *Service) handleVideoLoad(e dispatcher.Event) (any, error) {
	if s.deps.Opener == nil {
		return nil, ErrNoOpener
	}
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("source: %w", parser.ErrMissingArgument)
	}
	source := e.Args[0]

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.OpenTimeout)
	defer cancel()
	v, err := s.deps.Opener.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", source, err)
	}
	return s.load(v, source)
}

func (s *Service) handleVideoSynthetic(e dispatcher.Event) (any, error) {
	sv, err := s.deps.Parser.ParseSyntheticVideo(e.Args)
	if err != nil {
		return nil, err
	}
	v := synthetic.New(sv.Dimensions, sv.Duration, sv.FrameRate)
	return s.load(v, fmt.Sprintf("synthetic:%dx%d@%g", sv.Dimensions.Width, sv.Dimensions.Height, sv.FrameRate))
}

// load installs v in the session and, if configured, starts probing its rate.
func (s *Service) load(v frame.Video, source string) (session.State, error) {
	if err := s.deps.Session.LoadVideo(v); err != nil {
		return session.State{}, err
	}
	if s.deps.Tags != nil {
		s.deps.Tags.Set("video", source)
	}
	if s.deps.ProbeOnLoad && s.deps.Worker != nil {
		if err := s.deps.Worker.StartFrameRateProbe(); err != nil {
			s.deps.Logger.Warn("Frame rate probe not started", "error", err)
		}
	}
	return s.deps.Session.State(), nil
}

func (s *Service) handleDisplaySize(e dispatcher.Event) (any, error) {
	w, h, err := s.deps.Parser.ParseDisplaySize(e.Args)
	if err != nil {
		return nil, err
	}
	return s.deps.Session.SetDisplaySize(w, h)
}

func (s *Service) exportHandler(format export.Format) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		snap, err := s.deps.Session.Snapshot()
		if err != nil {
			return nil, err
		}
		return s.deps.Exporter.Export(snap, format)
	}
}

func (s *Service) handleLog(e dispatcher.Event) (any, error) {
	line, err := s.deps.Parser.ParseLogLine(e.Args)
	if err != nil {
		return nil, err
	}
	if s.deps.LogManager == nil {
		s.deps.Logger.Log(context.Background(), line.Level, line.Message, "source", "host")
		return nil, nil
	}
	s.deps.LogManager.Forward(line.Level, line.Message)
	return nil, nil
}
