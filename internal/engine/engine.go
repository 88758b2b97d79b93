// Package engine assembles a measurement engine from configuration: logging,
// telemetry, the measurement log, the session and every host command.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vidcoord/vidcoord/internal/config"
	"github.com/vidcoord/vidcoord/internal/dispatcher"
	"github.com/vidcoord/vidcoord/internal/export"
	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/internal/handlers"
	"github.com/vidcoord/vidcoord/internal/influx"
	"github.com/vidcoord/vidcoord/internal/logging"
	"github.com/vidcoord/vidcoord/internal/media/ffmpeg"
	"github.com/vidcoord/vidcoord/internal/monitor"
	intOtel "github.com/vidcoord/vidcoord/internal/otel"
	"github.com/vidcoord/vidcoord/internal/session"
	"github.com/vidcoord/vidcoord/internal/storage"
	"github.com/vidcoord/vidcoord/internal/worker"
	"github.com/vidcoord/vidcoord/pkg/hostbridge"

	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// AppName prefixes log and backup file names.
const AppName = "vidcoord"

// Options configures New.
type Options struct {
	// ConfigDir holds vidcoord.cfg.json. Defaults apply when it is missing.
	ConfigDir string
	Version   string
	// Opener loads media for :VIDEO:LOAD:. Defaults to ffmpeg.
	Opener handlers.Opener
	// LogWriter receives all logs. When nil, a file in logsDir is used, or
	// stderr if that cannot be created.
	LogWriter io.Writer
}

// Engine is a running measurement engine.
type Engine struct {
	start   time.Time
	logs    *logging.SlogManager
	logger  *slog.Logger
	logFile *os.File
	tags    *logging.Tags

	otel    *intOtel.Provider
	store   storage.Backend
	influx  *influx.Manager
	monitor *monitor.Service
	session *session.Session
	worker  *worker.Manager
	d       *dispatcher.Dispatcher
	bridge  *hostbridge.Bridge
}

// New builds an engine. On error everything opened so far is released.
func New(opts Options) (*Engine, error) {
	e := &Engine{
		start: time.Now(),
		logs:  logging.NewSlogManager(),
		tags:  logging.NewTags(),
	}
	if err := e.init(opts); err != nil {
		e.Close(context.Background())
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(opts Options) error {
	cfgErr := config.Load(opts.ConfigDir)

	logWriter := opts.LogWriter
	if logWriter == nil {
		logWriter = e.openLogFile(config.GetString("logsDir"))
	}
	if logWriter == nil {
		logWriter = os.Stderr
	}
	logLevel := config.GetString("logLevel")

	var err error
	otelCfg := config.GetOTelConfig()
	e.otel, err = intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: opts.Version,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      logWriter,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}

	var logProvider *sdklog.LoggerProvider
	if e.otel.Enabled() {
		logProvider = e.otel.LoggerProvider()
	}
	e.logs.Setup(logging.Options{
		File:     logWriter,
		Level:    logLevel,
		Provider: logProvider,
		Context:  e.tags.Provider(),
	})
	e.logger = e.logs.Logger()
	if cfgErr != nil {
		e.logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	}

	sessionID := uuid.New()
	e.tags.Set("session", sessionID.String())

	storageCfg := config.GetStorageConfig()
	e.store, err = openStore(storageCfg, sessionID, e.logger)
	if err != nil {
		return err
	}
	if err := e.store.Init(); err != nil {
		return fmt.Errorf("init %s storage: %w", storageCfg.Type, err)
	}
	e.logger.Info("Storage initialized", "type", storageCfg.Type)

	var observer *influx.Observer
	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		zl := zerolog.New(logWriter).With().Timestamp().Str("component", "influx").Logger()
		logsDir := config.GetString("logsDir")
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			e.logger.Warn("Cannot create logs directory", "path", logsDir, "error", err)
		}
		backup := filepath.Join(logsDir, fmt.Sprintf("%s.%s.lp.gz", AppName, e.start.Format("20060102_150405")))
		e.influx = influx.NewManager(influxCfg, zl, backup)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		connErr := e.influx.Connect(ctx)
		cancel()
		if connErr != nil {
			e.logger.Warn("Measurement telemetry unavailable", "error", connErr)
		} else {
			observer = influx.NewObserver(e.influx, sessionID.String(), zl)
		}
	}

	probeCfg := config.GetProbeConfig()
	sessOpts := session.Options{
		ID:        sessionID,
		Store:     e.store,
		Logger:    e.logger,
		FrameRate: probeCfg.Default,
	}
	if observer != nil {
		sessOpts.Observer = observer
	}
	e.session = session.New(sessOpts)

	estimator, err := frame.NewEstimator(frame.ProbeConfig{
		Window:        probeCfg.Window,
		Samples:       probeCfg.Samples,
		SampleTimeout: probeCfg.SampleTimeout,
		PixelStride:   probeCfg.PixelStride,
		SnapTolerance: probeCfg.SnapTolerance,
		Method:        frame.Method(probeCfg.Method),
	}, e.logger)
	if err != nil {
		return fmt.Errorf("init frame rate estimator: %w", err)
	}

	e.worker = worker.NewManager(worker.Dependencies{
		Session:     e.session,
		Estimator:   estimator,
		Logger:      e.logger,
		SeekTimeout: estimator.Config().SampleTimeout,
	})

	e.d, err = dispatcher.New(logging.NewCommandLogger(logWriter, logLevel))
	if err != nil {
		return fmt.Errorf("init dispatcher: %w", err)
	}

	opener := opts.Opener
	if opener == nil {
		media := config.GetMediaConfig()
		opener = ffmpeg.NewOpener(ffmpeg.Config{
			FFmpegPath:  media.FFmpegPath,
			FFprobePath: media.FFprobePath,
		}, e.logger)
	}
	svc := handlers.NewService(handlers.Dependencies{
		Session: e.session,
		Worker:  e.worker,
		Exporter: export.New(export.Options{
			Compress: config.GetExportConfig().Compress,
			Logger:   e.logger,
		}),
		Opener:      opener,
		LogManager:  e.logs,
		Tags:        e.tags,
		Logger:      e.logger,
		ProbeOnLoad: probeCfg.OnLoad,
		Version:     opts.Version,
	})
	svc.RegisterHandlers(e.d)
	e.worker.RegisterHandlers(e.d)

	e.bridge = hostbridge.New(opts.Version, e.d)

	monitorCfg := config.GetMonitorConfig()
	monDeps := monitor.Dependencies{
		Session:      e.session,
		ProbeRunning: e.worker.ProbeRunning,
		Logger:       e.logger,
		StatusFile:   monitorCfg.StatusFile,
		Interval:     monitorCfg.Interval,
	}
	if observer != nil {
		monDeps.Sink = func(st monitor.Status) { observer.Status(st.Mode, st.Fields()) }
	}
	e.monitor = monitor.NewService(monDeps)
	if err := e.monitor.Start(); err != nil {
		e.logger.Warn("Status monitor not started", "error", err)
	}
	e.logger.Info("Engine ready", "session", sessionID, "commands", len(e.d.Commands()))
	return nil
}

// openLogFile creates the session log file, returning nil when it cannot.
func (e *Engine) openLogFile(logsDir string) io.Writer {
	if logsDir == "" {
		return nil
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(logging.LogFilePath(logsDir, AppName, e.start), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil
	}
	e.logFile = f
	return f
}

// Bridge returns the host entry point.
func (e *Engine) Bridge() *hostbridge.Bridge { return e.bridge }

// Session returns the measurement session.
func (e *Engine) Session() *session.Session { return e.session }

// Dispatcher returns the command dispatcher.
func (e *Engine) Dispatcher() *dispatcher.Dispatcher { return e.d }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Close stops background work, drains queued commands and then releases
// storage, telemetry and logs.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.monitor != nil {
		e.monitor.Stop()
	}
	if e.worker != nil {
		e.worker.Close()
	}
	if e.d != nil {
		e.d.Close()
	}
	if e.influx != nil {
		errs = append(errs, e.influx.Close())
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	if e.otel != nil {
		errs = append(errs, e.otel.Shutdown(ctx))
	}
	if e.logFile != nil {
		errs = append(errs, e.logFile.Close())
	}
	return errors.Join(errs...)
}
