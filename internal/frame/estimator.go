package frame

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/metric"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoFrameChange is returned when every probe sample showed the same image
	ErrNoFrameChange = errors.New("no frame change detected")
	// ErrNoFrameRateMatch is returned when the measured rate is not near a standard rate
	ErrNoFrameRateMatch = errors.New("no standard frame rate within tolerance")
	// ErrSampleTimeout is returned when a seek or decode did not complete in time
	ErrSampleTimeout = errors.New("probe sample timed out")
)

// StandardRates are the frame rates an estimate may snap to.
var StandardRates = []float64{23.976, 24, 25, 29.97, 30, 50, 59.94, 59.97, 60, 120}

// Method selects how frame boundaries are turned into a rate.
type Method string

const (
	// MethodBoundaryMean averages the spacing of all observed frame boundaries.
	MethodBoundaryMean Method = "boundary-mean"
	// MethodFirstChange uses the sample spacing at the first observed change.
	// It only yields a frame rate when the samples are a frame period apart.
	MethodFirstChange Method = "first-change"
)

// ParseMethod parses a method name. An empty name selects MethodBoundaryMean.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodBoundaryMean:
		return MethodBoundaryMean, nil
	case MethodFirstChange:
		return MethodFirstChange, nil
	}
	return "", fmt.Errorf("unknown probe method %q", s)
}

// ProbeConfig controls how the estimator samples the video.
type ProbeConfig struct {
	// Window is the span of video time covered by the probe.
	Window time.Duration
	// Samples is the number of evenly spaced positions inside the window.
	Samples int
	// SampleTimeout bounds one seek-and-decode cycle.
	SampleTimeout time.Duration
	// PixelStride selects every n-th channel byte for comparison.
	PixelStride int
	// SnapTolerance is the largest accepted gap to a standard rate.
	SnapTolerance float64
	// Method turns observed boundaries into a raw rate.
	Method Method
}

// DefaultProbeConfig samples half a second at 5ms spacing.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Window:        500 * time.Millisecond,
		Samples:       101,
		SampleTimeout: 2 * time.Second,
		PixelStride:   7,
		SnapTolerance: 1,
		Method:        MethodBoundaryMean,
	}
}

// Estimator measures the frame rate of a video by watching when the decoded
// image changes while seeking through a short window.
type Estimator struct {
	cfg    ProbeConfig
	logger *slog.Logger

	started metric.Int64Counter
	failed  metric.Int64Counter
	samples metric.Int64Counter
}

// NewEstimator creates an Estimator. Zero fields in cfg take their defaults.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewEstimator(cfg ProbeConfig, logger *slog.Logger) (*Estimator, error) {
	def := DefaultProbeConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Samples < 2 {
		cfg.Samples = def.Samples
	}
	if cfg.SampleTimeout <= 0 {
		cfg.SampleTimeout = def.SampleTimeout
	}
	if cfg.PixelStride <= 0 {
		cfg.PixelStride = def.PixelStride
	}
	if cfg.SnapTolerance <= 0 {
		cfg.SnapTolerance = def.SnapTolerance
	}
	if cfg.Method == "" {
		cfg.Method = def.Method
	}
	if _, err := ParseMethod(string(cfg.Method)); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Estimator{cfg: cfg, logger: logger}
	m := meter()

	var err error
	e.started, err = m.Int64Counter(
		"frame.probe.started",
		metric.WithDescription("Frame rate probes started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating started counter: %w", err)
	}
	e.failed, err = m.Int64Counter(
		"frame.probe.failed",
		metric.WithDescription("Frame rate probes that produced no estimate"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	e.samples, err = m.Int64Counter(
		"frame.probe.samples",
		metric.WithDescription("Frames decoded by frame rate probes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating samples counter: %w", err)
	}
	return e, nil
}

// Config returns the effective probe configuration.
func (e *Estimator) Config() ProbeConfig {
	return e.cfg
}

// Estimate probes v and returns a standard frame rate. It seeks one sample at
// a time and restores the position it found on entry before returning.
//
// With MethodBoundaryMean (the default) the raw rate is the reciprocal of the
// mean interval between observed frame boundaries, which differs from taking
// the first differing pair's time delta. MethodFirstChange uses that delta
// alone; both fall back to it when only one boundary is seen.
func (e *Estimator) Estimate(ctx context.Context, v Video) (fps float64, err error) {
	e.started.Add(ctx, 1)
	defer func() {
		if err != nil {
			e.failed.Add(context.WithoutCancel(ctx), 1)
		}
	}()

	origin := v.Position()
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.SampleTimeout)
		defer cancel()
		if rerr := v.Seek(rctx, origin); rerr != nil {
			e.logger.Warn("Failed to restore position after probe", "position", origin, "error", rerr)
		}
	}()

	times := e.sampleTimes(origin, v.Duration())
	var (
		prev       []byte
		boundaries []float64
		firstDelta float64
	)
	for i, t := range times {
		sig, err := e.sample(ctx, v, t)
		if err != nil {
			return 0, err
		}
		e.samples.Add(ctx, 1)
		if prev != nil && !bytes.Equal(prev, sig) {
			if len(boundaries) == 0 {
				firstDelta = t - times[i-1]
			}
			boundaries = append(boundaries, t)
		}
		prev = sig
	}

	var raw float64
	switch {
	case len(boundaries) == 0:
		return 0, ErrNoFrameChange
	case len(boundaries) == 1 || e.cfg.Method == MethodFirstChange:
		raw = 1 / firstDelta
	default:
		intervals := make([]float64, len(boundaries)-1)
		for i := range intervals {
			intervals[i] = boundaries[i+1] - boundaries[i]
		}
		raw = 1 / stat.Mean(intervals, nil)
	}

	fps, ok := Snap(raw, e.cfg.SnapTolerance)
	e.logger.Debug("Frame rate probe finished", "raw", raw, "boundaries", len(boundaries), "snapped", fps, "matched", ok)
	if !ok {
		return 0, fmt.Errorf("%w: measured %.3f", ErrNoFrameRateMatch, raw)
	}
	return fps, nil
}

// sampleTimes spreads the configured samples over the window starting at
// origin, shifted back when the window would run past the end of the video.
func (e *Estimator) sampleTimes(origin, duration float64) []float64 {
	window := e.cfg.Window.Seconds()
	start := origin
	if knownDuration(duration) && start+window > duration {
		start = math.Max(0, duration-window)
	}
	n := e.cfg.Samples
	times := make([]float64, n)
	for i := range times {
		times[i] = start + window*float64(i)/float64(n-1)
	}
	return times
}

func (e *Estimator) sample(ctx context.Context, v Video, t float64) ([]byte, error) {
	sctx, cancel := context.WithTimeout(ctx, e.cfg.SampleTimeout)
	defer cancel()

	if err := v.Seek(sctx, t); err != nil {
		return nil, e.sampleErr(ctx, "seek", t, err)
	}
	img, err := v.Frame(sctx)
	if err != nil {
		return nil, e.sampleErr(ctx, "decode", t, err)
	}
	return Signature(img, e.cfg.PixelStride), nil
}

func (e *Estimator) sampleErr(ctx context.Context, step string, t float64, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s at %.3fs", ErrSampleTimeout, step, t)
	}
	return fmt.Errorf("%s at %.3fs: %w", step, t, err)
}

// Signature returns every stride-th RGBA channel byte of img in row-major
// order. Two frames with equal signatures are treated as the same frame.
func Signature(img image.Image, stride int) []byte {
	if stride <= 0 {
		stride = 1
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	total := w * h * 4
	sig := make([]byte, 0, total/stride+1)

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == w*4 && b.Min == (image.Point{}) {
		for c := 0; c < total; c += stride {
			sig = append(sig, rgba.Pix[c])
		}
		return sig
	}

	for c := 0; c < total; c += stride {
		px := c / 4
		r, g, bl, a := img.At(b.Min.X+px%w, b.Min.Y+px/w).RGBA()
		var v uint32
		switch c % 4 {
		case 0:
			v = r
		case 1:
			v = g
		case 2:
			v = bl
		default:
			v = a
		}
		sig = append(sig, byte(v>>8))
	}
	return sig
}

// Snap returns the standard rate nearest to raw and whether it lies within tolerance.
func Snap(raw, tolerance float64) (float64, bool) {
	if !ValidFrameRate(raw) {
		return 0, false
	}
	best := StandardRates[0]
	for _, r := range StandardRates[1:] {
		if math.Abs(r-raw) < math.Abs(best-raw) {
			best = r
		}
	}
	if math.Abs(best-raw) > tolerance {
		return 0, false
	}
	return best, true
}
