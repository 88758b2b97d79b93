// Package ffmpeg opens local media files through the ffprobe and ffmpeg
// binaries. Frames are grabbed one at a time as PNG over a pipe.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// ErrNoVideoStream is returned when ffprobe finds no video stream in a source
var ErrNoVideoStream = errors.New("no video stream")

// Config names the binaries to run.
type Config struct {
	FFmpegPath  string
	FFprobePath string
}

// Opener probes and opens media files.
type Opener struct {
	cfg    Config
	logger *slog.Logger
}

// NewOpener creates an Opener. Empty paths fall back to the binaries on PATH.
func NewOpener(cfg Config, logger *slog.Logger) *Opener {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{cfg: cfg, logger: logger}
}

// Open probes source and returns a Video positioned at the start.
func (o *Opener) Open(ctx context.Context, source string) (frame.Video, error) {
	cmd := exec.CommandContext(ctx, o.cfg.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate:format=duration",
		"-of", "json",
		source,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	info, err := ParseProbe(output)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Media probed",
		"source", source,
		"width", info.Dimensions.Width,
		"height", info.Dimensions.Height,
		"duration", info.Duration,
		"nominalFps", info.FrameRate)
	return &Video{
		source: source,
		info:   info,
		ffmpeg: o.cfg.FFmpegPath,
	}, nil
}

// ProbeInfo is what ffprobe reports about a source.
type ProbeInfo struct {
	Dimensions core.VideoDimensions
	// Duration is NaN when the container does not state it.
	Duration float64
	// FrameRate is the nominal rate from the stream header, 0 when unknown.
	FrameRate float64
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbe reads ffprobe's JSON output.
func ParseProbe(data []byte) (ProbeInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ProbeInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return ProbeInfo{}, ErrNoVideoStream
	}
	s := out.Streams[0]
	info := ProbeInfo{
		Dimensions: core.VideoDimensions{Width: s.Width, Height: s.Height},
		Duration:   math.NaN(),
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil && d > 0 {
		info.Duration = d
	}
	// avg_frame_rate is 0/0 for some containers
	for _, r := range []string{s.AvgFrameRate, s.RFrameRate} {
		if fps, err := ParseRate(r); err == nil {
			info.FrameRate = fps
			break
		}
	}
	return info, nil
}

// ParseRate parses a rate such as "30000/1001" or "25".
func ParseRate(s string) (float64, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rate %q: %w", s, err)
	}
	d := 1.0
	if found {
		if d, err = strconv.ParseFloat(den, 64); err != nil {
			return 0, fmt.Errorf("parse rate %q: %w", s, err)
		}
	}
	if n <= 0 || d <= 0 {
		return 0, fmt.Errorf("rate %q is not positive", s)
	}
	return n / d, nil
}

// Video is a media file read through ffmpeg. Seeking only moves the
// position; the frame is decoded when asked for.
type Video struct {
	source string
	info   ProbeInfo
	ffmpeg string

	mu  sync.Mutex
	pos float64
}

func (v *Video) Dimensions() core.VideoDimensions { return v.info.Dimensions }

func (v *Video) Duration() float64 { return v.info.Duration }

// NominalFrameRate returns the rate stated in the stream header, 0 when unknown.
func (v *Video) NominalFrameRate() float64 { return v.info.FrameRate }

func (v *Video) Position() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos
}

func (v *Video) Seek(ctx context.Context, t float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t = math.Max(0, t)
	if !math.IsNaN(v.info.Duration) {
		t = math.Min(t, v.info.Duration)
	}
	v.mu.Lock()
	v.pos = t
	v.mu.Unlock()
	return nil
}

func (v *Video) Frame(ctx context.Context) (image.Image, error) {
	cmd := exec.CommandContext(ctx, v.ffmpeg,
		"-v", "error",
		"-ss", strconv.FormatFloat(v.Position(), 'f', 6, 64),
		"-i", v.source,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, stderr.String())
	}
	img, err := png.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}
