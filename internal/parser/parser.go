package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/vidcoord/vidcoord/internal/calibration"
	"github.com/vidcoord/vidcoord/internal/geo"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// ErrMissingArgument is returned when a command carries fewer args than it needs
var ErrMissingArgument = errors.New("missing argument")

// parseIntFromFloat parses a string that may be an integer ("3") or a float
// ("3.00") into int64. JavaScript hosts stringify every number as a float.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid integer", s)
	}
	return int64(f), nil
}

// clean strips surrounding whitespace and one level of double quotes.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

// SyntheticVideo describes a generated test clip.
type SyntheticVideo struct {
	Dimensions core.VideoDimensions
	Duration   float64
	FrameRate  float64
}

// LogLine is a message forwarded from the host page.
type LogLine struct {
	Level   slog.Level
	Message string
}

// Parser converts host command args into typed values.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

func (p *Parser) arg(args []string, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: %s (have %d args)", ErrMissingArgument, name, len(args))
	}
	return clean(args[i]), nil
}

func (p *Parser) float(args []string, i int, name string) (float64, error) {
	s, err := p.arg(args, i, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, s, err)
	}
	return v, nil
}

// ParseFloat parses a single numeric argument.
func (p *Parser) ParseFloat(args []string, name string) (float64, error) {
	return p.float(args, 0, name)
}

// ParsePoint parses a display location from either two args ("x", "y") or
// one "x,y" arg.
func (p *Parser) ParsePoint(args []string) (core.Point, error) {
	if len(args) == 1 {
		pt, err := geo.PointFromString(clean(args[0]))
		if err != nil {
			return core.Point{}, err
		}
		return pt, nil
	}
	x, err := p.float(args, 0, "x")
	if err != nil {
		return core.Point{}, err
	}
	y, err := p.float(args, 1, "y")
	if err != nil {
		return core.Point{}, err
	}
	pt := core.Point{X: x, Y: y}
	if !geo.Finite(pt) {
		return core.Point{}, fmt.Errorf("%w: %v,%v", geo.ErrInvalidCoordinates, x, y)
	}
	return pt, nil
}

// ParseDisplaySize parses a rendered width and an optional height. A missing
// height is returned as zero so the caller derives it from the aspect ratio.
func (p *Parser) ParseDisplaySize(args []string) (width, height float64, err error) {
	width, err = p.float(args, 0, "width")
	if err != nil {
		return 0, 0, err
	}
	if math.IsNaN(width) || math.IsInf(width, 0) {
		return 0, 0, fmt.Errorf("invalid width %v", width)
	}
	if len(args) < 2 || clean(args[1]) == "" {
		return width, 0, nil
	}
	height, err = p.float(args, 1, "height")
	if err != nil {
		return 0, 0, err
	}
	if math.IsNaN(height) || math.IsInf(height, 0) {
		return 0, 0, fmt.Errorf("invalid height %v", height)
	}
	return width, height, nil
}

// ParseDirection parses a step direction ("forward", "back", "1", "-1").
func (p *Parser) ParseDirection(args []string) (core.Direction, error) {
	s, err := p.arg(args, 0, "direction")
	if err != nil {
		return 0, err
	}
	return core.ParseDirection(s)
}

// ParseIndex parses a one-based list position as shown to the user and
// returns it zero-based.
func (p *Parser) ParseIndex(args []string) (int, error) {
	s, err := p.arg(args, 0, "index")
	if err != nil {
		return 0, err
	}
	n, err := parseIntFromFloat(s)
	if err != nil {
		return 0, fmt.Errorf("parse index %q: %w", s, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("index %d: must be 1 or greater", n)
	}
	return int(n - 1), nil
}

// ParseScale parses the real distance between the scale points and its unit.
// The unit defaults to centimeters.
func (p *Parser) ParseScale(args []string) (float64, core.Unit, error) {
	realDistance, err := p.float(args, 0, "real distance")
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", calibration.ErrInvalidCalibrationInput, err)
	}
	unit := core.UnitCentimeter
	if len(args) > 1 {
		unit, err = calibration.ParseUnit(clean(args[1]))
		if err != nil {
			return 0, "", err
		}
	}
	return realDistance, unit, nil
}

// ParseSyntheticVideo parses width, height, duration and frame rate.
func (p *Parser) ParseSyntheticVideo(args []string) (SyntheticVideo, error) {
	var sv SyntheticVideo
	w, err := p.arg(args, 0, "width")
	if err != nil {
		return sv, err
	}
	h, err := p.arg(args, 1, "height")
	if err != nil {
		return sv, err
	}
	width, err := parseIntFromFloat(w)
	if err != nil {
		return sv, fmt.Errorf("parse width %q: %w", w, err)
	}
	height, err := parseIntFromFloat(h)
	if err != nil {
		return sv, fmt.Errorf("parse height %q: %w", h, err)
	}
	sv.Dimensions = core.VideoDimensions{Width: int(width), Height: int(height)}
	if !sv.Dimensions.Valid() {
		return sv, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if sv.Duration, err = p.float(args, 2, "duration"); err != nil {
		return sv, err
	}
	if sv.Duration <= 0 || math.IsInf(sv.Duration, 0) || math.IsNaN(sv.Duration) {
		return sv, fmt.Errorf("invalid duration %v", sv.Duration)
	}
	if sv.FrameRate, err = p.float(args, 3, "frame rate"); err != nil {
		return sv, err
	}
	if sv.FrameRate <= 0 || math.IsInf(sv.FrameRate, 0) || math.IsNaN(sv.FrameRate) {
		return sv, fmt.Errorf("invalid frame rate %v", sv.FrameRate)
	}
	p.logger.Debug("Parsed synthetic video",
		"width", sv.Dimensions.Width,
		"height", sv.Dimensions.Height,
		"duration", sv.Duration,
		"fps", sv.FrameRate)
	return sv, nil
}

// ParseLogLine parses a level and message pair. Unknown levels log at info.
func (p *Parser) ParseLogLine(args []string) (LogLine, error) {
	if len(args) == 1 {
		return LogLine{Level: slog.LevelInfo, Message: clean(args[0])}, nil
	}
	lvl, err := p.arg(args, 0, "level")
	if err != nil {
		return LogLine{}, err
	}
	msg, err := p.arg(args, 1, "message")
	if err != nil {
		return LogLine{}, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(lvl))); err != nil {
		level = slog.LevelInfo
	}
	return LogLine{Level: level, Message: msg}, nil
}

// HasFlag reports whether any arg equals flag, ignoring case.
func HasFlag(args []string, flag string) bool {
	for _, a := range args {
		if strings.EqualFold(clean(a), flag) {
			return true
		}
	}
	return false
}
