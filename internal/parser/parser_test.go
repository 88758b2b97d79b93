package parser

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidcoord/vidcoord/internal/calibration"
	"github.com/vidcoord/vidcoord/internal/geo"
	"github.com/vidcoord/vidcoord/pkg/core"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "32", 32, false},
		{"negative", "-4", -4, false},
		{"float with decimals", "32.00", 32, false},
		{"fractional rejects", "10.5", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "abc", clean(`  "abc" `))
	assert.Equal(t, `say "hi"`, clean(`"say ""hi"""`))
	assert.Equal(t, `"`, clean(`"`))
	assert.Equal(t, "12.5", clean("12.5"))
}

func TestParsePoint(t *testing.T) {
	p := newTestParser()

	pt, err := p.ParsePoint([]string{"12.5", `"40"`})
	require.NoError(t, err)
	assert.Equal(t, core.Point{X: 12.5, Y: 40}, pt)

	pt, err = p.ParsePoint([]string{"3, 4"})
	require.NoError(t, err)
	assert.Equal(t, core.Point{X: 3, Y: 4}, pt)

	_, err = p.ParsePoint([]string{"3;4"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)

	_, err = p.ParsePoint([]string{"NaN", "1"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)

	_, err = p.ParsePoint([]string{"NaN,NaN"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)

	_, err = p.ParsePoint([]string{"1,+Inf"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)

	_, err = p.ParsePoint(nil)
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParseDisplaySize(t *testing.T) {
	p := newTestParser()

	w, h, err := p.ParseDisplaySize([]string{"640"})
	require.NoError(t, err)
	assert.Equal(t, 640.0, w)
	assert.Zero(t, h)

	w, h, err = p.ParseDisplaySize([]string{"640", "480"})
	require.NoError(t, err)
	assert.Equal(t, 640.0, w)
	assert.Equal(t, 480.0, h)

	_, _, err = p.ParseDisplaySize([]string{"wide"})
	assert.Error(t, err)

	for _, args := range [][]string{{"+Inf"}, {"NaN"}, {"640", "Inf"}} {
		_, _, err = p.ParseDisplaySize(args)
		assert.Error(t, err, args)
	}
}

func TestParseDirection(t *testing.T) {
	p := newTestParser()
	tests := map[string]core.Direction{
		"forward": core.Forward,
		"1":       core.Forward,
		"back":    core.Back,
		`"-1"`:    core.Back,
	}
	for in, want := range tests {
		got, err := p.ParseDirection([]string{in})
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := p.ParseDirection([]string{"sideways"})
	assert.Error(t, err)
	_, err = p.ParseDirection(nil)
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParseIndex(t *testing.T) {
	p := newTestParser()

	i, err := p.ParseIndex([]string{"1"})
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = p.ParseIndex([]string{"3.00"})
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, err = p.ParseIndex([]string{"0"})
	assert.Error(t, err)
	_, err = p.ParseIndex([]string{"1.5"})
	assert.Error(t, err)
}

func TestParseScale(t *testing.T) {
	p := newTestParser()

	v, unit, err := p.ParseScale([]string{"50"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, v)
	assert.Equal(t, core.UnitCentimeter, unit)

	v, unit, err = p.ParseScale([]string{"2.5", "m"})
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
	assert.Equal(t, core.UnitMeter, unit)

	_, _, err = p.ParseScale([]string{"2", "ft"})
	assert.ErrorIs(t, err, calibration.ErrInvalidCalibrationInput)

	_, _, err = p.ParseScale([]string{"abc"})
	assert.ErrorIs(t, err, calibration.ErrInvalidCalibrationInput)
}

func TestParseSyntheticVideo(t *testing.T) {
	p := newTestParser()

	sv, err := p.ParseSyntheticVideo([]string{"1920", "1080", "12.5", "25"})
	require.NoError(t, err)
	assert.Equal(t, SyntheticVideo{
		Dimensions: core.VideoDimensions{Width: 1920, Height: 1080},
		Duration:   12.5,
		FrameRate:  25,
	}, sv)

	_, err = p.ParseSyntheticVideo([]string{"0", "1080", "1", "25"})
	assert.Error(t, err)
	_, err = p.ParseSyntheticVideo([]string{"640", "360", "-1", "25"})
	assert.Error(t, err)
	_, err = p.ParseSyntheticVideo([]string{"640", "360", "1", "0"})
	assert.Error(t, err)
	_, err = p.ParseSyntheticVideo([]string{"640", "360", "1"})
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParseLogLine(t *testing.T) {
	p := newTestParser()

	l, err := p.ParseLogLine([]string{"warn", "video stalled"})
	require.NoError(t, err)
	assert.Equal(t, LogLine{Level: slog.LevelWarn, Message: "video stalled"}, l)

	l, err = p.ParseLogLine([]string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l.Level)

	l, err = p.ParseLogLine([]string{"loud", "x"})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l.Level)
}

func TestHasFlag(t *testing.T) {
	assert.True(t, HasFlag([]string{"x", `"WAIT"`}, "wait"))
	assert.False(t, HasFlag(nil, "wait"))
}
