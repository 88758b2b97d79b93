package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// useConsole points the console writer at a buffer for one test.
func useConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := console
	console = &buf
	t.Cleanup(func() { console = orig })
	return &buf
}

func TestSetup_FileOnly_NoConsole(t *testing.T) {
	out := useConsole(t)

	var fileBuf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &fileBuf, Level: "info"})
	m.Logger().Info("hello file")

	assert.Contains(t, fileBuf.String(), "hello file")
	assert.Empty(t, out.String(), "nothing should reach the console when a file is set")
}

func TestSetup_NoFile_WritesToConsole(t *testing.T) {
	out := useConsole(t)

	m := NewSlogManager()
	m.Setup(Options{Level: "info"})
	m.Logger().Info("hello console")

	assert.Contains(t, out.String(), "hello console")
}

func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "debug"})

	m.Logger().Debug("debug msg")
	m.Logger().Info("info msg")

	output := buf.String()
	assert.Contains(t, output, "debug msg")
	assert.Contains(t, output, "info msg")
}

func TestSetup_InfoLevel_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "info"})

	m.Logger().Debug("should be filtered")
	m.Logger().Info("should appear")

	assert.NotContains(t, buf.String(), "should be filtered")
	assert.Contains(t, buf.String(), "should appear")
}

func TestSetup_ReplacesLogger(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	m := NewSlogManager()

	m.Setup(Options{File: &buf1})
	m.Logger().Info("first")

	m.Setup(Options{File: &buf2})
	m.Logger().Info("second")

	assert.Contains(t, buf1.String(), "first")
	assert.NotContains(t, buf1.String(), "second", "old file should not receive new logs")
	assert.Contains(t, buf2.String(), "second")
}

func TestSetup_TimestampsAreUTC(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf})

	line := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Regexp(t, `^time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z `, line)
}

func TestSetup_ContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	tags := NewTags()
	tags.Set("session", "abc")

	m := NewSlogManager()
	m.Setup(Options{File: &buf, Context: tags.Provider()})
	tags.Set("video", "clip.mp4")
	m.Logger().Info("tagged")

	assert.Contains(t, buf.String(), `msg=tagged session=abc video=clip.mp4`)
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
}

func TestFlush_NilProvider(t *testing.T) {
	m := NewSlogManager()
	assert.NoError(t, m.Flush(context.Background()))
}

func TestFlush_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	m := NewSlogManager()

	var buf bytes.Buffer
	m.Setup(Options{File: &buf, Provider: provider})
	m.Logger().Info("otel integrated")

	assert.Contains(t, buf.String(), "otel integrated")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestForward(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "debug"})

	m.Forward(slog.LevelWarn, "video stalled")
	assert.Contains(t, buf.String(), `level=WARN msg="video stalled" source=host`)

	// forwarding before Setup is dropped
	NewSlogManager().Forward(slog.LevelError, "lost")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(slog.NewTextHandler(&a, nil), slog.NewTextHandler(&b, nil))
	slog.New(multi).Info("both")

	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), "both")
}

func TestMultiHandler_FiltersNilHandlers(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(nil, slog.NewTextHandler(&buf, nil), nil)
	slog.New(multi).Info("kept")

	assert.Len(t, multi.handlers, 1)
	assert.Contains(t, buf.String(), "kept")
}

func TestMultiHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	warnOnly := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	multi := NewMultiHandler(warnOnly)

	assert.False(t, multi.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, multi.Enabled(context.Background(), slog.LevelError))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(slog.NewTextHandler(&buf, nil))

	slog.New(multi.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("g")).Info("m", "x", 1)
	assert.Contains(t, buf.String(), "k=v g.x=1")

	assert.Equal(t, multi, multi.WithGroup(""), "empty group name should return same handler")
}

// errorHandler is a slog.Handler that always returns an error from Handle.
type errorHandler struct {
	slog.Handler
}

func (h *errorHandler) Handle(_ context.Context, _ slog.Record) error {
	return errors.New("handler error")
}

func (h *errorHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func TestMultiHandler_HandleError(t *testing.T) {
	var buf bytes.Buffer
	spy := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	// First handler errors, second (spy) should still receive the record.
	multi := NewMultiHandler(&errorHandler{}, spy)
	r := slog.NewRecord(timeZero, slog.LevelInfo, "should reach spy", 0)
	err := multi.Handle(context.Background(), r)

	assert.EqualError(t, err, "handler error")
	assert.Contains(t, buf.String(), "should reach spy")
}
