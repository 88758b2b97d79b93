package handlers

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidcoord/vidcoord/internal/dispatcher"
	"github.com/vidcoord/vidcoord/internal/export"
	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/internal/logging"
	"github.com/vidcoord/vidcoord/internal/media/synthetic"
	"github.com/vidcoord/vidcoord/internal/parser"
	"github.com/vidcoord/vidcoord/internal/session"
	"github.com/vidcoord/vidcoord/internal/worker"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// mockOpener hands out prepared videos by source name
type mockOpener struct {
	videos map[string]frame.Video
	opened []string
}

func (o *mockOpener) Open(ctx context.Context, source string) (frame.Video, error) {
	o.opened = append(o.opened, source)
	v, ok := o.videos[source]
	if !ok {
		return nil, errors.New("no such file")
	}
	return v, nil
}

var _ Opener = (*mockOpener)(nil)

type testService struct {
	sess    *session.Session
	manager *worker.Manager
	tags    *logging.Tags
	d       *dispatcher.Dispatcher
}

func newTestService(t *testing.T, opener Opener, probeOnLoad bool) *testService {
	t.Helper()
	sess := session.New(session.Options{})
	est, err := frame.NewEstimator(frame.ProbeConfig{}, nil)
	require.NoError(t, err)
	m := worker.NewManager(worker.Dependencies{Session: sess, Estimator: est})
	t.Cleanup(m.Close)

	d, err := dispatcher.New(slog.Default())
	require.NoError(t, err)
	t.Cleanup(d.Close)

	tags := logging.NewTags()
	svc := NewService(Dependencies{
		Session: sess,
		Worker:  m,
		Exporter: export.New(export.Options{
			Now: func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) },
		}),
		Opener:      opener,
		Tags:        tags,
		ProbeOnLoad: probeOnLoad,
		Version:     "1.2.3",
	})
	svc.RegisterHandlers(d)
	m.RegisterHandlers(d)
	return &testService{sess: sess, manager: m, tags: tags, d: d}
}

func (ts *testService) call(t *testing.T, command string, args ...string) any {
	t.Helper()
	res, err := ts.d.Dispatch(dispatcher.Event{Command: command, Args: args, Timestamp: time.Now()})
	require.NoError(t, err, command)
	return res
}

func (ts *testService) callErr(command string, args ...string) error {
	_, err := ts.d.Dispatch(dispatcher.Event{Command: command, Args: args})
	return err
}

func TestRegisterHandlers(t *testing.T) {
	ts := newTestService(t, nil, false)
	for _, cmd := range []string{
		":VERSION:", ":STATUS:", ":COMMANDS:", ":VIDEO:LOAD:", ":VIDEO:SYNTHETIC:",
		":DISPLAY:SIZE:", ":EXPORT:CSV:", ":EXPORT:JSON:", ":LOG:",
	} {
		assert.True(t, ts.d.HasHandler(cmd), cmd)
	}
	cmds := ts.call(t, ":COMMANDS:").([]string)
	assert.Contains(t, cmds, ":CLICK:")
	assert.Contains(t, cmds, ":EXPORT:JSON:")
}

func TestVersionAndStatus(t *testing.T) {
	ts := newTestService(t, nil, false)
	assert.Equal(t, "1.2.3", ts.call(t, ":VERSION:"))

	st := ts.call(t, ":STATUS:").(session.State)
	assert.False(t, st.VideoLoaded)
	assert.Equal(t, ts.sess.ID(), st.SessionID)
}

func TestVideoLoad(t *testing.T) {
	opener := &mockOpener{videos: map[string]frame.Video{
		"clip.mp4": synthetic.New(core.VideoDimensions{Width: 1280, Height: 720}, 4, 30),
	}}
	ts := newTestService(t, opener, false)

	st := ts.call(t, ":VIDEO:LOAD:", "clip.mp4").(session.State)
	assert.True(t, st.VideoLoaded)
	assert.Equal(t, core.VideoDimensions{Width: 1280, Height: 720}, st.Dimensions)
	assert.Equal(t, []string{"clip.mp4"}, opener.opened)

	attrs := ts.tags.Provider()()
	require.Len(t, attrs, 1)
	assert.Equal(t, "video=clip.mp4", attrs[0].String())

	assert.Error(t, ts.callErr(":VIDEO:LOAD:", "missing.mp4"))
	assert.ErrorIs(t, ts.callErr(":VIDEO:LOAD:"), parser.ErrMissingArgument)
}

func TestVideoLoad_NoOpener(t *testing.T) {
	ts := newTestService(t, nil, false)
	assert.ErrorIs(t, ts.callErr(":VIDEO:LOAD:", "clip.mp4"), ErrNoOpener)
}

func TestVideoSynthetic_ProbesOnLoad(t *testing.T) {
	ts := newTestService(t, nil, true)

	st := ts.call(t, ":VIDEO:SYNTHETIC:", "320", "180", "10", "60").(session.State)
	assert.True(t, st.VideoLoaded)
	ts.manager.WaitForProbe()

	fps, estimated := ts.sess.FrameRate()
	assert.Equal(t, 60.0, fps)
	assert.True(t, estimated)
	assert.Equal(t, 0.0, ts.sess.Video().Position())
}

func TestVideoSynthetic_InvalidArgs(t *testing.T) {
	ts := newTestService(t, nil, false)
	assert.Error(t, ts.callErr(":VIDEO:SYNTHETIC:", "320", "180", "10", "0"))
	assert.False(t, ts.sess.State().VideoLoaded)
}

func TestDisplaySize(t *testing.T) {
	ts := newTestService(t, nil, false)
	ts.call(t, ":VIDEO:SYNTHETIC:", "1920", "1080", "10", "30")

	size := ts.call(t, ":DISPLAY:SIZE:", "960").(core.DisplaySize)
	assert.Equal(t, core.DisplaySize{Width: 960, Height: 540}, size)
	assert.Error(t, ts.callErr(":DISPLAY:SIZE:", "0", "0"))
}

func TestExport(t *testing.T) {
	ts := newTestService(t, nil, false)
	ts.call(t, ":VIDEO:SYNTHETIC:", "1920", "1080", "10", "30")
	ts.call(t, ":DISPLAY:SIZE:", "1920", "1080")
	ts.call(t, ":CAPTURE:")
	ts.call(t, ":CLICK:", "0", "0")
	ts.call(t, ":CLICK:", "30", "40")

	csv := ts.call(t, ":EXPORT:CSV:").(export.Result)
	assert.Equal(t, "measurements_20240309T140506Z.csv", csv.FileName)
	assert.Equal(t, "MeasurementType,Value,Unit,RealValue,RealUnit,CaptureTime\n"+
		"Distance,50.00,px,,,0.000\n", string(csv.Data))

	js := ts.call(t, ":EXPORT:JSON:").(export.Result)
	assert.Equal(t, "application/json", js.ContentType)
	assert.Contains(t, string(js.Data), `"exportDate": "2024-03-09T14:05:06Z"`)
	assert.Contains(t, string(js.Data), `"value": 50`)
}

func TestLog_Buffered(t *testing.T) {
	ts := newTestService(t, nil, false)
	assert.Equal(t, "queued", ts.call(t, ":LOG:", "warn", "video stalled"))
}
