package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidcoord/vidcoord/internal/media/synthetic"
	"github.com/vidcoord/vidcoord/internal/session"
	"github.com/vidcoord/vidcoord/pkg/core"
)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(session.Options{})
	require.NoError(t, s.LoadVideo(synthetic.New(core.VideoDimensions{Width: 100, Height: 100}, 5, 25)))
	_, err := s.SetDisplaySize(100, 100)
	require.NoError(t, err)
	_, err = s.Capture()
	require.NoError(t, err)
	_, err = s.Click(core.Point{X: 0, Y: 0})
	require.NoError(t, err)
	_, err = s.Click(core.Point{X: 3, Y: 4})
	require.NoError(t, err)
	return s
}

func TestGetStatus(t *testing.T) {
	sess := newSession(t)
	svc := NewService(Dependencies{
		Session:      sess,
		ProbeRunning: func() bool { return true },
	})

	st, err := svc.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, sess.ID().String(), st.SessionID)
	assert.Equal(t, "capturing", st.Mode)
	assert.True(t, st.VideoLoaded)
	assert.Equal(t, 1, st.Distances)
	assert.Equal(t, 0, st.Angles)
	assert.False(t, st.Calibrated)
	assert.True(t, st.ProbeRunning)
	assert.Equal(t, 1, st.Fields()["distances"])
}

func TestStart_DisabledWithoutInterval(t *testing.T) {
	svc := NewService(Dependencies{Session: newSession(t)})
	require.NoError(t, svc.Start())
	assert.False(t, svc.IsRunning())
	svc.Stop()
}

func TestStart_ReportsUntilStopped(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), "status.json")

	var mu sync.Mutex
	var reports []Status
	svc := NewService(Dependencies{
		Session:    newSession(t),
		StatusFile: statusPath,
		Interval:   5 * time.Millisecond,
		Sink: func(st Status) {
			mu.Lock()
			reports = append(reports, st)
			mu.Unlock()
		},
	})
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())
	require.NoError(t, svc.Start(), "second start is a no-op")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) >= 2
	}, time.Second, time.Millisecond)
	svc.Stop()
	assert.False(t, svc.IsRunning())

	mu.Lock()
	n := len(reports)
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, n, len(reports), "no reports after Stop")
	mu.Unlock()

	data, err := os.ReadFile(statusPath)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, 1, st.Distances)
}

func TestStart_BadStatusFile(t *testing.T) {
	svc := NewService(Dependencies{
		Session:    newSession(t),
		StatusFile: filepath.Join(t.TempDir(), "missing", "status.json"),
		Interval:   time.Millisecond,
	})
	assert.Error(t, svc.Start())
	assert.False(t, svc.IsRunning())
}
