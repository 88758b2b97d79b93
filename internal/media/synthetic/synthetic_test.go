package synthetic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/pkg/core"
)

var _ frame.Video = (*Video)(nil)

func TestSeekClampsToDuration(t *testing.T) {
	v := New(core.VideoDimensions{Width: 8, Height: 8}, 2, 25)

	require.NoError(t, v.Seek(context.Background(), 5))
	assert.Equal(t, 2.0, v.Position())

	require.NoError(t, v.Seek(context.Background(), -1))
	assert.Equal(t, 0.0, v.Position())
	assert.Equal(t, 2, v.Seeks())
}

func TestFrameChangesAtBoundaries(t *testing.T) {
	ctx := context.Background()
	v := New(core.VideoDimensions{Width: 8, Height: 8}, 2, 25)

	sig := func(at float64) []byte {
		require.NoError(t, v.Seek(ctx, at))
		img, err := v.Frame(ctx)
		require.NoError(t, err)
		return frame.Signature(img, 1)
	}

	assert.Equal(t, sig(0), sig(0.039))
	assert.NotEqual(t, sig(0.039), sig(0.04))
	assert.Equal(t, int64(1), v.FrameAt(0.04))
}

func TestSeekDelayHonoursContext(t *testing.T) {
	v := New(core.VideoDimensions{Width: 8, Height: 8}, 2, 25, WithSeekDelay(time.Second), WithStartPosition(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := v.Seek(ctx, 0.5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1.0, v.Position())
}
