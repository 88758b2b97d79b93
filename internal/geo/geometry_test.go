package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidcoord/vidcoord/pkg/core"
)

func TestDistance(t *testing.T) {
	a := core.Point{X: 0, Y: 0}
	b := core.Point{X: 3, Y: 4}

	assert.Equal(t, 5.0, Distance(a, b))
	assert.Equal(t, Distance(a, b), Distance(b, a))
	assert.Equal(t, 0.0, Distance(b, b))
}

func TestDistance_Symmetric(t *testing.T) {
	points := []core.Point{{X: 12.5, Y: -3}, {X: 1920, Y: 1080}, {X: 0.1, Y: 0.2}, {X: -7, Y: 44}}
	for _, a := range points {
		for _, b := range points {
			assert.Equal(t, Distance(a, b), Distance(b, a))
			assert.GreaterOrEqual(t, Distance(a, b), 0.0)
		}
	}
}

func TestAngle(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 core.Point
		expected   float64
	}{
		{"right angle", core.Point{X: 1, Y: 0}, core.Point{X: 0, Y: 0}, core.Point{X: 0, Y: 1}, 90.00},
		{"opposite sides", core.Point{X: -5, Y: 0}, core.Point{X: 0, Y: 0}, core.Point{X: 7, Y: 0}, 180.00},
		{"same side", core.Point{X: 2, Y: 2}, core.Point{X: 0, Y: 0}, core.Point{X: 5, Y: 5}, 0.00},
		{"45 degrees", core.Point{X: 10, Y: 0}, core.Point{X: 0, Y: 0}, core.Point{X: 10, Y: 10}, 45.00},
		{"rounded", core.Point{X: 3, Y: 0}, core.Point{X: 0, Y: 0}, core.Point{X: 1, Y: 2}, 63.43},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Angle(tt.p1, tt.p2, tt.p3)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			reversed, err := Angle(tt.p3, tt.p2, tt.p1)
			require.NoError(t, err)
			assert.Equal(t, got, reversed)
		})
	}
}

func TestAngle_NeverNaNForCollinear(t *testing.T) {
	got, err := Angle(core.Point{X: 0.1, Y: 0.1}, core.Point{X: 0.3, Y: 0.3}, core.Point{X: 0.7, Y: 0.7})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got))
	assert.Equal(t, 180.0, got)
}

func TestAngle_Degenerate(t *testing.T) {
	v := core.Point{X: 4, Y: 4}

	_, err := Angle(v, v, core.Point{X: 1, Y: 1})
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	_, err = Angle(core.Point{X: 1, Y: 1}, v, v)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 63.43, Round2(63.4349488))
	assert.Equal(t, 0.0, Round2(0.004))
	assert.Equal(t, -1.24, Round2(-1.2449))
}
