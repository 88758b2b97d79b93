package geo

import (
	"math"

	"github.com/vidcoord/vidcoord/pkg/core"
	"gonum.org/v1/gonum/spatial/r2"
)

func vec(p core.Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Distance returns the Euclidean distance between two points in pixels.
func Distance(p1, p2 core.Point) float64 {
	return r2.Norm(r2.Sub(vec(p1), vec(p2)))
}

// Angle returns the angle at vertex p2 between the rays p2->p1 and p2->p3,
// in degrees rounded to two decimals. The result lies in [0, 180].
func Angle(p1, p2, p3 core.Point) (float64, error) {
	a := r2.Sub(vec(p1), vec(p2))
	b := r2.Sub(vec(p3), vec(p2))
	lenA, lenB := r2.Norm(a), r2.Norm(b)
	if lenA == 0 || lenB == 0 {
		return 0, ErrDegenerateGeometry
	}
	// rounding can push collinear ratios just past ±1
	cos := math.Max(-1, math.Min(1, r2.Dot(a, b)/(lenA*lenB)))
	return Round2(math.Acos(cos) * 180 / math.Pi), nil
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
