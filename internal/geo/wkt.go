package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// LineString builds a polyline through the given points, in order.
// A distance yields a two-vertex line and an angle a three-vertex line
// whose middle vertex is the angle's vertex.
func LineString(points []core.Point) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("polyline must have at least 2 points, got %d", len(points))
	}
	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.X, p.Y)
	}
	return geom.NewLineString(geom.NewSequence(flatCoords, geom.DimXY))
}

// WKT renders the polyline through points as well-known text.
func WKT(points []core.Point) (string, error) {
	ls, err := LineString(points)
	if err != nil {
		return "", err
	}
	return ls.AsText(), nil
}

// LineStringPoints reads the vertices of a parsed polyline back into points.
func LineStringPoints(wkt string) ([]core.Point, error) {
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WKT: %w", err)
	}
	ls, ok := g.AsLineString()
	if !ok {
		return nil, fmt.Errorf("expected LINESTRING, got %s", g.Type())
	}
	seq := ls.Coordinates()
	points := make([]core.Point, seq.Length())
	for i := range points {
		xy := seq.GetXY(i)
		points[i] = core.Point{X: xy.X, Y: xy.Y}
	}
	return points, nil
}
