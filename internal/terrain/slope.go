package terrain

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ElevationProvider answers ground height queries in metres
type ElevationProvider interface {
	HeightAt(p orb.Point) (float64, error)
}

// ElevationFunc adapts a function to ElevationProvider
type ElevationFunc func(p orb.Point) (float64, error)

func (f ElevationFunc) HeightAt(p orb.Point) (float64, error) {
	return f(p)
}

// Flat is a terrain at height zero everywhere
var Flat ElevationProvider = ElevationFunc(func(orb.Point) (float64, error) { return 0, nil })

// FirstSegment returns the first two vertices of a linear geometry
func FirstSegment(g orb.Geometry) (orb.Point, orb.Point, bool) {
	var line orb.LineString
	switch v := g.(type) {
	case orb.LineString:
		line = v
	case orb.MultiLineString:
		if len(v) > 0 {
			line = v[0]
		}
	}
	if len(line) < 2 {
		return orb.Point{}, orb.Point{}, false
	}
	return line[0], line[1], true
}

// Slope returns the gradient in percent of the first segment of g, positive
// when the segment climbs. Geometries without a segment, failed height
// queries, zero-length segments and non-finite results yield 0.
func Slope(g orb.Geometry, elevation ElevationProvider) float64 {
	if g == nil || elevation == nil {
		return 0
	}
	a, b, ok := FirstSegment(g)
	if !ok {
		return 0
	}
	run := planar.Distance(a, b)
	if run == 0 {
		return 0
	}
	z0, err := elevation.HeightAt(a)
	if err != nil {
		return 0
	}
	z1, err := elevation.HeightAt(b)
	if err != nil {
		return 0
	}
	s := (z1 - z0) / run * 100
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}
