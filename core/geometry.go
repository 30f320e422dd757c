package core

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// fullTurn is one revolution around a tower.
const fullTurn = 2 * math.Pi * s1.Radian

// PlanarDistance returns the distance between a and b projected onto the
// ground (XY) plane.
func PlanarDistance(a, b r3.Vector) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// PolarOffset returns the ground-plane point at distance d from origin along
// the given heading (counter-clockwise from +X). Z is taken from origin.
func PolarOffset(origin r3.Vector, d float64, heading s1.Angle) r3.Vector {
	rad := heading.Radians()
	return r3.Vector{
		X: origin.X + d*math.Cos(rad),
		Y: origin.Y + d*math.Sin(rad),
		Z: origin.Z,
	}
}

// finite reports whether every component of v is a real number.
func finite(v r3.Vector) bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
