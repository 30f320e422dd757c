package model

import "github.com/golang/geo/r3"

// Vec3 is a world-space point in scene units (metres).
type Vec3 = r3.Vector

// Color is an RGB triple with each channel in [0,1].
type Color struct {
	R, G, B float64
}

// Named gradient anchors.
var (
	Red    = Color{R: 1}
	Yellow = Color{R: 1, G: 1}
	Green  = Color{G: 1}
)

// AsVec3 returns the color as a vector, the form scene stores expect for
// per-point display colors.
func (c Color) AsVec3() Vec3 {
	return Vec3{X: c.R, Y: c.G, Z: c.B}
}
