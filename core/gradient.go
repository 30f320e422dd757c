package core

import "github.com/signalsfoundry/rf-heatmap/model"

// midStrength is the yellow anchor between the two gradient segments.
const midStrength = 50.0

// ColorFor encodes a signal strength as a red→yellow→green gradient:
// 0 is red (1,0,0), 50 is yellow (1,1,0) and 100 is green (0,1,0).
// Input outside [0,100] is clamped.
func ColorFor(strength float64) model.Color {
	s := clampPercent(strength)
	if s > midStrength {
		t := (s - midStrength) / midStrength
		return model.Color{R: 1 - t, G: 1, B: 0}
	}
	return model.Color{R: 1, G: s / midStrength, B: 0}
}

// InverseStrength recovers the strength that ColorFor encoded into c.
// It is only meaningful for colors ColorFor can produce.
func InverseStrength(c model.Color) float64 {
	if c.G == 1 && c.R < 1 {
		return midStrength + (1-c.R)*midStrength
	}
	return c.G * midStrength
}
