package core

import "math"

const (
	// MaxStrength is the signal strength at or inside the minimum range.
	MaxStrength = 100.0
	// MinStrength is the signal strength at or beyond the maximum range.
	MinStrength = 0.0
)

// Strength maps a distance from a tower onto a [0,100] signal strength by
// linear interpolation between minRange (100) and maxRange (0).
//
// When the range is degenerate (maxRange <= minRange) there is no gradient:
// distances at or inside minRange are full strength, everything else is 0.
func Strength(distance, maxRange, minRange float64) float64 {
	if math.IsNaN(distance) {
		return MinStrength
	}
	if maxRange <= minRange {
		if distance <= minRange {
			return MaxStrength
		}
		return MinStrength
	}

	d := clampDistance(distance, minRange, maxRange)
	return clampPercent(MaxStrength * (maxRange - d) / (maxRange - minRange))
}

// clampDistance limits d to [minRange, maxRange]. The lower bound wins when
// the range is inverted.
func clampDistance(d, minRange, maxRange float64) float64 {
	return math.Max(minRange, math.Min(maxRange, d))
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return MinStrength
	}
	return math.Max(MinStrength, math.Min(MaxStrength, v))
}
