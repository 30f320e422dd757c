package model

import "math"

// ParameterRange is the inclusive slider range of one heatmap parameter.
type ParameterRange struct {
	Min, Max float64
}

// Clamp limits v to the range.
func (r ParameterRange) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Contains reports whether v lies inside the range.
func (r ParameterRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Slider ranges enforced by the control surface.
var (
	MaxRangeLimits       = ParameterRange{Min: 50, Max: 2000}
	MinRangeLimits       = ParameterRange{Min: 1, Max: 50}
	PointsPerTowerLimits = ParameterRange{Min: 100, Max: 4000}
	PointSizeLimits      = ParameterRange{Min: 1, Max: 10}
)

// HeatmapParameters configures one generation pass. It is copied by value
// into the generator; the control surface owns the live record.
type HeatmapParameters struct {
	MaxRange       float64 `json:"max_range"`
	MinRange       float64 `json:"min_range"`
	PointsPerTower int     `json:"points_per_tower"`
	PointSize      float64 `json:"point_size"`
}

// DefaultParameters returns the values the panel starts with.
func DefaultParameters() HeatmapParameters {
	return HeatmapParameters{
		MaxRange:       150,
		MinRange:       5,
		PointsPerTower: 400,
		PointSize:      4,
	}
}

// Degenerate reports whether the range collapses to a flat gradient.
func (p HeatmapParameters) Degenerate() bool {
	return p.MaxRange <= p.MinRange
}
