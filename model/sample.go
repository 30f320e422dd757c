package model

// SamplePoint is one emitted heatmap point.
type SamplePoint struct {
	Position Vec3
	Color    Color
	Width    float64
}
