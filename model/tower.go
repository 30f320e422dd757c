package model

// TowerRaise is the fixed vertical offset, in metres, added to a tower's
// world translation when it is scanned. Ring elevations are computed relative
// to the ground height recovered by subtracting it again.
const TowerRaise = 5.0

// TowerPosition is the origin of one emitter for a single generation pass.
type TowerPosition struct {
	Name     string
	Path     string
	Position Vec3
}

// GroundHeight reconstructs the ground-relative height of the tower base.
func (t TowerPosition) GroundHeight() float64 {
	return t.Position.Z - TowerRaise
}
