package model

// Visibility mirrors the scene-graph visibility token of an object.
type Visibility string

const (
	// VisibilityInherited shows the object (it inherits its parent's state).
	VisibilityInherited Visibility = "inherited"
	// VisibilityInvisible hides the object explicitly.
	VisibilityInvisible Visibility = "invisible"
)

// TowerTag marks scene objects that act as RF emitters.
const TowerTag = "rf-tower"

// SceneObject is the scanner's view of one scene-graph prim.
type SceneObject struct {
	Path string
	Name string

	// Translation is the world-space translation of the object's
	// local-to-world transform.
	Translation Vec3
	Visibility  Visibility

	// Xformable is false for prims that carry no transform (scopes,
	// materials); the scanner never considers them.
	Xformable bool

	Tags []string
}

// HasTag reports whether tag is attached to the object.
func (o SceneObject) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PointCloud is the displayed point set written by a generation pass.
// Points, Colors and Widths always have equal length.
type PointCloud struct {
	Path       string
	Visibility Visibility
	Points     []Vec3
	Colors     []Vec3
	Widths     []float64
}
