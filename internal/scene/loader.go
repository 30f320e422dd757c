package scene

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/rf-heatmap/model"
)

// ObjectSink receives scene objects decoded by LoadScene.
type ObjectSink interface {
	AddObject(obj model.SceneObject) error
}

// Summary is a small record of what LoadScene added.
type Summary struct {
	Paths  []string
	Tagged int
}

// internal JSON shapes, kept unexported so the file format can evolve.
type sceneJSON struct {
	Objects []objectJSON `json:"objects"`
}

type objectJSON struct {
	Path        string          `json:"path"`
	Name        string          `json:"name"`
	Translation translationJSON `json:"translation"`
	Visibility  string          `json:"visibility"`
	Xformable   *bool           `json:"xformable"` // optional; defaults to true
	Tags        []string        `json:"tags"`
}

type translationJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LoadScene decodes a JSON scene description from r and adds every object
// to sink. It fails on malformed JSON, on objects without a path and on the
// first error returned by the sink.
func LoadScene(sink ObjectSink, r io.Reader) (*Summary, error) {
	if sink == nil {
		return nil, fmt.Errorf("load scene: sink is nil")
	}

	var payload sceneJSON
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("load scene: decode failed: %w", err)
	}

	sum := &Summary{Paths: make([]string, 0, len(payload.Objects))}
	for i, o := range payload.Objects {
		if o.Path == "" {
			return nil, fmt.Errorf("load scene: object %d has an empty path", i)
		}
		vis, err := parseVisibility(o.Visibility)
		if err != nil {
			return nil, fmt.Errorf("load scene: %s: %w", o.Path, err)
		}
		xformable := true
		if o.Xformable != nil {
			xformable = *o.Xformable
		}
		name := o.Name
		if name == "" {
			name = baseName(o.Path)
		}

		obj := model.SceneObject{
			Path:        o.Path,
			Name:        name,
			Translation: model.Vec3{X: o.Translation.X, Y: o.Translation.Y, Z: o.Translation.Z},
			Visibility:  vis,
			Xformable:   xformable,
			Tags:        o.Tags,
		}
		if err := sink.AddObject(obj); err != nil {
			return nil, fmt.Errorf("load scene: %w", err)
		}
		sum.Paths = append(sum.Paths, o.Path)
		if obj.HasTag(model.TowerTag) {
			sum.Tagged++
		}
	}
	return sum, nil
}

func parseVisibility(s string) (model.Visibility, error) {
	switch model.Visibility(s) {
	case "", model.VisibilityInherited:
		return model.VisibilityInherited, nil
	case model.VisibilityInvisible:
		return model.VisibilityInvisible, nil
	default:
		return "", fmt.Errorf("unknown visibility %q", s)
	}
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
