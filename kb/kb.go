package kb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/model"
)

var (
	// ErrObjectExists is returned when adding an object at an occupied path.
	ErrObjectExists = errors.New("scene object already exists")
	// ErrObjectNotFound is returned for unknown object paths.
	ErrObjectNotFound = errors.New("scene object not found")
	// ErrNotPointCloud is returned when a handle does not name a point cloud.
	ErrNotPointCloud = errors.New("not a point cloud")
)

// EventType indicates what kind of change happened in the scene.
type EventType int

const (
	EventObjectAdded EventType = iota
	EventObjectUpdated
	EventObjectRemoved
	EventPointCloudUpdated
)

// Event is emitted to subscribers when something interesting happens.
// Cloud is only set for EventPointCloudUpdated and is a copy.
type Event struct {
	Type   EventType
	Path   string
	Object model.SceneObject
	Cloud  model.PointCloud
}

// KnowledgeBase is an in-memory, thread-safe scene store. It holds the
// scanned scene objects and the point clouds written by generation passes.
type KnowledgeBase struct {
	mu sync.RWMutex

	objects map[string]model.SceneObject
	clouds  map[string]*model.PointCloud

	subs   map[int]func(Event)
	nextID int
}

var _ core.SceneStore = (*KnowledgeBase)(nil)

// NewKnowledgeBase constructs an empty scene.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		objects: make(map[string]model.SceneObject),
		clouds:  make(map[string]*model.PointCloud),
		subs:    make(map[int]func(Event)),
	}
}

// AddObject adds a scene object. It returns ErrObjectExists if the path is
// already taken by an object or a point cloud.
func (kb *KnowledgeBase) AddObject(obj model.SceneObject) error {
	if obj.Path == "" {
		return fmt.Errorf("add object %q: empty path", obj.Name)
	}
	if obj.Visibility == "" {
		obj.Visibility = model.VisibilityInherited
	}

	kb.mu.Lock()
	if _, exists := kb.objects[obj.Path]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectExists, obj.Path)
	}
	if _, exists := kb.clouds[obj.Path]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectExists, obj.Path)
	}
	obj.Tags = append([]string(nil), obj.Tags...)
	kb.objects[obj.Path] = obj
	kb.mu.Unlock()

	kb.notify(Event{Type: EventObjectAdded, Path: obj.Path, Object: obj})
	return nil
}

// GetObject returns the object at path.
func (kb *KnowledgeBase) GetObject(path string) (model.SceneObject, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	obj, ok := kb.objects[path]
	return obj, ok
}

// SetObjectVisibility toggles a scene object, e.g. hiding a tower.
func (kb *KnowledgeBase) SetObjectVisibility(path string, v model.Visibility) error {
	return kb.updateObject(path, func(o *model.SceneObject) { o.Visibility = v })
}

// MoveObject sets the world translation of a scene object.
func (kb *KnowledgeBase) MoveObject(path string, translation model.Vec3) error {
	return kb.updateObject(path, func(o *model.SceneObject) { o.Translation = translation })
}

func (kb *KnowledgeBase) updateObject(path string, mutate func(*model.SceneObject)) error {
	kb.mu.Lock()
	obj, ok := kb.objects[path]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectNotFound, path)
	}
	mutate(&obj)
	kb.objects[path] = obj
	kb.mu.Unlock()

	kb.notify(Event{Type: EventObjectUpdated, Path: path, Object: obj})
	return nil
}

// RemoveObject deletes a scene object.
func (kb *KnowledgeBase) RemoveObject(path string) error {
	kb.mu.Lock()
	obj, ok := kb.objects[path]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectNotFound, path)
	}
	delete(kb.objects, path)
	kb.mu.Unlock()

	kb.notify(Event{Type: EventObjectRemoved, Path: path, Object: obj})
	return nil
}

// ListObjects returns a snapshot of all scene objects ordered by path.
func (kb *KnowledgeBase) ListObjects(context.Context) ([]model.SceneObject, error) {
	kb.mu.RLock()
	res := make([]model.SceneObject, 0, len(kb.objects))
	for _, o := range kb.objects {
		res = append(res, o)
	}
	kb.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].Path < res[j].Path })
	return res, nil
}

// DeleteObjectAt removes whatever lives at path. Missing paths are ignored.
func (kb *KnowledgeBase) DeleteObjectAt(_ context.Context, path string) error {
	kb.mu.Lock()
	_, isCloud := kb.clouds[path]
	obj, isObject := kb.objects[path]
	delete(kb.clouds, path)
	delete(kb.objects, path)
	kb.mu.Unlock()

	if isCloud || isObject {
		kb.notify(Event{Type: EventObjectRemoved, Path: path, Object: obj})
	}
	return nil
}

// CreatePointCloudAt defines a fresh, empty point cloud at path.
func (kb *KnowledgeBase) CreatePointCloudAt(_ context.Context, path string) (core.Handle, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if _, exists := kb.objects[path]; exists {
		return "", fmt.Errorf("%w: %s", ErrObjectExists, path)
	}
	kb.clouds[path] = &model.PointCloud{
		Path:       path,
		Visibility: model.VisibilityInherited,
	}
	return core.Handle(path), nil
}

// SetVisibility sets the visibility token of a point cloud.
func (kb *KnowledgeBase) SetVisibility(_ context.Context, h core.Handle, v model.Visibility) error {
	return kb.updateCloud(h, func(c *model.PointCloud) { c.Visibility = v })
}

// SetPoints replaces the point positions of a point cloud.
func (kb *KnowledgeBase) SetPoints(_ context.Context, h core.Handle, points []model.Vec3) error {
	cp := append([]model.Vec3{}, points...)
	return kb.updateCloud(h, func(c *model.PointCloud) { c.Points = cp })
}

// SetColors replaces the per-point display colors of a point cloud.
func (kb *KnowledgeBase) SetColors(_ context.Context, h core.Handle, colors []model.Vec3) error {
	cp := append([]model.Vec3{}, colors...)
	return kb.updateCloud(h, func(c *model.PointCloud) { c.Colors = cp })
}

// SetWidths replaces the per-point widths of a point cloud.
func (kb *KnowledgeBase) SetWidths(_ context.Context, h core.Handle, widths []float64) error {
	cp := append([]float64{}, widths...)
	return kb.updateCloud(h, func(c *model.PointCloud) { c.Widths = cp })
}

func (kb *KnowledgeBase) updateCloud(h core.Handle, mutate func(*model.PointCloud)) error {
	kb.mu.Lock()
	c, ok := kb.clouds[string(h)]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotPointCloud, h)
	}
	mutate(c)
	snapshot := copyCloud(c)
	kb.mu.Unlock()

	kb.notify(Event{Type: EventPointCloudUpdated, Path: string(h), Cloud: snapshot})
	return nil
}

// PointCloud returns a copy of the point cloud at path.
func (kb *KnowledgeBase) PointCloud(path string) (model.PointCloud, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	c, ok := kb.clouds[path]
	if !ok {
		return model.PointCloud{}, false
	}
	return copyCloud(c), true
}

func copyCloud(c *model.PointCloud) model.PointCloud {
	return model.PointCloud{
		Path:       c.Path,
		Visibility: c.Visibility,
		Points:     append([]model.Vec3{}, c.Points...),
		Colors:     append([]model.Vec3{}, c.Colors...),
		Widths:     append([]float64{}, c.Widths...),
	}
}

// Subscribe registers a callback for scene events. It returns an
// unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn
	kb.mu.Unlock()

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// notify calls subscribers outside the lock to avoid deadlocks.
func (kb *KnowledgeBase) notify(ev Event) {
	kb.mu.RLock()
	subs := make([]func(Event), 0, len(kb.subs))
	for _, fn := range kb.subs {
		subs = append(subs, fn)
	}
	kb.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
