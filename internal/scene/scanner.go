package scene

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
	"github.com/signalsfoundry/rf-heatmap/model"
)

// Scanner collects visible tower positions from a scene reader.
type Scanner struct {
	reader   core.SceneReader
	matcher  Matcher
	reporter core.Reporter
	log      logging.Logger
}

var _ core.TowerSource = (*Scanner)(nil)

// ScannerOption customises a Scanner.
type ScannerOption func(*Scanner)

// WithMatcher replaces DefaultMatcher.
func WithMatcher(m Matcher) ScannerOption {
	return func(s *Scanner) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithReporter reports every discovered tower to r.
func WithReporter(r core.Reporter) ScannerOption {
	return func(s *Scanner) { s.reporter = r }
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) ScannerOption {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

// NewScanner builds a scanner over reader.
func NewScanner(reader core.SceneReader, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		reader:  reader,
		matcher: DefaultMatcher(),
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Towers returns the raised world position of every transformable, visible
// object the matcher accepts, in the reader's order.
func (s *Scanner) Towers(ctx context.Context) ([]model.TowerPosition, error) {
	objs, err := s.reader.ListObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scene objects: %w", err)
	}

	towers := make([]model.TowerPosition, 0)
	for _, obj := range objs {
		if !obj.Xformable || !s.matcher.Match(obj) {
			continue
		}
		if obj.Visibility == model.VisibilityInvisible {
			s.log.Debug(ctx, "skipping hidden tower", logging.String("path", obj.Path))
			continue
		}

		t := obj.Translation
		towers = append(towers, model.TowerPosition{
			Name:     obj.Name,
			Path:     obj.Path,
			Position: model.Vec3{X: t.X, Y: t.Y, Z: t.Z + model.TowerRaise},
		})
		if s.reporter != nil {
			s.reporter.Log(fmt.Sprintf("  Found: %s at (%.1f, %.1f, %.1f)", obj.Name, t.X, t.Y, t.Z))
		}
	}

	s.log.Debug(ctx, "scanned scene for towers",
		logging.Int("objects", len(objs)),
		logging.Int("towers", len(towers)),
	)
	return towers, nil
}
