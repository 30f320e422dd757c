package core

import (
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/signalsfoundry/rf-heatmap/model"
)

const (
	// NumRings is the number of concentric distance bands sampled per tower.
	NumRings = 20

	// DistanceJitter is the half-width, in metres, of the uniform jitter
	// applied to each sample's ring distance.
	DistanceJitter = 5.0

	// Elevation bands relative to the tower's ground height. Strong samples
	// sit low and tight; weak ones float higher and scatter more.
	strongElevation       = -25.0
	strongElevationJitter = 5.0
	weakElevation         = -10.0
	weakElevationJitter   = 10.0
)

// RingSampler distributes samples for one tower across NumRings evenly
// spaced distance bands between the configured minimum and maximum range.
type RingSampler struct {
	params model.HeatmapParameters
	rng    RandSource
}

// NewRingSampler binds a sampler to one pass's parameters and random source.
func NewRingSampler(params model.HeatmapParameters, rng RandSource) *RingSampler {
	if rng == nil {
		rng = NewRandSource(1)
	}
	return &RingSampler{params: params, rng: rng}
}

// PointsPerRing is PointsPerTower split evenly across the rings. Remainder
// points are dropped.
func (s *RingSampler) PointsPerRing() int {
	if s.params.PointsPerTower <= 0 {
		return 0
	}
	return s.params.PointsPerTower / NumRings
}

// PointsPerTower is the number of samples actually emitted for each tower.
func (s *RingSampler) PointsPerTower() int {
	return s.PointsPerRing() * NumRings
}

// RingDistance returns the base distance of ring i.
func (s *RingSampler) RingDistance(i int) float64 {
	return ringDistance(i, NumRings, s.params.MinRange, s.params.MaxRange)
}

func ringDistance(i, rings int, minRange, maxRange float64) float64 {
	if rings <= 1 {
		return minRange
	}
	progress := float64(i) / float64(rings-1)
	return minRange + (maxRange-minRange)*progress
}

// AppendSamples generates every sample for tower and appends them to dst.
func (s *RingSampler) AppendSamples(dst []model.SamplePoint, tower model.TowerPosition) []model.SamplePoint {
	perRing := s.PointsPerRing()
	if perRing == 0 {
		return dst
	}
	base := tower.GroundHeight()

	for ring := 0; ring < NumRings; ring++ {
		dist := s.RingDistance(ring)
		for n := 0; n < perRing; n++ {
			dst = append(dst, s.sample(tower.Position, base, dist))
		}
	}
	return dst
}

// sample draws, in order, the heading, the distance jitter and the
// elevation jitter for one point.
func (s *RingSampler) sample(origin r3.Vector, groundHeight, ringDist float64) model.SamplePoint {
	p := s.params

	heading := s1.Angle(uniform(s.rng, 0, float64(fullTurn)))
	d := clampDistance(ringDist+uniform(s.rng, -DistanceJitter, DistanceJitter), p.MinRange, p.MaxRange)

	strength := Strength(d, p.MaxRange, p.MinRange)

	var offset float64
	if strength > midStrength {
		offset = strongElevation + uniform(s.rng, -strongElevationJitter, strongElevationJitter)
	} else {
		offset = weakElevation + uniform(s.rng, -weakElevationJitter, weakElevationJitter)
	}

	pos := PolarOffset(origin, d, heading)
	pos.Z = groundHeight + offset

	return model.SamplePoint{
		Position: pos,
		Color:    ColorFor(strength),
		Width:    p.PointSize,
	}
}
