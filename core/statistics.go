package core

import (
	"math"

	"github.com/signalsfoundry/rf-heatmap/model"
)

// Band is a coarse signal-quality bucket used in pass reports.
type Band int

const (
	BandWeak Band = iota
	BandMedium
	BandStrong
)

// Band thresholds on the [0,100] strength scale.
const (
	mediumThreshold = 33.0
	strongThreshold = 66.0
)

// Bands lists every band in report order.
var Bands = [...]Band{BandWeak, BandMedium, BandStrong}

func (b Band) String() string {
	switch b {
	case BandWeak:
		return "weak"
	case BandMedium:
		return "medium"
	case BandStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// BandFor buckets a strength value.
func BandFor(strength float64) Band {
	switch {
	case strength < mediumThreshold:
		return BandWeak
	case strength < strongThreshold:
		return BandMedium
	default:
		return BandStrong
	}
}

// Statistics summarises the strength distribution of one pass, recovered
// from the emitted colors.
type Statistics struct {
	Total  int
	Min    float64
	Max    float64
	Mean   float64
	Counts [len(Bands)]int
}

// Count returns the number of points in band b.
func (s Statistics) Count(b Band) int {
	if b < 0 || int(b) >= len(s.Counts) {
		return 0
	}
	return s.Counts[b]
}

// Percent returns the share of points in band b, 0 for an empty set.
func (s Statistics) Percent(b Band) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Count(b)) / float64(s.Total) * 100
}

// ComputeStatistics inverts every color back to a strength and aggregates.
func ComputeStatistics(colors []model.Color) Statistics {
	stats := Statistics{Total: len(colors)}
	if len(colors) == 0 {
		return stats
	}

	stats.Min = math.Inf(1)
	stats.Max = math.Inf(-1)
	var sum float64
	for _, c := range colors {
		s := InverseStrength(c)
		stats.Min = math.Min(stats.Min, s)
		stats.Max = math.Max(stats.Max, s)
		sum += s
		stats.Counts[BandFor(s)]++
	}
	stats.Mean = sum / float64(len(colors))
	return stats
}
