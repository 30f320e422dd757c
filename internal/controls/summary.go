package controls

import (
	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/model"
)

// ParametersMap keys params by Parameter name.
func ParametersMap(p model.HeatmapParameters) map[string]any {
	return map[string]any{
		string(MaxRange):       p.MaxRange,
		string(MinRange):       p.MinRange,
		string(PointsPerTower): p.PointsPerTower,
		string(PointSize):      p.PointSize,
	}
}

// PassSummary flattens a pass result into plain values for the remote
// control surfaces. It returns nil for a nil result.
func PassSummary(res *core.PassResult) map[string]any {
	if res == nil {
		return nil
	}
	towers := make([]any, 0, len(res.Towers))
	for _, t := range res.Towers {
		towers = append(towers, map[string]any{
			"name": t.Name,
			"path": t.Path,
			"x":    t.Position.X,
			"y":    t.Position.Y,
			"z":    t.Position.Z,
		})
	}
	bands := make(map[string]any, len(core.Bands))
	for _, b := range core.Bands {
		bands[b.String()] = map[string]any{
			"count":   res.Statistics.Count(b),
			"percent": res.Statistics.Percent(b),
		}
	}
	return map[string]any{
		"parameters": ParametersMap(res.Parameters),
		"towers":     towers,
		"points":     len(res.Samples),
		"visible":    res.Visible,
		"statistics": map[string]any{
			"total": res.Statistics.Total,
			"min":   res.Statistics.Min,
			"max":   res.Statistics.Max,
			"mean":  res.Statistics.Mean,
			"bands": bands,
		},
	}
}
