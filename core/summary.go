package core

import (
	"fmt"
	"strings"
)

var (
	rule     = strings.Repeat("=", 60)
	thinRule = strings.Repeat("-", 60)
)

var bandLabels = map[Band]string{
	BandWeak:   "Red (<33%)",
	BandMedium: "Yellow (33-66%)",
	BandStrong: "Green (>66%)",
}

// SummaryLines renders the end-of-pass report for res.
func SummaryLines(res *PassResult) []string {
	if res == nil {
		return nil
	}
	p := res.Parameters
	st := res.Statistics

	lines := []string{
		thinRule,
		"Heatmap generated successfully!",
		fmt.Sprintf("  Total points: %s", groupThousands(st.Total)),
		fmt.Sprintf("  Points per tower: %d", p.PointsPerTower),
		fmt.Sprintf("  Signal range: %gm - %gm", p.MinRange, p.MaxRange),
		fmt.Sprintf("  Point size: %g", p.PointSize),
		"  Color scheme: Red (weak) -> Yellow (medium) -> Green (strong)",
		"",
		"  Signal strength stats:",
		fmt.Sprintf("    Min: %.1f%%  Max: %.1f%%  Avg: %.1f%%", st.Min, st.Max, st.Mean),
		"  Color distribution:",
	}
	for _, b := range Bands {
		lines = append(lines, fmt.Sprintf("    %s: %d points (%.1f%%)", bandLabels[b], st.Count(b), st.Percent(b)))
	}
	lines = append(lines,
		"",
		"Adjust max range, min range, points per tower or point size and trigger a refresh to regenerate.",
		rule,
	)
	return lines
}

func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
