// Package preview draws a top-down terminal view of the heatmap point cloud.
package preview

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/model"
)

const (
	sampleGlyph = '█'
	towerGlyph  = 'T'
)

// Canvas is the drawing surface; tcell.Screen satisfies it.
type Canvas interface {
	Size() (width, height int)
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
}

// Frame is one picture: the display point cloud and the towers it was
// generated around.
type Frame struct {
	Cloud  model.PointCloud
	Towers []model.TowerPosition
}

// bounds is an XY bounding box in world units.
type bounds struct {
	minX, minY, maxX, maxY float64
}

func (b *bounds) add(v model.Vec3) {
	b.minX = math.Min(b.minX, v.X)
	b.minY = math.Min(b.minY, v.Y)
	b.maxX = math.Max(b.maxX, v.X)
	b.maxY = math.Max(b.maxY, v.Y)
}

func frameBounds(f Frame) (bounds, bool) {
	b := bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	n := 0
	for _, p := range f.Cloud.Points {
		b.add(p)
		n++
	}
	for _, t := range f.Towers {
		b.add(t.Position)
		n++
	}
	if n == 0 {
		return b, false
	}
	// Square the box so rings stay round.
	span := math.Max(math.Max(b.maxX-b.minX, b.maxY-b.minY), 1)
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	return bounds{cx - span/2, cy - span/2, cx + span/2, cy + span/2}, true
}

// project maps a world point into a cell of a w x h grid, +Y up.
func (b bounds) project(v model.Vec3, w, h int) (int, int) {
	fx := (v.X - b.minX) / (b.maxX - b.minX)
	fy := (v.Y - b.minY) / (b.maxY - b.minY)
	x := int(math.Floor(fx * float64(w-1)))
	y := int(math.Floor((1 - fy) * float64(h-1)))
	return clampInt(x, 0, w-1), clampInt(y, 0, h-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ColorOf converts a gradient color to a terminal color.
func ColorOf(c model.Vec3) tcell.Color {
	return tcell.NewRGBColor(channel(c.X), channel(c.Y), channel(c.Z))
}

func channel(v float64) int32 {
	return int32(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Render clears c and draws f. The bottom row holds a status line; the rest
// is the map, where each cell shows the strongest sample that falls in it.
func Render(c Canvas, f Frame) {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return
	}
	blank := tcell.StyleDefault
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.SetContent(x, y, ' ', nil, blank)
		}
	}

	mapH := h - 1
	b, ok := frameBounds(f)
	hidden := f.Cloud.Visibility == model.VisibilityInvisible
	if ok && mapH > 0 && !hidden {
		drawSamples(c, f.Cloud, b, w, mapH)
	}
	if ok && mapH > 0 {
		tower := tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
		for _, t := range f.Towers {
			x, y := b.project(t.Position, w, mapH)
			c.SetContent(x, y, towerGlyph, nil, tower)
		}
	}

	drawText(c, 0, h-1, w, statusLine(f, hidden), tcell.StyleDefault.Reverse(true))
}

func drawSamples(c Canvas, cloud model.PointCloud, b bounds, w, h int) {
	best := make([]float64, w*h)
	for i := range best {
		best[i] = -1
	}
	for i, p := range cloud.Points {
		if i >= len(cloud.Colors) {
			break
		}
		col := cloud.Colors[i]
		strength := core.InverseStrength(model.Color{R: col.X, G: col.Y, B: col.Z})
		x, y := b.project(p, w, h)
		if strength <= best[y*w+x] {
			continue
		}
		best[y*w+x] = strength
		c.SetContent(x, y, sampleGlyph, nil, tcell.StyleDefault.Foreground(ColorOf(col)))
	}
}

func statusLine(f Frame, hidden bool) string {
	if hidden {
		return fmt.Sprintf(" towers: %d  heatmap hidden  [r] regenerate  [q] quit", len(f.Towers))
	}
	return fmt.Sprintf(" towers: %d  points: %d  [r] regenerate  [q] quit", len(f.Towers), len(f.Cloud.Points))
}

func drawText(c Canvas, x, y, maxW int, s string, style tcell.Style) {
	col := x
	for _, r := range s {
		if col >= maxW {
			return
		}
		c.SetContent(col, y, r, nil, style)
		col++
	}
	for ; col < maxW; col++ {
		c.SetContent(col, y, ' ', nil, style)
	}
}
