package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/GoSim-25-26J-441/tourviz/pkg/utils"
)

// Cell is a terminal cell coordinate
type Cell struct {
	X, Y int
}

// Line rasterizes the segment between two cells with Bresenham's algorithm.
// Both endpoints are included.
func Line(x0, y0, x1, y1 int) []Cell {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	cells := make([]Cell, 0, max(dx, -dy)+1)
	err := dx + dy
	for {
		cells = append(cells, Cell{X: x0, Y: y0})
		if x0 == x1 && y0 == y1 {
			return cells
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width values as block characters scaled between
// their minimum and maximum
func Sparkline(values []float64, width int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := utils.MinMax(values)

	out := make([]rune, len(values))
	for i, v := range values {
		idx := len(sparkTicks) - 1
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkTicks)-1))
		}
		out[i] = sparkTicks[utils.Clamp(idx, 0, len(sparkTicks)-1)]
	}
	return string(out)
}

var shades = []rune(" ░▒▓█")

// Shade maps a score in [0,1] to a block character and colour, darker for
// weaker candidates
func Shade(score float64) (rune, tcell.Color) {
	score = utils.ClampFloat64(score, 0, 1)
	idx := utils.Clamp(int(score*float64(len(shades)-1)+0.5), 0, len(shades)-1)
	level := int32(60 + score*195)
	return shades[idx], tcell.NewRGBColor(255-level/2, level, 80)
}

// drawText writes s starting at (x, y), clipped at maxX. It returns the column after the text.
func drawText(s tcell.Screen, x, y, maxX int, style tcell.Style, text string) int {
	for _, r := range text {
		if x >= maxX {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func fill(s tcell.Screen, x0, y0, x1, y1 int, style tcell.Style) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			s.SetContent(x, y, ' ', nil, style)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
