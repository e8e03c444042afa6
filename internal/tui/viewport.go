package tui

import (
	"math"

	"github.com/GoSim-25-26J-441/tourviz/internal/geo"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
	"github.com/GoSim-25-26J-441/tourviz/pkg/utils"
)

const (
	// terminal cells are roughly twice as tall as they are wide
	cellAspect = 2.0

	minDegPerCol = 1e-5
	maxDegPerCol = 5.0
	fitMargin    = 0.1
)

// Viewport maps geographic coordinates onto a grid of terminal cells with an
// equirectangular projection centred on (CenterLat, CenterLng)
type Viewport struct {
	CenterLat float64
	CenterLng float64
	DegPerCol float64 // degrees of longitude per column
	Width     int
	Height    int
}

// NewViewport creates a viewport of the given size
func NewViewport(lat, lng, degPerCol float64, width, height int) Viewport {
	return Viewport{
		CenterLat: lat,
		CenterLng: lng,
		DegPerCol: utils.ClampFloat64(degPerCol, minDegPerCol, maxDegPerCol),
		Width:     width,
		Height:    height,
	}
}

// degPerRow is the latitude span of one row, corrected so a kilometre
// covers the same screen distance on both axes
func (v Viewport) degPerRow() float64 {
	cos := math.Cos(v.CenterLat * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	return v.DegPerCol * cellAspect * cos
}

// Project returns the cell for a coordinate. ok is false when the cell falls
// outside the viewport; x and y are still meaningful for clipping lines.
func (v Viewport) Project(lat, lng float64) (x, y int, ok bool) {
	fx := float64(v.Width)/2 + (lng-v.CenterLng)/v.DegPerCol
	fy := float64(v.Height)/2 - (lat-v.CenterLat)/v.degPerRow()
	x, y = int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, v.Contains(x, y)
}

// Unproject returns the coordinate at the centre of a cell
func (v Viewport) Unproject(x, y int) (lat, lng float64) {
	lng = v.CenterLng + (float64(x)+0.5-float64(v.Width)/2)*v.DegPerCol
	lat = v.CenterLat - (float64(y)+0.5-float64(v.Height)/2)*v.degPerRow()
	return lat, lng
}

// Contains reports whether a cell lies inside the viewport
func (v Viewport) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < v.Width && y < v.Height
}

// Pan moves the centre by whole cells
func (v Viewport) Pan(dx, dy int) Viewport {
	v.CenterLng += float64(dx) * v.DegPerCol
	v.CenterLat -= float64(dy) * v.degPerRow()
	v.CenterLat = utils.ClampFloat64(v.CenterLat, -85, 85)
	return v
}

// Zoom scales the view; factors below 1 zoom in
func (v Viewport) Zoom(factor float64) Viewport {
	v.DegPerCol = utils.ClampFloat64(v.DegPerCol*factor, minDegPerCol, maxDegPerCol)
	return v
}

// Resize changes the cell dimensions, keeping centre and scale
func (v Viewport) Resize(width, height int) Viewport {
	v.Width, v.Height = width, height
	return v
}

// Fit centres on points and picks the closest zoom that shows them all.
// An empty set leaves the viewport unchanged.
func (v Viewport) Fit(points []models.LatLng) Viewport {
	rect, ok := geo.Bounds(points)
	if !ok || v.Width <= 0 || v.Height <= 0 {
		return v
	}
	center := rect.Center()
	v.CenterLat = center.Lat.Degrees()
	v.CenterLng = center.Lng.Degrees()

	latSpan := rect.Size().Lat.Degrees() * (1 + 2*fitMargin)
	lngSpan := rect.Size().Lng.Degrees() * (1 + 2*fitMargin)

	byLng := lngSpan / float64(v.Width)
	byLat := latSpan / (float64(v.Height) * cellAspect * math.Max(math.Cos(v.CenterLat*math.Pi/180), 0.01))
	v.DegPerCol = utils.ClampFloat64(math.Max(byLng, byLat), minDegPerCol, maxDegPerCol)
	return v
}
