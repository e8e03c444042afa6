package tui

import (
	"math"
	"testing"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

func TestProjectCenter(t *testing.T) {
	v := NewViewport(52.52, 13.405, 0.001, 80, 40)
	x, y, ok := v.Project(52.52, 13.405)
	if !ok || x != 40 || y != 20 {
		t.Errorf("Project(center) = %d, %d, %v; want 40, 20, true", x, y, ok)
	}
}

func TestProjectOutside(t *testing.T) {
	v := NewViewport(0, 0, 0.01, 10, 10)
	x, _, ok := v.Project(0, 1)
	if ok {
		t.Error("a point 100 columns east must be outside")
	}
	if x < 100 {
		t.Errorf("x = %d, want the unclipped column east of the viewport", x)
	}
}

func TestProjectOrientation(t *testing.T) {
	v := NewViewport(52.52, 13.405, 0.001, 80, 40)
	cx, cy, _ := v.Project(52.52, 13.405)

	nx, ny, _ := v.Project(52.53, 13.405)
	if ny >= cy || nx != cx {
		t.Errorf("north should be up: center %d,%d north %d,%d", cx, cy, nx, ny)
	}
	ex, ey, _ := v.Project(52.52, 13.415)
	if ex <= cx || ey != cy {
		t.Errorf("east should be right: center %d,%d east %d,%d", cx, cy, ex, ey)
	}
}

func TestUnprojectRoundTrip(t *testing.T) {
	v := NewViewport(52.52, 13.405, 0.001, 80, 40)
	for _, c := range []Cell{{0, 0}, {40, 20}, {79, 39}, {13, 27}} {
		lat, lng := v.Unproject(c.X, c.Y)
		x, y, ok := v.Project(lat, lng)
		if !ok || x != c.X || y != c.Y {
			t.Errorf("cell %v -> (%f, %f) -> %d,%d,%v", c, lat, lng, x, y, ok)
		}
	}
}

func TestAspectCorrection(t *testing.T) {
	v := NewViewport(60, 0, 0.01, 100, 100)
	// at 60°N one degree of longitude spans half the distance of one degree
	// of latitude, and rows are twice as tall as columns
	want := 0.01 * 2 * math.Cos(60*math.Pi/180)
	if got := v.degPerRow(); math.Abs(got-want) > 1e-12 {
		t.Errorf("degPerRow = %v, want %v", got, want)
	}
}

func TestPanAndZoom(t *testing.T) {
	v := NewViewport(0, 0, 0.01, 20, 20)

	moved := v.Pan(10, 0)
	if math.Abs(moved.CenterLng-0.1) > 1e-12 || moved.CenterLat != 0 {
		t.Errorf("Pan(10,0) center = %f,%f", moved.CenterLat, moved.CenterLng)
	}
	if up := v.Pan(0, -5); up.CenterLat <= 0 {
		t.Errorf("panning up should move north, got %f", up.CenterLat)
	}

	if z := v.Zoom(0.5); z.DegPerCol != 0.005 {
		t.Errorf("Zoom(0.5) = %v", z.DegPerCol)
	}
	if z := v.Zoom(1e9); z.DegPerCol != maxDegPerCol {
		t.Errorf("zoom must clamp, got %v", z.DegPerCol)
	}
	if v.DegPerCol != 0.01 {
		t.Error("Zoom must not mutate the receiver")
	}
}

func TestFit(t *testing.T) {
	points := []models.LatLng{
		{Lat: 52.52, Lng: 13.405},
		{Lat: 52.51, Lng: 13.38},
		{Lat: 52.53, Lng: 13.42},
	}
	v := NewViewport(0, 0, 1, 60, 30).Fit(points)

	if math.Abs(v.CenterLat-52.52) > 1e-6 || math.Abs(v.CenterLng-13.40) > 1e-6 {
		t.Errorf("center = %f,%f", v.CenterLat, v.CenterLng)
	}
	for _, p := range points {
		if _, _, ok := v.Project(p.Lat, p.Lng); !ok {
			t.Errorf("point %v not visible after Fit", p)
		}
	}

	same := v.Fit(nil)
	if same != v {
		t.Error("Fit with no points must not move the viewport")
	}
}
