// Package geo provides great-circle helpers over golang/geo s2 for tours and paths.
package geo

import (
	"github.com/golang/geo/s2"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

// EarthRadiusKm is the mean Earth radius used for all distance conversions
const EarthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance between two coordinates in kilometers
func DistanceKm(a, b models.LatLng) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// PathLengthKm returns the length of a polyline, vertex by vertex, in kilometers
func PathLengthKm(path []models.LatLng) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += DistanceKm(path[i-1], path[i])
	}
	return total
}

// TourLengthKm returns the length of the closed tour visiting points in the
// given order and returning to the first one
func TourLengthKm(points []models.Point, tour []int) float64 {
	n := len(tour)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		a := points[tour[i]].LatLng()
		b := points[tour[(i+1)%n]].LatLng()
		total += DistanceKm(a, b)
	}
	return total
}

// DistanceMatrix returns the symmetric pairwise distance matrix in kilometers
func DistanceMatrix(points []models.Point) [][]float64 {
	n := len(points)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := DistanceKm(points[i].LatLng(), points[j].LatLng())
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

// Bounds returns the bounding rectangle of the points; ok is false when empty
func Bounds(points []models.LatLng) (rect s2.Rect, ok bool) {
	if len(points) == 0 {
		return s2.EmptyRect(), false
	}
	rect = s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Lat, p.Lng))
	}
	return rect, true
}
