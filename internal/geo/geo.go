package geo

import (
	"math"

	"github.com/quickbites/dispatch-backend/pkg/types"
)

// earthRadiusKm is the mean spherical radius used by the haversine formula.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers. It is symmetric and returns 0 for identical inputs.
func DistanceKm(a, b types.GeoPoint) float64 {
	latA := degreesToRadians(a.Lat)
	latB := degreesToRadians(b.Lat)
	deltaLat := degreesToRadians(b.Lat - a.Lat)
	deltaLng := degreesToRadians(b.Lng - a.Lng)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// RoundKm rounds a distance to two decimal places for presentation and
// persistence.
func RoundKm(distance float64) float64 {
	return math.Round(distance*100) / 100
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
