package service

import (
	"math"

	"github.com/pidulll/capstone/module/core/domain"
)

const earthRadiusMeters = 6371000

// DistanceMeters returns the great-circle distance between a and b on a
// spherical earth.
func DistanceMeters(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h just outside [0,1] for antipodal points
	h = math.Max(0, math.Min(1, h))
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
