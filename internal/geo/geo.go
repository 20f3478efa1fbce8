// Package geo provides the distance math used to pick and brief responders.
package geo

import (
	"math"
	"time"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
)

// EarthRadiusKM is the mean Earth radius.
const EarthRadiusKM = 6371

// Distance returns the great-circle distance between two points in kilometers.
func Distance(a, b domain.Location) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude) - radians(a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ETA returns the travel time for a distance at an average speed.
// Non-positive speed yields zero.
func ETA(distanceKM, speedKMH float64) time.Duration {
	if speedKMH <= 0 || distanceKM <= 0 {
		return 0
	}

	return time.Duration(distanceKM / speedKMH * float64(time.Hour)).Round(time.Second)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
