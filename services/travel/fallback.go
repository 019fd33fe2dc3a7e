package travel

import (
	"math"

	"walkly/models"
)

const (
	earthRadiusMeters = 6371000.0
	metersPerMile     = 1609.344
)

// haversineMeters computes the great-circle distance between two points.
func haversineMeters(origin, dest models.Location) float64 {
	lat1 := origin.Latitude * math.Pi / 180
	lat2 := dest.Latitude * math.Pi / 180
	dLat := (dest.Latitude - origin.Latitude) * math.Pi / 180
	dLon := (dest.Longitude - origin.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// fallbackEstimate converts straight-line distance into a travel estimate at
// the configured minutes-per-mile factor. Used whenever the live provider is
// unavailable; never persisted with the long cache TTL.
func fallbackEstimate(origin, dest models.Location, minutesPerMile float64) models.TravelEstimate {
	meters := haversineMeters(origin, dest)
	miles := meters / metersPerMile
	seconds := int(math.Ceil(miles * minutesPerMile * 60))
	return models.TravelEstimate{
		Seconds: seconds,
		Meters:  int(math.Round(meters)),
		Source:  models.TravelSourceFallback,
	}
}
