package geo

import "math"

// GreatCircleMetres returns the great-circle (haversine) distance in metres
// between two geographic points given in degrees.
func GreatCircleMetres(lat1Deg, lng1Deg, lat2Deg, lng2Deg float64) float64 {
	lat1 := lat1Deg * math.Pi / 180
	lat2 := lat2Deg * math.Pi / 180
	dLat := (lat2Deg - lat1Deg) * math.Pi / 180
	dLng := (normalizeLngDeg(lng2Deg) - normalizeLngDeg(lng1Deg)) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * EarthRadiusMetres * math.Asin(math.Min(1, math.Sqrt(a)))
}
