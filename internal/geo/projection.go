// Package geo provides the map-projection and geodesy primitives used by
// storm tracking: an azimuthal-equidistant projection for converting
// storm centroids between geographic and planar coordinates, and
// great-circle distance for extrapolation-error measurement.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMetres is the spherical Earth radius used by both the
// projection and great-circle distance.
const EarthRadiusMetres = 6370997.0

// DegreesLatToMetres is the approximate length of one degree of latitude
// (60 nautical miles).
const DegreesLatToMetres = 60 * 1852.0

// Projector converts between geographic (lat/lng, degrees) and planar
// (x/y, metres) coordinates. Storm tracking treats the projection as an
// injected collaborator; any implementation with metre-scaled output works.
type Projector interface {
	// Project converts latitude/longitude in degrees to x/y in metres.
	Project(latDeg, lngDeg float64) (xMetres, yMetres float64)

	// Unproject converts x/y in metres back to latitude/longitude in degrees.
	Unproject(xMetres, yMetres float64) (latDeg, lngDeg float64)
}

// AzimuthalEquidistant is a spherical azimuthal-equidistant projection
// centred on a fixed point. Distances from the centre are preserved,
// which keeps inter-maximum distances accurate over the regional scales
// storm tracking operates at.
type AzimuthalEquidistant struct {
	centerLatRad float64
	centerLngRad float64
}

// NewAzimuthalEquidistant creates a projection centred on the given point.
func NewAzimuthalEquidistant(centerLatDeg, centerLngDeg float64) (*AzimuthalEquidistant, error) {
	if centerLatDeg < -90 || centerLatDeg > 90 {
		return nil, fmt.Errorf("central latitude %v out of range [-90, 90]", centerLatDeg)
	}
	return &AzimuthalEquidistant{
		centerLatRad: centerLatDeg * math.Pi / 180,
		centerLngRad: normalizeLngDeg(centerLngDeg) * math.Pi / 180,
	}, nil
}

// Project converts latitude/longitude in degrees to x/y in metres.
func (p *AzimuthalEquidistant) Project(latDeg, lngDeg float64) (xMetres, yMetres float64) {
	latRad := latDeg * math.Pi / 180
	lngRad := normalizeLngDeg(lngDeg) * math.Pi / 180
	dLng := lngRad - p.centerLngRad

	sinLat, cosLat := math.Sincos(latRad)
	sinLat0, cosLat0 := math.Sincos(p.centerLatRad)

	cosC := sinLat0*sinLat + cosLat0*cosLat*math.Cos(dLng)
	cosC = math.Min(1, math.Max(-1, cosC))
	c := math.Acos(cosC)

	// k → 1 as c → 0; the series limit avoids 0/0 at the projection centre.
	k := 1.0
	if c > 1e-12 {
		k = c / math.Sin(c)
	}

	xMetres = EarthRadiusMetres * k * cosLat * math.Sin(dLng)
	yMetres = EarthRadiusMetres * k * (cosLat0*sinLat - sinLat0*cosLat*math.Cos(dLng))
	return xMetres, yMetres
}

// Unproject converts x/y in metres back to latitude/longitude in degrees.
func (p *AzimuthalEquidistant) Unproject(xMetres, yMetres float64) (latDeg, lngDeg float64) {
	rho := math.Hypot(xMetres, yMetres)
	if rho < 1e-9 {
		return p.centerLatRad * 180 / math.Pi, p.centerLngRad * 180 / math.Pi
	}
	c := rho / EarthRadiusMetres

	sinC, cosC := math.Sincos(c)
	sinLat0, cosLat0 := math.Sincos(p.centerLatRad)

	latRad := math.Asin(cosC*sinLat0 + yMetres*sinC*cosLat0/rho)
	lngRad := p.centerLngRad + math.Atan2(
		xMetres*sinC,
		rho*cosLat0*cosC-yMetres*sinLat0*sinC,
	)

	return latRad * 180 / math.Pi, lngRad * 180 / math.Pi
}

// normalizeLngDeg maps a longitude to (-180, 180]. Radar data sources mix
// 0-360 and signed conventions; projecting both through one branch keeps
// distances consistent.
func normalizeLngDeg(lngDeg float64) float64 {
	lng := math.Mod(lngDeg, 360)
	if lng > 180 {
		lng -= 360
	} else if lng <= -180 {
		lng += 360
	}
	return lng
}
