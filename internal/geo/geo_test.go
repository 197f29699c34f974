package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAzimuthalEquidistantCentre(t *testing.T) {
	t.Parallel()

	proj, err := NewAzimuthalEquidistant(35, 265)
	require.NoError(t, err)

	x, y := proj.Project(35, 265)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)
}

func TestAzimuthalEquidistantPreservesDistanceFromCentre(t *testing.T) {
	t.Parallel()

	proj, err := NewAzimuthalEquidistant(35, 265)
	require.NoError(t, err)

	// One degree of latitude due north of the centre.
	x, y := proj.Project(36, 265)
	assert.InDelta(t, 0, x, 1)
	wantMetres := EarthRadiusMetres * math.Pi / 180
	assert.InDelta(t, wantMetres, y, 1)
}

func TestAzimuthalEquidistantRoundTrip(t *testing.T) {
	t.Parallel()

	proj, err := NewAzimuthalEquidistant(35, 95)
	require.NoError(t, err)

	cases := []struct{ lat, lng float64 }{
		{35, 95},
		{34.96, 95.1},
		{40, 300},
		{53.5, 113.5},
		{-10, 170},
	}
	for _, c := range cases {
		x, y := proj.Project(c.lat, c.lng)
		lat, lng := proj.Unproject(x, y)
		assert.InDelta(t, c.lat, lat, 1e-6)
		assert.InDelta(t, normalizeLngDeg(c.lng), lng, 1e-6)
	}
}

func TestAzimuthalEquidistantRejectsBadLatitude(t *testing.T) {
	t.Parallel()

	_, err := NewAzimuthalEquidistant(91, 0)
	assert.Error(t, err)
}

func TestGreatCircleMetres(t *testing.T) {
	t.Parallel()

	// Same point.
	assert.InDelta(t, 0, GreatCircleMetres(53.5, 113.5, 53.5, 113.5), 1e-6)

	// One degree of latitude is roughly 60 nautical miles.
	got := GreatCircleMetres(35, 265, 36, 265)
	assert.InDelta(t, DegreesLatToMetres, got, 500)

	// Longitude wrap: 307.3°E equals -52.7°E.
	a := GreatCircleMetres(47.6, 307.3, 53.5, 113.5)
	b := GreatCircleMetres(47.6, -52.7, 53.5, 113.5)
	assert.InDelta(t, a, b, 1e-6)
}

func TestProjectedSeparationOfNearbyMaxima(t *testing.T) {
	t.Parallel()

	// Two radar maxima 0.04° of latitude apart project roughly 4.4 km apart.
	proj, err := NewAzimuthalEquidistant(35, 95)
	require.NoError(t, err)

	x1, y1 := proj.Project(34.96, 95.1)
	x2, y2 := proj.Project(35.0, 95.1)
	dist := math.Hypot(x2-x1, y2-y1)
	assert.InDelta(t, 0.04*EarthRadiusMetres*math.Pi/180, dist, 50)
}
