package storm

import (
	"fmt"
	"math"

	"github.com/banshee-data/stormtrack/internal/geo"
)

// TrackVelocities estimates the eastward and northward velocity of a
// storm at each point along its track, in metres per second. Velocity at
// point i is the mean motion from point max(0, i-numPointsBack) to point
// i; a longer lookback smooths jitter in the centroid positions. The
// first point, and any point whose lookback spans zero elapsed time, has
// NaN velocity. Positions must be in time order.
func TrackVelocities(latsDeg, lngsDeg []float64, timesUnix []int64, numPointsBack int) (eastMS, northMS []float64, err error) {
	n := len(latsDeg)
	if len(lngsDeg) != n || len(timesUnix) != n {
		return nil, nil, fmt.Errorf("mismatched track lengths: %d lats, %d lngs, %d times", n, len(lngsDeg), len(timesUnix))
	}
	if numPointsBack < 1 {
		return nil, nil, fmt.Errorf("lookback must be at least 1 point, got %d", numPointsBack)
	}

	eastMS = make([]float64, n)
	northMS = make([]float64, n)
	for i := 0; i < n; i++ {
		j := i - numPointsBack
		if j < 0 {
			j = 0
		}
		dt := timesUnix[i] - timesUnix[j]
		if i == 0 || dt <= 0 {
			eastMS[i] = math.NaN()
			northMS[i] = math.NaN()
			continue
		}
		meanLatRad := (latsDeg[i] + latsDeg[j]) / 2 * math.Pi / 180
		northMS[i] = (latsDeg[i] - latsDeg[j]) * geo.DegreesLatToMetres / float64(dt)
		eastMS[i] = (lngsDeg[i] - lngsDeg[j]) * math.Cos(meanLatRad) * geo.DegreesLatToMetres / float64(dt)
	}
	return eastMS, northMS, nil
}
