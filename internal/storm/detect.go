package storm

import (
	"math"
	"sort"
)

// valueTolerance is the maximum difference between a cell and its
// dilation for the cell to count as a local maximum.
const valueTolerance = 1e-6

// FindLocalMaxima locates every cell of the grid that equals the maximum
// of its (2h+1)×(2h+1) neighbourhood, converts each to a geographic
// position via the grid metadata, and returns the maxima sorted by value
// in descending order (stably, so equal-valued maxima keep row-major
// order). NaN cells are never maxima.
func FindLocalMaxima(g *Grid, meta GridMetadata, halfWidthCells int) ([]LocalMaximum, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	dilated, err := Dilate(g, halfWidthCells)
	if err != nil {
		return nil, err
	}

	rows, cols := g.Dims()
	var maxima []LocalMaximum
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := g.At(r, c)
			if math.IsNaN(v) {
				continue
			}
			d := dilated.At(r, c)
			if math.IsNaN(d) || math.Abs(d-v) >= valueTolerance {
				continue
			}
			lat, lng := meta.LatLngAt(r, c)
			maxima = append(maxima, LocalMaximum{
				LatDeg: lat,
				LngDeg: lng,
				Value:  v,
			})
		}
	}

	sort.SliceStable(maxima, func(i, j int) bool {
		return maxima[i].Value > maxima[j].Value
	})
	return maxima, nil
}
