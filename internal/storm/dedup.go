package storm

import (
	"fmt"
	"math"

	"github.com/banshee-data/stormtrack/internal/geo"
)

// RemoveRedundantMaxima projects every maximum onto the x/y plane and
// then drops maxima that crowd a neighbour: scanning in input order
// (detection emits strongest-first), a maximum is discarded when any
// other still-kept maximum lies strictly closer than
// minSeparationMetres. Survivors are therefore pairwise separated by at
// least the threshold. The surviving maxima, with XMetres/YMetres
// filled, are returned in their original relative order.
func RemoveRedundantMaxima(maxima []LocalMaximum, projector geo.Projector, minSeparationMetres float64) ([]LocalMaximum, error) {
	if minSeparationMetres <= 0 {
		return nil, fmt.Errorf("minimum separation must be positive, got %v", minSeparationMetres)
	}

	projected := make([]LocalMaximum, len(maxima))
	for i, m := range maxima {
		x, y := projector.Project(m.LatDeg, m.LngDeg)
		m.XMetres, m.YMetres = x, y
		projected[i] = m
	}

	keep := make([]bool, len(projected))
	for i := range keep {
		keep[i] = true
	}
	minSep2 := minSeparationMetres * minSeparationMetres
	for i := range projected {
		for j := range projected {
			if j == i || !keep[j] {
				continue
			}
			dx := projected[i].XMetres - projected[j].XMetres
			dy := projected[i].YMetres - projected[j].YMetres
			if dx*dx+dy*dy < minSep2 {
				keep[i] = false
				break
			}
		}
	}

	out := make([]LocalMaximum, 0, len(projected))
	for i, m := range projected {
		if keep[i] {
			out = append(out, m)
		}
	}
	return out, nil
}

// FilterSmallMaxima drops maxima whose supporting polygon covers fewer
// than minGridCells grid points. Maxima without polygon data are kept.
func FilterSmallMaxima(maxima []LocalMaximum, minGridCells int) []LocalMaximum {
	out := make([]LocalMaximum, 0, len(maxima))
	for _, m := range maxima {
		if m.GridPointRows != nil && len(m.GridPointRows) < minGridCells {
			continue
		}
		out = append(out, m)
	}
	return out
}

// distanceMetres is the flat-plane distance between two projected maxima.
func distanceMetres(a, b LocalMaximum) float64 {
	dx := a.XMetres - b.XMetres
	dy := a.YMetres - b.YMetres
	return math.Sqrt(dx*dx + dy*dy)
}
