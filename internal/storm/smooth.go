package storm

import (
	"fmt"
	"math"
)

// GaussianSmooth convolves the grid with a 2-D Gaussian kernel of the
// given e-folding radius, expressed in grid cells. NaN cells contribute
// zero to their neighbours and stay NaN in the output, so the missing-
// data mask survives smoothing and masked regions cannot turn into flat
// plateaus of spurious maxima.
//
// cutoffRadiusCells bounds the kernel half-width; zero or negative
// selects the default of three e-folding radii.
func GaussianSmooth(g *Grid, eFoldingRadiusCells, cutoffRadiusCells float64) (*Grid, error) {
	if eFoldingRadiusCells <= 0 {
		return nil, fmt.Errorf("e-folding radius must be positive, got %v", eFoldingRadiusCells)
	}
	if cutoffRadiusCells <= 0 {
		cutoffRadiusCells = 3 * eFoldingRadiusCells
	}

	halfWidth := int(math.Floor(cutoffRadiusCells))
	if halfWidth < 1 {
		halfWidth = 1
	}
	kernel := gaussianKernel(halfWidth, eFoldingRadiusCells)

	rows, cols := g.Dims()
	out := NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if math.IsNaN(g.At(r, c)) {
				continue
			}
			var sum float64
			for dr := -halfWidth; dr <= halfWidth; dr++ {
				for dc := -halfWidth; dc <= halfWidth; dc++ {
					rr, cc := r+dr, c+dc
					if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
						continue
					}
					v := g.At(rr, cc)
					if math.IsNaN(v) {
						continue
					}
					sum += v * kernel[dr+halfWidth][dc+halfWidth]
				}
			}
			out.Set(r, c, sum)
		}
	}
	return out, nil
}

// gaussianKernel builds a (2h+1)×(2h+1) kernel with weights
// exp(-(d/e)^2) normalised to unit sum.
func gaussianKernel(halfWidth int, eFoldingRadiusCells float64) [][]float64 {
	size := 2*halfWidth + 1
	kernel := make([][]float64, size)
	var total float64
	for i := 0; i < size; i++ {
		kernel[i] = make([]float64, size)
		for j := 0; j < size; j++ {
			dr := float64(i - halfWidth)
			dc := float64(j - halfWidth)
			d2 := (dr*dr + dc*dc) / (eFoldingRadiusCells * eFoldingRadiusCells)
			w := math.Exp(-d2)
			kernel[i][j] = w
			total += w
		}
	}
	for i := range kernel {
		for j := range kernel[i] {
			kernel[i][j] /= total
		}
	}
	return kernel
}
