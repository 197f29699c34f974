package storm

import (
	"fmt"
	"math"
)

// Dilate applies a square maximum filter of half-width h: each output
// cell holds the largest finite value within the (2h+1)×(2h+1) window
// centred on it. NaN inputs never win; a window containing only NaN
// yields NaN. Comparing a cell against its dilation identifies local
// maxima.
func Dilate(g *Grid, halfWidthCells int) (*Grid, error) {
	if halfWidthCells < 1 {
		return nil, fmt.Errorf("dilation half-width must be at least 1, got %d", halfWidthCells)
	}
	rows, cols := g.Dims()
	out := NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			best := math.NaN()
			for dr := -halfWidthCells; dr <= halfWidthCells; dr++ {
				for dc := -halfWidthCells; dc <= halfWidthCells; dc++ {
					rr, cc := r+dr, c+dc
					if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
						continue
					}
					v := g.At(rr, cc)
					if math.IsNaN(v) {
						continue
					}
					if math.IsNaN(best) || v > best {
						best = v
					}
				}
			}
			out.Set(r, c, best)
		}
	}
	return out, nil
}
