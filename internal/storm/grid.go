package storm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Grid is a dense 2-D field of echo-top values in row-major layout.
// Missing observations are stored as NaN and are carried through
// smoothing and dilation without contaminating neighbouring cells.
type Grid struct {
	data *mat.Dense
}

// NewGrid allocates a rows×cols grid filled with NaN.
func NewGrid(rows, cols int) *Grid {
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = math.NaN()
	}
	return &Grid{data: mat.NewDense(rows, cols, values)}
}

// NewGridFromValues wraps a row-major value slice. The slice is owned by
// the grid afterwards. Returns an error when the length does not match.
func NewGridFromValues(rows, cols int, values []float64) (*Grid, error) {
	if len(values) != rows*cols {
		return nil, fmt.Errorf("grid values length %d does not match %dx%d", len(values), rows, cols)
	}
	return &Grid{data: mat.NewDense(rows, cols, values)}, nil
}

// Dims returns the grid dimensions.
func (g *Grid) Dims() (rows, cols int) {
	return g.data.Dims()
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) float64 {
	return g.data.At(row, col)
}

// Set stores a value at (row, col).
func (g *Grid) Set(row, col int, v float64) {
	g.data.Set(row, col, v)
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	return &Grid{data: mat.DenseCopyOf(g.data)}
}

// MaskBelow replaces every value strictly below minValue with NaN. Cells
// already NaN are untouched. The detector uses this to ignore weak echo
// tops before searching for maxima.
func (g *Grid) MaskBelow(minValue float64) {
	rows, cols := g.data.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if g.data.At(r, c) < minValue {
				g.data.Set(r, c, math.NaN())
			}
		}
	}
}

// GridPointsInRadius returns the (row, col) indices of every cell whose
// coordinate lies within radius of the query point, scanning in row-major
// order. xCoords and yCoords give the x and y coordinate of each cell and
// must have identical dimensions.
func GridPointsInRadius(xCoords, yCoords *Grid, xQuery, yQuery, radius float64) (rows, cols []int, err error) {
	xr, xc := xCoords.Dims()
	yr, yc := yCoords.Dims()
	if xr != yr || xc != yc {
		return nil, nil, fmt.Errorf("coordinate grids differ in shape: %dx%d vs %dx%d", xr, xc, yr, yc)
	}
	if radius < 0 {
		return nil, nil, fmt.Errorf("radius must be non-negative, got %v", radius)
	}
	r2 := radius * radius
	for r := 0; r < xr; r++ {
		for c := 0; c < xc; c++ {
			dx := xCoords.At(r, c) - xQuery
			dy := yCoords.At(r, c) - yQuery
			if dx*dx+dy*dy <= r2 {
				rows = append(rows, r)
				cols = append(cols, c)
			}
		}
	}
	return rows, cols, nil
}
