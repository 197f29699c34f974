package storm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Dilate
// ---------------------------------------------------------------------------

func TestDilate(t *testing.T) {
	t.Parallel()

	t.Run("takes window maximum", func(t *testing.T) {
		t.Parallel()
		g, err := NewGridFromValues(3, 3, []float64{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		})
		require.NoError(t, err)

		dilated, err := Dilate(g, 1)
		require.NoError(t, err)
		assert.Equal(t, 5.0, dilated.At(0, 0))
		assert.Equal(t, 6.0, dilated.At(0, 1))
		assert.Equal(t, 9.0, dilated.At(1, 1))
		assert.Equal(t, 9.0, dilated.At(2, 2))
	})

	t.Run("NaN never wins", func(t *testing.T) {
		t.Parallel()
		nan := math.NaN()
		g, err := NewGridFromValues(2, 3, []float64{
			nan, 2, nan,
			nan, nan, 1,
		})
		require.NoError(t, err)

		dilated, err := Dilate(g, 1)
		require.NoError(t, err)
		assert.Equal(t, 2.0, dilated.At(0, 0))
		assert.Equal(t, 2.0, dilated.At(1, 1))
	})

	t.Run("all-NaN window yields NaN", func(t *testing.T) {
		t.Parallel()
		nan := math.NaN()
		g, err := NewGridFromValues(1, 4, []float64{nan, nan, nan, 5})
		require.NoError(t, err)

		dilated, err := Dilate(g, 1)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(dilated.At(0, 0)))
		assert.Equal(t, 5.0, dilated.At(0, 2))
	})

	t.Run("rejects half-width below one", func(t *testing.T) {
		t.Parallel()
		_, err := Dilate(NewGrid(2, 2), 0)
		assert.Error(t, err)
	})
}
