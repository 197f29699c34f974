package storm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// NewStormID
// ---------------------------------------------------------------------------

func TestNewStormID(t *testing.T) {
	t.Parallel()

	const stormTimeUnix = 1516860900 // 0615 UTC 25 Jan 2018

	t.Run("first storm of a new SPC date", func(t *testing.T) {
		t.Parallel()
		id, numericID, spcDate := NewStormID(stormTimeUnix, 0, "20180123")
		assert.Equal(t, "000000_20180124", id)
		assert.Equal(t, 0, numericID)
		assert.Equal(t, "20180124", spcDate)
	})

	t.Run("second storm of the same SPC date", func(t *testing.T) {
		t.Parallel()
		id, numericID, spcDate := NewStormID(stormTimeUnix, 0, "20180124")
		assert.Equal(t, "000001_20180124", id)
		assert.Equal(t, 1, numericID)
		assert.Equal(t, "20180124", spcDate)
	})
}

// ---------------------------------------------------------------------------
// Assembler
// ---------------------------------------------------------------------------

func TestAssembler(t *testing.T) {
	t.Parallel()

	// Start of the 20180124 SPC date (1200 UTC 24 Jan 2018).
	const spcDateStartUnix = 1516795200

	t.Run("assigns and propagates storm IDs", func(t *testing.T) {
		t.Parallel()
		maxima, err := RemoveRedundantMaxima(testMaxima(), testProjector(t), 1000)
		require.NoError(t, err)

		assembler := NewAssembler()
		first, err := assembler.Append(&Snapshot{
			ValidTimeUnix: linkPrevTimeUnix,
			Maxima:        maxima,
			CurrentToPrev: []int{Unlinked, Unlinked},
		})
		require.NoError(t, err)
		second, err := assembler.Append(&Snapshot{
			ValidTimeUnix: linkCurrentTimeUnix,
			Maxima:        maxima,
			CurrentToPrev: []int{0, 1},
		})
		require.NoError(t, err)

		require.Len(t, first, 2)
		require.Len(t, second, 2)
		assert.Equal(t, "000000_20180124", first[0].StormID)
		assert.Equal(t, "000001_20180124", first[1].StormID)
		assert.Equal(t, "000000_20180124", second[0].StormID)
		assert.Equal(t, "000001_20180124", second[1].StormID)

		for _, obj := range first {
			assert.Equal(t, int64(linkPrevTimeUnix), obj.ValidTimeUnix)
			assert.Equal(t, int64(spcDateStartUnix), obj.SpcDateUnix)
		}
		for i, obj := range second {
			assert.Equal(t, int64(linkCurrentTimeUnix), obj.ValidTimeUnix)
			assert.InDelta(t, maxima[i].LatDeg, obj.CentroidLatDeg, 1e-6)
			assert.InDelta(t, maxima[i].LngDeg, obj.CentroidLngDeg, 1e-6)
			assert.InDelta(t, maxima[i].XMetres, obj.CentroidXMetres, 1e-6)
			assert.InDelta(t, maxima[i].YMetres, obj.CentroidYMetres, 1e-6)
		}
	})

	t.Run("numbering restarts on a new SPC date", func(t *testing.T) {
		t.Parallel()
		assembler := NewAssembler()
		_, err := assembler.Append(&Snapshot{
			ValidTimeUnix: linkPrevTimeUnix,
			Maxima:        []LocalMaximum{{}, {}},
			CurrentToPrev: []int{Unlinked, Unlinked},
		})
		require.NoError(t, err)

		// Next convective day, no carried-over links.
		nextDay, err := assembler.Append(&Snapshot{
			ValidTimeUnix: linkPrevTimeUnix + 86400,
			Maxima:        []LocalMaximum{{}},
			CurrentToPrev: []int{Unlinked},
		})
		require.NoError(t, err)
		assert.Equal(t, "000000_20180125", nextDay[0].StormID)
	})

	t.Run("rejects decreasing time", func(t *testing.T) {
		t.Parallel()
		assembler := NewAssembler()
		_, err := assembler.Append(&Snapshot{
			ValidTimeUnix: linkCurrentTimeUnix,
			Maxima:        []LocalMaximum{{}},
			CurrentToPrev: []int{Unlinked},
		})
		require.NoError(t, err)

		_, err = assembler.Append(&Snapshot{
			ValidTimeUnix: linkPrevTimeUnix,
			Maxima:        []LocalMaximum{{}},
			CurrentToPrev: []int{Unlinked},
		})
		assert.Error(t, err)
	})

	t.Run("rejects mismatched linkage length", func(t *testing.T) {
		t.Parallel()
		assembler := NewAssembler()
		_, err := assembler.Append(&Snapshot{
			ValidTimeUnix: linkPrevTimeUnix,
			Maxima:        []LocalMaximum{{}, {}},
			CurrentToPrev: []int{Unlinked},
		})
		assert.Error(t, err)
	})

	t.Run("panics on link outside previous snapshot", func(t *testing.T) {
		t.Parallel()
		assembler := NewAssembler()
		_, err := assembler.Append(&Snapshot{
			ValidTimeUnix: linkPrevTimeUnix,
			Maxima:        []LocalMaximum{{}},
			CurrentToPrev: []int{Unlinked},
		})
		require.NoError(t, err)

		assert.Panics(t, func() {
			_, _ = assembler.Append(&Snapshot{
				ValidTimeUnix: linkCurrentTimeUnix,
				Maxima:        []LocalMaximum{{}},
				CurrentToPrev: []int{5},
			})
		})
	})
}
