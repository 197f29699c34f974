package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGridFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// ---------------------------------------------------------------------------

func TestReadGridFile(t *testing.T) {
	t.Parallel()

	path := writeGridFile(t, `# valid_time=1516860600
# nw_lat=35.0
# nw_lng=95.0
# lat_spacing=0.01
# lng_spacing=0.02
# source=unit test
1.0, 2.0, nan
4.0, , 6.0
`)

	gf, err := ReadGridFile(path)
	require.NoError(t, err)

	assert.Equal(t, int64(1516860600), gf.TimeUnix)
	assert.Equal(t, 35.0, gf.Metadata.NWLatDeg)
	assert.Equal(t, 95.0, gf.Metadata.NWLngDeg)
	assert.Equal(t, 0.01, gf.Metadata.LatSpacingDeg)
	assert.Equal(t, 0.02, gf.Metadata.LngSpacingDeg)

	rows, cols := gf.Grid.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 3, cols)

	assert.Equal(t, 1.0, gf.Grid.At(0, 0))
	assert.Equal(t, 2.0, gf.Grid.At(0, 1))
	assert.True(t, math.IsNaN(gf.Grid.At(0, 2)))
	assert.Equal(t, 4.0, gf.Grid.At(1, 0))
	assert.True(t, math.IsNaN(gf.Grid.At(1, 1)))
	assert.Equal(t, 6.0, gf.Grid.At(1, 2))
}

func TestReadGridFileErrors(t *testing.T) {
	t.Parallel()

	header := `# valid_time=1516860600
# nw_lat=35.0
# nw_lng=95.0
# lat_spacing=0.01
# lng_spacing=0.02
`

	cases := []struct {
		name     string
		contents string
	}{
		{"missing file is an error", ""},
		{"no grid rows", header},
		{
			"missing valid_time header",
			"# nw_lat=35.0\n# nw_lng=95.0\n# lat_spacing=0.01\n# lng_spacing=0.02\n1.0,2.0\n",
		},
		{
			"missing grid metadata",
			"# valid_time=1516860600\n1.0,2.0\n",
		},
		{
			"ragged rows",
			header + "1.0,2.0,3.0\n4.0,5.0\n",
		},
		{
			"bad grid value",
			header + "1.0,storm\n",
		},
		{
			"bad header value",
			"# valid_time=yesterday\n" + header + "1.0,2.0\n",
		},
		{
			"header without key=value",
			"# just a note\n" + header + "1.0,2.0\n",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var path string
			if tc.contents == "" {
				path = filepath.Join(t.TempDir(), "absent.csv")
			} else {
				path = writeGridFile(t, tc.contents)
			}

			_, err := ReadGridFile(path)
			assert.Error(t, err)
		})
	}
}
