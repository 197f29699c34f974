package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpcDateString(t *testing.T) {
	t.Parallel()

	// 0615 UTC 25 Jan 2018 is before 1200 UTC, so it belongs to the
	// 24 Jan SPC date.
	assert.Equal(t, "20180124", SpcDateString(1516860900))

	// 1200 UTC 25 Jan 2018 starts the 25 Jan SPC date.
	noon := time.Date(2018, 1, 25, 12, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, "20180125", SpcDateString(noon))
	assert.Equal(t, "20180124", SpcDateString(noon-1))
}

func TestSpcDateStringToUnix(t *testing.T) {
	t.Parallel()

	got, err := SpcDateStringToUnix("20180124")
	require.NoError(t, err)
	want := time.Date(2018, 1, 24, 12, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, want, got)

	_, err = SpcDateStringToUnix("not-a-date")
	assert.Error(t, err)
}

func TestSpcDateUnix(t *testing.T) {
	t.Parallel()

	want := time.Date(2018, 1, 24, 12, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, want, SpcDateUnix(1516860900))

	// Start of the window maps to itself.
	assert.Equal(t, want, SpcDateUnix(want))
}

func TestIsTimeInSpcDate(t *testing.T) {
	t.Parallel()

	start := time.Date(2018, 1, 24, 12, 0, 0, 0, time.UTC).Unix()

	in, err := IsTimeInSpcDate(start, "20180124")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = IsTimeInSpcDate(start+SecondsPerSpcDate-1, "20180124")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = IsTimeInSpcDate(start+SecondsPerSpcDate, "20180124")
	require.NoError(t, err)
	assert.False(t, in)

	in, err = IsTimeInSpcDate(start-1, "20180124")
	require.NoError(t, err)
	assert.False(t, in)
}

func TestMockClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2018, 1, 24, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	assert.Equal(t, start, clock.Now())

	clock.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), clock.Now())
	assert.Equal(t, time.Minute, clock.Since(start))
}
