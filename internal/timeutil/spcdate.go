package timeutil

import (
	"fmt"
	"time"
)

// SpcDateFormat is the calendar layout of an SPC date string.
const SpcDateFormat = "20060102"

// spcDayStartOffsetSeconds is how far past 0000 UTC an SPC date begins.
const spcDayStartOffsetSeconds = 12 * 3600

// SecondsPerSpcDate is the length of one SPC date window.
const SecondsPerSpcDate = 24 * 3600

// SpcDateString returns the SPC date containing the given Unix time, as a
// "yyyymmdd" string. Because SPC dates run 1200-1200 UTC, times before
// 1200 UTC belong to the previous calendar day's SPC date.
func SpcDateString(unixSec int64) string {
	shifted := time.Unix(unixSec-spcDayStartOffsetSeconds, 0).UTC()
	return shifted.Format(SpcDateFormat)
}

// SpcDateStringToUnix returns the Unix time at which the given SPC date
// begins (1200 UTC on its calendar day).
func SpcDateStringToUnix(spcDate string) (int64, error) {
	t, err := time.ParseInLocation(SpcDateFormat, spcDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse SPC date %q: %w", spcDate, err)
	}
	return t.Unix() + spcDayStartOffsetSeconds, nil
}

// SpcDateUnix returns the start time (1200 UTC) of the SPC date containing
// the given Unix time.
func SpcDateUnix(unixSec int64) int64 {
	start, err := SpcDateStringToUnix(SpcDateString(unixSec))
	if err != nil {
		// SpcDateString always produces a valid yyyymmdd string.
		panic(err)
	}
	return start
}

// IsTimeInSpcDate reports whether the given Unix time falls inside the
// 1200-1200 UTC window of the given SPC date.
func IsTimeInSpcDate(unixSec int64, spcDate string) (bool, error) {
	start, err := SpcDateStringToUnix(spcDate)
	if err != nil {
		return false, err
	}
	return unixSec >= start && unixSec < start+SecondsPerSpcDate, nil
}
