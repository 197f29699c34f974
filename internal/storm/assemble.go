package storm

import (
	"fmt"

	"github.com/banshee-data/stormtrack/internal/timeutil"
)

// NewStormID mints a track identifier for a storm first observed at the
// given time. Identifiers are NNNNNN_YYYYMMDD, where the date is the SPC
// convective day and the numeric part counts storms born that day.
// prevNumericID and prevSpcDate carry the assembler's state: the last
// numeric ID issued and the SPC date it was issued under (use -1 and an
// impossible date before the first storm).
func NewStormID(validTimeUnix int64, prevNumericID int, prevSpcDate string) (id string, numericID int, spcDate string) {
	spcDate = timeutil.SpcDateString(validTimeUnix)
	if spcDate == prevSpcDate {
		numericID = prevNumericID + 1
	} else {
		numericID = 0
	}
	return fmt.Sprintf("%06d_%s", numericID, spcDate), numericID, spcDate
}

// Assembler converts a time-ordered stream of linked snapshots into
// storm objects, issuing a fresh ID whenever a maximum has no
// predecessor and propagating the predecessor's ID otherwise.
type Assembler struct {
	prevSnapshot  *Snapshot
	prevNumericID int
	prevSpcDate   string
	lastTimeUnix  int64
	started       bool
}

// NewAssembler returns an assembler with no storms issued yet.
func NewAssembler() *Assembler {
	return &Assembler{
		prevNumericID: -1,
		prevSpcDate:   "00000101",
	}
}

// Append assigns a storm ID to every maximum in the snapshot and returns
// the resulting objects. snapshot.CurrentToPrev must already be filled by
// LinkAcrossTime against the previously appended snapshot. Snapshots must
// arrive in strictly non-decreasing time order.
//
// Panics if a link points outside the previous snapshot: that can only
// happen when the linkage was computed against a different snapshot than
// the one last appended.
func (a *Assembler) Append(snapshot *Snapshot) ([]StormObject, error) {
	if a.started && snapshot.ValidTimeUnix < a.lastTimeUnix {
		return nil, fmt.Errorf("snapshot at %d arrived after snapshot at %d", snapshot.ValidTimeUnix, a.lastTimeUnix)
	}
	if len(snapshot.CurrentToPrev) != len(snapshot.Maxima) {
		return nil, fmt.Errorf("linkage has %d entries for %d maxima", len(snapshot.CurrentToPrev), len(snapshot.Maxima))
	}

	snapshot.StormIDs = make([]string, len(snapshot.Maxima))
	objects := make([]StormObject, len(snapshot.Maxima))
	spcDateUnix := timeutil.SpcDateUnix(snapshot.ValidTimeUnix)

	for i, m := range snapshot.Maxima {
		prev := snapshot.CurrentToPrev[i]
		var id string
		if prev == Unlinked {
			id, a.prevNumericID, a.prevSpcDate = NewStormID(snapshot.ValidTimeUnix, a.prevNumericID, a.prevSpcDate)
		} else {
			if a.prevSnapshot == nil || prev < 0 || prev >= len(a.prevSnapshot.Maxima) {
				panic(fmt.Sprintf("link target %d outside previous snapshot", prev))
			}
			id = a.prevSnapshot.StormIDs[prev]
		}
		snapshot.StormIDs[i] = id
		objects[i] = StormObject{
			StormID:         id,
			ValidTimeUnix:   snapshot.ValidTimeUnix,
			SpcDateUnix:     spcDateUnix,
			CentroidLatDeg:  m.LatDeg,
			CentroidLngDeg:  m.LngDeg,
			CentroidXMetres: m.XMetres,
			CentroidYMetres: m.YMetres,
		}
	}

	a.prevSnapshot = snapshot
	a.lastTimeUnix = snapshot.ValidTimeUnix
	a.started = true
	return objects, nil
}
