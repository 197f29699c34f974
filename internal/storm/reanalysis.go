package storm

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/stormtrack/internal/geo"
)

// TracksFromObjects summarises an object table into one track per storm
// ID, ordered lexicographically by ID. A track's start and end are the
// storm's earliest- and latest-observed rows (first occurrence wins a
// time tie).
func TracksFromObjects(table *ObjectTable) []StormTrack {
	ids := table.UniqueIDs()
	tracks := make([]StormTrack, len(ids))
	for i, id := range ids {
		tracks[i] = trackForID(table, id)
	}
	return tracks
}

func trackForID(table *ObjectTable, stormID string) StormTrack {
	rows := table.RowsWithID(stormID)
	objects := table.Objects()
	first, last := rows[0], rows[0]
	for _, r := range rows[1:] {
		if objects[r].ValidTimeUnix < objects[first].ValidTimeUnix {
			first = r
		}
		if objects[r].ValidTimeUnix > objects[last].ValidTimeUnix {
			last = r
		}
	}
	return StormTrack{
		StormID:       stormID,
		StartTimeUnix: objects[first].ValidTimeUnix,
		EndTimeUnix:   objects[last].ValidTimeUnix,
		StartLatDeg:   objects[first].CentroidLatDeg,
		EndLatDeg:     objects[last].CentroidLatDeg,
		StartLngDeg:   objects[first].CentroidLngDeg,
		EndLngDeg:     objects[last].CentroidLngDeg,
	}
}

// RecomputeTrackForID refreshes the summary row for one storm ID in
// place, after its object rows have changed. Returns an error when the
// ID has no track row.
func RecomputeTrackForID(tracks []StormTrack, table *ObjectTable, stormID string) error {
	for i := range tracks {
		if tracks[i].StormID == stormID {
			tracks[i] = trackForID(table, stormID)
			return nil
		}
	}
	return fmt.Errorf("no track with storm ID %q", stormID)
}

// ExtrapolationError measures how badly the early track predicts the
// late track's first position. The early track's mean velocity, in
// degrees per second, is extrapolated across the gap between the early
// track's end and the late track's start; the result is the
// great-circle distance in metres between the extrapolated position and
// the late track's actual start. A zero-duration early track is treated
// as stationary.
func ExtrapolationError(early, late StormTrack) float64 {
	duration := early.EndTimeUnix - early.StartTimeUnix
	var latVelocity, lngVelocity float64
	if duration > 0 {
		latVelocity = (early.EndLatDeg - early.StartLatDeg) / float64(duration)
		lngVelocity = (early.EndLngDeg - early.StartLngDeg) / float64(duration)
	}
	gap := float64(late.StartTimeUnix - early.EndTimeUnix)
	extrapLat := early.EndLatDeg + latVelocity*gap
	extrapLng := early.EndLngDeg + lngVelocity*gap
	return geo.GreatCircleMetres(extrapLat, extrapLng, late.StartLatDeg, late.StartLngDeg)
}

// FindNearbyTracks returns the indices of tracks that plausibly continue
// into tracks[lateIndex]: tracks ending before the late track starts,
// within maxTimeDiffSeconds, whose extrapolation error divided by the
// time gap stays within maxErrorSpeedMS. Indices are ordered by
// ascending extrapolation error. Returns nil when no candidate fits.
func FindNearbyTracks(tracks []StormTrack, lateIndex int, maxTimeDiffSeconds int64, maxErrorSpeedMS float64) []int {
	late := tracks[lateIndex]
	type candidate struct {
		index int
		err   float64
	}
	var candidates []candidate
	for j := range tracks {
		if j == lateIndex {
			continue
		}
		gap := late.StartTimeUnix - tracks[j].EndTimeUnix
		if gap <= 0 || gap > maxTimeDiffSeconds {
			continue
		}
		err := ExtrapolationError(tracks[j], late)
		if err/float64(gap) > maxErrorSpeedMS {
			continue
		}
		candidates = append(candidates, candidate{index: j, err: err})
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].err < candidates[b].err
	})
	indices := make([]int, len(candidates))
	for i, c := range candidates {
		indices[i] = c.index
	}
	return indices
}

// ReanalyzeTracks merges broken tracks within one object table. For each
// track, any earlier track that ends shortly before it starts and
// extrapolates onto its start position is absorbed: the earlier track's
// objects take the later track's ID, and the merged track is summarised
// again before looking for further predecessors. Merging is transitive,
// so a storm split into three fragments collapses into one ID, and the
// operation is idempotent. Returns the updated track summaries.
func ReanalyzeTracks(table *ObjectTable, maxJoinTimeSeconds int64, maxJoinErrorSpeedMS float64) ([]StormTrack, error) {
	if maxJoinTimeSeconds <= 0 {
		return nil, fmt.Errorf("maximum join time must be positive, got %d", maxJoinTimeSeconds)
	}
	if maxJoinErrorSpeedMS <= 0 {
		return nil, fmt.Errorf("maximum join error speed must be positive, got %v", maxJoinErrorSpeedMS)
	}

	tracks := TracksFromObjects(table)
	for i := 0; i < len(tracks); i++ {
		for {
			nearby := FindNearbyTracks(tracks, i, maxJoinTimeSeconds, maxJoinErrorSpeedMS)
			if nearby == nil {
				break
			}
			j := nearby[0]
			table.Relabel(tracks[j].StormID, tracks[i].StormID)
			tracks = append(tracks[:j], tracks[j+1:]...)
			if j < i {
				i--
			}
			if err := RecomputeTrackForID(tracks, table, tracks[i].StormID); err != nil {
				return nil, err
			}
		}
	}
	return tracks, nil
}

// JoinTracksBetweenPeriods stitches tracks across the boundary between
// two consecutively tracked periods. Each late-period track is matched
// to the unclaimed early-period track with the smallest extrapolation
// error, subject to the gap being within maxLinkTimeSeconds and the
// error divided by the gap within maxLinkSpeedMS; on a match the late
// track's objects are relabelled with the early track's ID. Each early
// track continues into at most one late track.
func JoinTracksBetweenPeriods(earlyTable, lateTable *ObjectTable, maxLinkTimeSeconds int64, maxLinkSpeedMS float64) error {
	if maxLinkTimeSeconds <= 0 {
		return fmt.Errorf("maximum link time must be positive, got %d", maxLinkTimeSeconds)
	}
	if maxLinkSpeedMS <= 0 {
		return fmt.Errorf("maximum link speed must be positive, got %v", maxLinkSpeedMS)
	}

	earlyTracks := TracksFromObjects(earlyTable)
	lateTracks := TracksFromObjects(lateTable)
	claimed := make([]bool, len(earlyTracks))

	for _, late := range lateTracks {
		bestErr := math.Inf(1)
		bestJ := -1
		for j, early := range earlyTracks {
			if claimed[j] {
				continue
			}
			gap := late.StartTimeUnix - early.EndTimeUnix
			if gap <= 0 || gap > maxLinkTimeSeconds {
				continue
			}
			err := ExtrapolationError(early, late)
			if err/float64(gap) > maxLinkSpeedMS {
				continue
			}
			if err < bestErr {
				bestErr = err
				bestJ = j
			}
		}
		if bestJ == -1 {
			continue
		}
		claimed[bestJ] = true
		lateTable.Relabel(late.StormID, earlyTracks[bestJ].StormID)
	}
	return nil
}
