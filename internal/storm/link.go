package storm

import (
	"fmt"
	"math"
)

// LinkAcrossTime matches each maximum at the current time to at most one
// maximum at the previous time. A candidate link implies a storm speed of
// distance over elapsed time; each current maximum takes the previous
// maximum that implies the lowest speed, and links implying a speed above
// maxLinkSpeedMS are rejected. When several current maxima claim the same
// previous maximum, only the one with the lowest implied speed keeps the
// link, so the result is one-to-one.
//
// The returned slice has one entry per current maximum: the index into
// previous.Maxima, or Unlinked. previous may be nil at the start of a
// tracking period.
func LinkAcrossTime(current, previous *Snapshot, maxLinkTimeSeconds int64, maxLinkSpeedMS float64) ([]int, error) {
	if maxLinkTimeSeconds <= 0 {
		return nil, fmt.Errorf("maximum link time must be positive, got %d", maxLinkTimeSeconds)
	}
	if maxLinkSpeedMS <= 0 {
		return nil, fmt.Errorf("maximum link speed must be positive, got %v", maxLinkSpeedMS)
	}

	links := make([]int, len(current.Maxima))
	for i := range links {
		links[i] = Unlinked
	}
	if previous == nil || len(previous.Maxima) == 0 || len(current.Maxima) == 0 {
		return links, nil
	}

	timeDiff := current.ValidTimeUnix - previous.ValidTimeUnix
	if timeDiff <= 0 {
		return nil, fmt.Errorf("current time %d not after previous time %d", current.ValidTimeUnix, previous.ValidTimeUnix)
	}
	if timeDiff > maxLinkTimeSeconds {
		return links, nil
	}

	speeds := make([]float64, len(current.Maxima))
	for i, cur := range current.Maxima {
		best := math.Inf(1)
		bestJ := Unlinked
		for j, prev := range previous.Maxima {
			speed := distanceMetres(cur, prev) / float64(timeDiff)
			if speed < best {
				best = speed
				bestJ = j
			}
		}
		if best > maxLinkSpeedMS {
			continue
		}
		links[i] = bestJ
		speeds[i] = best
	}

	// Resolve contention for each previous maximum in favour of the
	// slowest implied motion.
	claimants := make(map[int][]int)
	for i, j := range links {
		if j != Unlinked {
			claimants[j] = append(claimants[j], i)
		}
	}
	for _, is := range claimants {
		if len(is) < 2 {
			continue
		}
		winner := is[0]
		for _, i := range is[1:] {
			if speeds[i] < speeds[winner] {
				winner = i
			}
		}
		for _, i := range is {
			if i != winner {
				links[i] = Unlinked
			}
		}
	}
	return links, nil
}
