package storm

// PruneShortTracks removes every storm whose observed lifetime, last
// valid time minus first, is below minDurationSeconds. Surviving rows
// keep their original order. A storm seen only once has zero duration
// and is pruned by any positive threshold.
func PruneShortTracks(table *ObjectTable, minDurationSeconds int64) *ObjectTable {
	type span struct {
		min, max int64
	}
	spans := make(map[string]span, len(table.byID))
	for _, obj := range table.Objects() {
		s, ok := spans[obj.StormID]
		if !ok {
			spans[obj.StormID] = span{min: obj.ValidTimeUnix, max: obj.ValidTimeUnix}
			continue
		}
		if obj.ValidTimeUnix < s.min {
			s.min = obj.ValidTimeUnix
		}
		if obj.ValidTimeUnix > s.max {
			s.max = obj.ValidTimeUnix
		}
		spans[obj.StormID] = s
	}

	kept := make([]StormObject, 0, table.Len())
	for _, obj := range table.Objects() {
		s := spans[obj.StormID]
		if s.max-s.min >= minDurationSeconds {
			kept = append(kept, obj)
		}
	}
	return NewObjectTable(kept)
}
