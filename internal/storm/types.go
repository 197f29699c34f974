package storm

import (
	"fmt"
	"sort"
)

// Unlinked marks a maximum with no predecessor in the previous snapshot.
const Unlinked = -1

// GridMetadata locates a radar grid on the globe. Row 0 / column 0 is the
// northwest corner; latitude decreases with row index and longitude
// increases with column index.
type GridMetadata struct {
	NWLatDeg      float64
	NWLngDeg      float64
	LatSpacingDeg float64
	LngSpacingDeg float64
}

// Validate rejects non-positive grid spacings.
func (m GridMetadata) Validate() error {
	if m.LatSpacingDeg <= 0 {
		return fmt.Errorf("latitude spacing must be positive, got %v", m.LatSpacingDeg)
	}
	if m.LngSpacingDeg <= 0 {
		return fmt.Errorf("longitude spacing must be positive, got %v", m.LngSpacingDeg)
	}
	return nil
}

// LatLngAt returns the geographic position of grid cell (row, col).
func (m GridMetadata) LatLngAt(row, col int) (latDeg, lngDeg float64) {
	return m.NWLatDeg - float64(row)*m.LatSpacingDeg,
		m.NWLngDeg + float64(col)*m.LngSpacingDeg
}

// LocalMaximum is one detected maximum of the tracked field at one time.
// XMetres/YMetres are filled by the deduplicator (which projects all
// maxima); they are required before temporal linking.
type LocalMaximum struct {
	LatDeg  float64
	LngDeg  float64
	XMetres float64
	YMetres float64
	Value   float64

	// GridPointRows lists the grid rows of the supporting polygon, when
	// polygon-based size filtering is in use. Nil when unavailable.
	GridPointRows []int
}

// Snapshot holds all maxima detected at one valid time, plus the linkage
// result against the previous snapshot once LinkAcrossTime has run.
type Snapshot struct {
	ValidTimeUnix int64
	Maxima        []LocalMaximum

	// CurrentToPrev[i] is the index into the previous snapshot's maxima
	// to which maximum i is linked, or Unlinked. Non-negative entries are
	// unique (one-to-one linkage).
	CurrentToPrev []int

	// StormIDs[i] is the track identifier assigned to maximum i by the
	// assembler.
	StormIDs []string
}

// StormObject is one row of the assembled output table: one maximum
// tagged with its track identity. Immutable after assembly except that
// StormID may be rewritten when tracks are merged during reanalysis.
type StormObject struct {
	StormID         string
	ValidTimeUnix   int64
	SpcDateUnix     int64
	CentroidLatDeg  float64
	CentroidLngDeg  float64
	CentroidXMetres float64
	CentroidYMetres float64
}

// StormTrack summarises all objects sharing one storm ID: the first and
// last observed positions and times. Derived entirely from an ObjectTable.
type StormTrack struct {
	StormID       string
	StartTimeUnix int64
	EndTimeUnix   int64
	StartLatDeg   float64
	EndLatDeg     float64
	StartLngDeg   float64
	EndLngDeg     float64
}

// ObjectTable is an ordered collection of storm objects with a secondary
// index by storm ID, so reanalysis can relabel a track's rows without a
// full-table scan. Row order is preserved across all operations.
//
// Not safe for concurrent mutation; callers reanalysing independent
// periods concurrently must use one table per period.
type ObjectTable struct {
	objects []StormObject
	byID    map[string][]int
}

// NewObjectTable builds a table over the given rows. The slice is owned by
// the table afterwards.
func NewObjectTable(objects []StormObject) *ObjectTable {
	t := &ObjectTable{objects: objects}
	t.rebuildIndex()
	return t
}

func (t *ObjectTable) rebuildIndex() {
	t.byID = make(map[string][]int, len(t.objects))
	for i := range t.objects {
		id := t.objects[i].StormID
		t.byID[id] = append(t.byID[id], i)
	}
}

// Len returns the number of storm objects.
func (t *ObjectTable) Len() int {
	return len(t.objects)
}

// Objects returns the rows in original order. Callers must not reorder
// the returned slice.
func (t *ObjectTable) Objects() []StormObject {
	return t.objects
}

// RowsWithID returns the row indices carrying the given storm ID, in
// ascending order, or nil if the ID is absent.
func (t *ObjectTable) RowsWithID(stormID string) []int {
	return t.byID[stormID]
}

// UniqueIDs returns all distinct storm IDs in lexicographic order.
func (t *ObjectTable) UniqueIDs() []string {
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Relabel rewrites every row carrying oldID to newID and returns the
// number of rows changed. No-op (returning 0) when oldID is absent.
func (t *ObjectTable) Relabel(oldID, newID string) int {
	rows := t.byID[oldID]
	if len(rows) == 0 || oldID == newID {
		return 0
	}
	for _, i := range rows {
		t.objects[i].StormID = newID
	}
	merged := append(t.byID[newID], rows...)
	sort.Ints(merged)
	t.byID[newID] = merged
	delete(t.byID, oldID)
	return len(rows)
}
