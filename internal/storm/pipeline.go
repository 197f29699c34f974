package storm

import (
	"fmt"

	"github.com/banshee-data/stormtrack/internal/geo"
)

// Params bundles every tunable of the tracking pipeline.
type Params struct {
	// Detection.
	MinValue            float64 // echo-top values below this are ignored (km)
	EFoldingRadiusCells float64 // Gaussian smoothing e-folding radius (grid cells)
	CutoffRadiusCells   float64 // smoothing kernel cutoff; 0 means 3 e-folding radii
	HalfWidthCells      int     // neighbourhood half-width for the maximum filter
	MinSeparationMetres float64 // spatial dedup threshold

	// Linking.
	MaxLinkTimeSeconds int64   // maximum gap between linked snapshots
	MaxLinkSpeedMS     float64 // maximum implied storm speed for a link

	// Pruning.
	MinDurationSeconds int64 // tracks shorter than this are discarded

	// Projection origin for the local x/y plane.
	CentralLatDeg float64
	CentralLngDeg float64
}

// DefaultParams returns the parameters tuned for 5-minute echo-top
// grids at roughly 0.01 degree resolution.
func DefaultParams() Params {
	return Params{
		MinValue:            4,
		EFoldingRadiusCells: 1.2,
		CutoffRadiusCells:   0,
		HalfWidthCells:      3,
		MinSeparationMetres: 0.1 * geo.DegreesLatToMetres,
		MaxLinkTimeSeconds:  300,
		MaxLinkSpeedMS:      50,
		MinDurationSeconds:  900,
		CentralLatDeg:       35,
		CentralLngDeg:       265,
	}
}

// Validate rejects parameters the pipeline cannot run with.
func (p Params) Validate() error {
	if p.EFoldingRadiusCells <= 0 {
		return fmt.Errorf("e-folding radius must be positive, got %v", p.EFoldingRadiusCells)
	}
	if p.HalfWidthCells < 1 {
		return fmt.Errorf("neighbourhood half-width must be at least 1, got %d", p.HalfWidthCells)
	}
	if p.MinSeparationMetres <= 0 {
		return fmt.Errorf("minimum separation must be positive, got %v", p.MinSeparationMetres)
	}
	if p.MaxLinkTimeSeconds <= 0 {
		return fmt.Errorf("maximum link time must be positive, got %d", p.MaxLinkTimeSeconds)
	}
	if p.MaxLinkSpeedMS <= 0 {
		return fmt.Errorf("maximum link speed must be positive, got %v", p.MaxLinkSpeedMS)
	}
	if p.MinDurationSeconds < 0 {
		return fmt.Errorf("minimum duration must be non-negative, got %d", p.MinDurationSeconds)
	}
	return nil
}

// Tracker runs the full tracking pipeline over a time-ordered stream of
// echo-top grids: detect maxima, deduplicate, link against the previous
// snapshot, and assemble storm objects. Feed grids with ProcessGrid and
// collect the pruned object table with Finish.
//
// Not safe for concurrent use.
type Tracker struct {
	params    Params
	projector geo.Projector
	assembler *Assembler
	prev      *Snapshot
	objects   []StormObject
}

// NewTracker returns a tracker with no history. Returns an error when
// the parameters are invalid.
func NewTracker(params Params) (*Tracker, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	projector, err := geo.NewAzimuthalEquidistant(params.CentralLatDeg, params.CentralLngDeg)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		params:    params,
		projector: projector,
		assembler: NewAssembler(),
	}, nil
}

// ProcessGrid ingests one echo-top grid, returning the storm objects
// detected at that time. Grids must arrive in strictly increasing time
// order. The grid is modified in place (weak values are masked).
func (t *Tracker) ProcessGrid(g *Grid, meta GridMetadata, validTimeUnix int64) ([]StormObject, error) {
	g.MaskBelow(t.params.MinValue)

	smoothed, err := GaussianSmooth(g, t.params.EFoldingRadiusCells, t.params.CutoffRadiusCells)
	if err != nil {
		return nil, fmt.Errorf("smoothing grid at %d: %w", validTimeUnix, err)
	}
	maxima, err := FindLocalMaxima(smoothed, meta, t.params.HalfWidthCells)
	if err != nil {
		return nil, fmt.Errorf("finding maxima at %d: %w", validTimeUnix, err)
	}
	maxima, err = RemoveRedundantMaxima(maxima, t.projector, t.params.MinSeparationMetres)
	if err != nil {
		return nil, fmt.Errorf("deduplicating maxima at %d: %w", validTimeUnix, err)
	}

	snapshot := &Snapshot{ValidTimeUnix: validTimeUnix, Maxima: maxima}
	links, err := LinkAcrossTime(snapshot, t.prev, t.params.MaxLinkTimeSeconds, t.params.MaxLinkSpeedMS)
	if err != nil {
		return nil, fmt.Errorf("linking snapshot at %d: %w", validTimeUnix, err)
	}
	snapshot.CurrentToPrev = links

	objects, err := t.assembler.Append(snapshot)
	if err != nil {
		return nil, fmt.Errorf("assembling storms at %d: %w", validTimeUnix, err)
	}
	t.prev = snapshot
	t.objects = append(t.objects, objects...)
	return objects, nil
}

// Finish prunes short-lived storms and returns the assembled object
// table for the whole period. The tracker can keep processing grids
// afterwards; Finish snapshots the objects seen so far.
func (t *Tracker) Finish() *ObjectTable {
	table := NewObjectTable(append([]StormObject(nil), t.objects...))
	return PruneShortTracks(table, t.params.MinDurationSeconds)
}
