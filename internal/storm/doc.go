// Package storm implements the storm-tracking engine: local-maximum
// detection on gridded echo-top fields, spatial deduplication, temporal
// linkage, track assembly with persistent storm identifiers, short-track
// pruning, and track reanalysis/joining.
//
// Responsibilities end at in-memory record tables. Reading radar grids
// from disk and persisting storm-object tables belong to callers (see
// cmd/stormtrack and internal/storm/storage).
//
// Time steps must be fed in increasing time order; the linker and the
// assembler carry state from each step to the next.
package storm
