// Package storage persists storm-tracking output: each tracking run is
// recorded with a unique ID, its storm objects, and its per-storm track
// summaries, so report tooling and reanalysis can load past runs.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/stormtrack/internal/db"
	"github.com/banshee-data/stormtrack/internal/storm"
	"github.com/banshee-data/stormtrack/internal/timeutil"
)

// RunStore reads and writes tracking runs in the SQLite database.
type RunStore struct {
	db    *db.DB
	clock timeutil.Clock
}

// NewRunStore wraps an open database.
func NewRunStore(database *db.DB) *RunStore {
	return &RunStore{db: database, clock: timeutil.RealClock{}}
}

// WithClock substitutes the clock used to timestamp runs.
func (s *RunStore) WithClock(clock timeutil.Clock) *RunStore {
	s.clock = clock
	return s
}

// CreateRun registers a new tracking run and returns its ID. The
// parameters are stored as JSON alongside the run so results stay
// reproducible.
func (s *RunStore) CreateRun(ctx context.Context, params storm.Params, description string) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal run params: %w", err)
	}

	runID := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tracking_runs (run_id, started_at, params_json, description)
		 VALUES (?, ?, ?, ?)`,
		runID, s.clock.Now().Unix(), string(paramsJSON), description,
	)
	if err != nil {
		return "", fmt.Errorf("insert tracking run: %w", err)
	}
	return runID, nil
}

// FinishRun records the completion time of a run.
func (s *RunStore) FinishRun(ctx context.Context, runID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tracking_runs SET finished_at = ? WHERE run_id = ?`,
		s.clock.Now().Unix(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if rows == 0 {
		return fmt.Errorf("no run with ID %s", runID)
	}
	return nil
}

// LatestRunID returns the most recently started run, so report tools
// can default to it when no run ID is given.
func (s *RunStore) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM tracking_runs ORDER BY started_at DESC, run_id DESC LIMIT 1`,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no tracking runs recorded")
	}
	if err != nil {
		return "", fmt.Errorf("load latest run: %w", err)
	}
	return runID, nil
}

// RunParams loads the parameters a run was executed with.
func (s *RunStore) RunParams(ctx context.Context, runID string) (storm.Params, error) {
	var paramsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT params_json FROM tracking_runs WHERE run_id = ?`, runID,
	).Scan(&paramsJSON)
	if err == sql.ErrNoRows {
		return storm.Params{}, fmt.Errorf("no run with ID %s", runID)
	}
	if err != nil {
		return storm.Params{}, fmt.Errorf("load run %s: %w", runID, err)
	}

	var params storm.Params
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return storm.Params{}, fmt.Errorf("unmarshal params for run %s: %w", runID, err)
	}
	return params, nil
}

// InsertObjects appends storm objects to a run inside one transaction.
func (s *RunStore) InsertObjects(ctx context.Context, runID string, objects []storm.StormObject) error {
	if len(objects) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert objects: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO storm_objects (
			run_id, storm_id, valid_time, spc_date,
			centroid_lat, centroid_lng, centroid_x_m, centroid_y_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert objects: %w", err)
	}
	defer stmt.Close()

	for _, obj := range objects {
		if _, err := stmt.ExecContext(ctx,
			runID, obj.StormID, obj.ValidTimeUnix, obj.SpcDateUnix,
			obj.CentroidLatDeg, obj.CentroidLngDeg,
			obj.CentroidXMetres, obj.CentroidYMetres,
		); err != nil {
			return fmt.Errorf("insert storm object %s: %w", obj.StormID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert objects: %w", err)
	}
	return nil
}

// LoadObjects reads back all storm objects of a run in insertion order.
func (s *RunStore) LoadObjects(ctx context.Context, runID string) (*storm.ObjectTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT storm_id, valid_time, spc_date,
		       centroid_lat, centroid_lng, centroid_x_m, centroid_y_m
		FROM storm_objects
		WHERE run_id = ?
		ORDER BY object_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load objects for run %s: %w", runID, err)
	}
	defer rows.Close()

	var objects []storm.StormObject
	for rows.Next() {
		var obj storm.StormObject
		if err := rows.Scan(
			&obj.StormID, &obj.ValidTimeUnix, &obj.SpcDateUnix,
			&obj.CentroidLatDeg, &obj.CentroidLngDeg,
			&obj.CentroidXMetres, &obj.CentroidYMetres,
		); err != nil {
			return nil, fmt.Errorf("scan storm object: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load objects for run %s: %w", runID, err)
	}

	return storm.NewObjectTable(objects), nil
}

// ReplaceObjects overwrites a run's storm objects, for writing back
// reanalysis results.
func (s *RunStore) ReplaceObjects(ctx context.Context, runID string, table *storm.ObjectTable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace objects: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM storm_objects WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear objects for run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO storm_objects (
			run_id, storm_id, valid_time, spc_date,
			centroid_lat, centroid_lng, centroid_x_m, centroid_y_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare replace objects: %w", err)
	}
	defer stmt.Close()

	for _, obj := range table.Objects() {
		if _, err := stmt.ExecContext(ctx,
			runID, obj.StormID, obj.ValidTimeUnix, obj.SpcDateUnix,
			obj.CentroidLatDeg, obj.CentroidLngDeg,
			obj.CentroidXMetres, obj.CentroidYMetres,
		); err != nil {
			return fmt.Errorf("insert storm object %s: %w", obj.StormID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace objects: %w", err)
	}
	return nil
}

// RelabelStorm rewrites a storm ID across a run's objects and returns
// the number of rows changed. Used when joining tracks across periods
// stored in separate runs.
func (s *RunStore) RelabelStorm(ctx context.Context, runID, oldID, newID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE storm_objects SET storm_id = ? WHERE run_id = ? AND storm_id = ?`,
		newID, runID, oldID,
	)
	if err != nil {
		return 0, fmt.Errorf("relabel storm %s to %s: %w", oldID, newID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("relabel storm %s to %s: %w", oldID, newID, err)
	}
	return rows, nil
}

// SaveTracks overwrites a run's track summaries.
func (s *RunStore) SaveTracks(ctx context.Context, runID string, tracks []storm.StormTrack) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tracks: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM storm_tracks WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear tracks for run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO storm_tracks (
			run_id, storm_id, start_time, end_time,
			start_lat, end_lat, start_lng, end_lng
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare save tracks: %w", err)
	}
	defer stmt.Close()

	for _, track := range tracks {
		if _, err := stmt.ExecContext(ctx,
			runID, track.StormID, track.StartTimeUnix, track.EndTimeUnix,
			track.StartLatDeg, track.EndLatDeg,
			track.StartLngDeg, track.EndLngDeg,
		); err != nil {
			return fmt.Errorf("insert track %s: %w", track.StormID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tracks: %w", err)
	}
	return nil
}

// LoadTracks reads back a run's track summaries ordered by storm ID.
func (s *RunStore) LoadTracks(ctx context.Context, runID string) ([]storm.StormTrack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT storm_id, start_time, end_time,
		       start_lat, end_lat, start_lng, end_lng
		FROM storm_tracks
		WHERE run_id = ?
		ORDER BY storm_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load tracks for run %s: %w", runID, err)
	}
	defer rows.Close()

	var tracks []storm.StormTrack
	for rows.Next() {
		var track storm.StormTrack
		if err := rows.Scan(
			&track.StormID, &track.StartTimeUnix, &track.EndTimeUnix,
			&track.StartLatDeg, &track.EndLatDeg,
			&track.StartLngDeg, &track.EndLngDeg,
		); err != nil {
			return nil, fmt.Errorf("scan storm track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load tracks for run %s: %w", runID, err)
	}

	return tracks, nil
}
