package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/stormtrack/internal/db"
	"github.com/banshee-data/stormtrack/internal/storm"
	"github.com/banshee-data/stormtrack/internal/timeutil"
)

// storeSchema mirrors the shipped migrations so storage tests do not
// depend on migration file paths.
const storeSchema = `
CREATE TABLE tracking_runs (
    run_id        TEXT PRIMARY KEY,
    started_at    INTEGER NOT NULL,
    finished_at   INTEGER,
    params_json   TEXT NOT NULL DEFAULT '{}',
    description   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE storm_objects (
    object_id      INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id         TEXT NOT NULL,
    storm_id       TEXT NOT NULL,
    valid_time     INTEGER NOT NULL,
    spc_date       INTEGER NOT NULL,
    centroid_lat   DOUBLE NOT NULL,
    centroid_lng   DOUBLE NOT NULL,
    centroid_x_m   DOUBLE NOT NULL,
    centroid_y_m   DOUBLE NOT NULL,
    FOREIGN KEY(run_id) REFERENCES tracking_runs(run_id)
);
CREATE TABLE storm_tracks (
    run_id      TEXT NOT NULL,
    storm_id    TEXT NOT NULL,
    start_time  INTEGER NOT NULL,
    end_time    INTEGER NOT NULL,
    start_lat   DOUBLE NOT NULL,
    end_lat     DOUBLE NOT NULL,
    start_lng   DOUBLE NOT NULL,
    end_lng     DOUBLE NOT NULL,
    PRIMARY KEY (run_id, storm_id),
    FOREIGN KEY(run_id) REFERENCES tracking_runs(run_id)
);
`

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "storage_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec(storeSchema)
	require.NoError(t, err)

	return NewRunStore(database)
}

func testObjects() []storm.StormObject {
	return []storm.StormObject{
		{StormID: "000000_20180124", ValidTimeUnix: 1516860600, SpcDateUnix: 1516795200,
			CentroidLatDeg: 34.96, CentroidLngDeg: 95.1, CentroidXMetres: 9100, CentroidYMetres: -4450},
		{StormID: "000001_20180124", ValidTimeUnix: 1516860600, SpcDateUnix: 1516795200,
			CentroidLatDeg: 35.0, CentroidLngDeg: 95.1, CentroidXMetres: 9100, CentroidYMetres: 0},
		{StormID: "000000_20180124", ValidTimeUnix: 1516860900, SpcDateUnix: 1516795200,
			CentroidLatDeg: 34.97, CentroidLngDeg: 95.12, CentroidXMetres: 10900, CentroidYMetres: -3340},
	}
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

func TestRunLifecycle(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	params := storm.DefaultParams()
	params.MinValue = 8

	runID, err := store.CreateRun(ctx, params, "unit test run")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	loaded, err := store.RunParams(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, params, loaded)

	require.NoError(t, store.FinishRun(ctx, runID))
	assert.Error(t, store.FinishRun(ctx, "no-such-run"))
}

func TestRunTimestampsUseClock(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2018, 1, 24, 9, 30, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(started)
	store.WithClock(clock)

	runID, err := store.CreateRun(ctx, storm.DefaultParams(), "")
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	require.NoError(t, store.FinishRun(ctx, runID))

	var startedAt, finishedAt int64
	err = store.db.QueryRow(
		`SELECT started_at, finished_at FROM tracking_runs WHERE run_id = ?`,
		runID).Scan(&startedAt, &finishedAt)
	require.NoError(t, err)
	assert.Equal(t, started.Unix(), startedAt)
	assert.Equal(t, started.Add(5*time.Minute).Unix(), finishedAt)
}

func TestLatestRunID(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LatestRunID(ctx)
	assert.Error(t, err, "empty database has no latest run")

	// Insert directly so started_at values are distinct.
	for _, row := range []struct {
		id        string
		startedAt int64
	}{
		{"run-old", 1516860600},
		{"run-new", 1516860900},
		{"run-mid", 1516860700},
	} {
		_, err := store.db.Exec(
			`INSERT INTO tracking_runs (run_id, started_at) VALUES (?, ?)`,
			row.id, row.startedAt)
		require.NoError(t, err)
	}

	latest, err := store.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-new", latest)
}

func TestRunParamsUnknownRun(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	_, err := store.RunParams(context.Background(), "no-such-run")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

func TestInsertAndLoadObjects(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, storm.DefaultParams(), "")
	require.NoError(t, err)

	objects := testObjects()
	require.NoError(t, store.InsertObjects(ctx, runID, objects))

	table, err := store.LoadObjects(ctx, runID)
	require.NoError(t, err)
	require.Equal(t, len(objects), table.Len())
	assert.Equal(t, objects, table.Objects())
	assert.Equal(t, []string{"000000_20180124", "000001_20180124"}, table.UniqueIDs())
}

func TestInsertObjectsEmpty(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, storm.DefaultParams(), "")
	require.NoError(t, err)
	require.NoError(t, store.InsertObjects(ctx, runID, nil))

	table, err := store.LoadObjects(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestReplaceObjects(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, storm.DefaultParams(), "")
	require.NoError(t, err)
	require.NoError(t, store.InsertObjects(ctx, runID, testObjects()))

	// Relabel in memory, then write the whole table back.
	table, err := store.LoadObjects(ctx, runID)
	require.NoError(t, err)
	table.Relabel("000001_20180124", "000000_20180124")
	require.NoError(t, store.ReplaceObjects(ctx, runID, table))

	reloaded, err := store.LoadObjects(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"000000_20180124"}, reloaded.UniqueIDs())
	assert.Equal(t, len(testObjects()), reloaded.Len())
}

func TestRelabelStorm(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, storm.DefaultParams(), "")
	require.NoError(t, err)
	require.NoError(t, store.InsertObjects(ctx, runID, testObjects()))

	changed, err := store.RelabelStorm(ctx, runID, "000000_20180124", "000009_20180124")
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	changed, err = store.RelabelStorm(ctx, runID, "absent", "whatever")
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)
}

// ---------------------------------------------------------------------------
// Tracks
// ---------------------------------------------------------------------------

func TestSaveAndLoadTracks(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, storm.DefaultParams(), "")
	require.NoError(t, err)
	require.NoError(t, store.InsertObjects(ctx, runID, testObjects()))

	table, err := store.LoadObjects(ctx, runID)
	require.NoError(t, err)
	tracks := storm.TracksFromObjects(table)
	require.NoError(t, store.SaveTracks(ctx, runID, tracks))

	loaded, err := store.LoadTracks(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, tracks, loaded)

	// SaveTracks replaces, not appends.
	require.NoError(t, store.SaveTracks(ctx, runID, tracks[:1]))
	loaded, err = store.LoadTracks(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}
