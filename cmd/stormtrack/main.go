// Command stormtrack runs the echo-top storm-tracking pipeline over a
// directory of gridded radar snapshots and persists the resulting storm
// objects and tracks to SQLite.
//
// Usage:
//
//	stormtrack -grids data/20180124 -db storms.db
//	stormtrack migrate up
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/banshee-data/stormtrack/internal/config"
	"github.com/banshee-data/stormtrack/internal/db"
	"github.com/banshee-data/stormtrack/internal/storm"
	"github.com/banshee-data/stormtrack/internal/storm/storage"
)

var (
	gridDir       = flag.String("grids", "", "Directory of echo-top grid files (required)")
	dbFile        = flag.String("db", "storms.db", "Path to the SQLite database file")
	configPath    = flag.String("config", "", "Optional tuning config JSON (defaults used otherwise)")
	description   = flag.String("description", "", "Free-form description stored with the run")
	reanalyze     = flag.Bool("reanalyze", true, "Merge broken tracks after assembly")
	migrationsDir = flag.String("migrations", "internal/db/migrations", "Path to migration files")
)

func main() {
	// The migrate subcommand manages schema and skips the pipeline flags.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		migrateFlags := flag.NewFlagSet("migrate", flag.ExitOnError)
		migrateDB := migrateFlags.String("db", "storms.db", "Path to the SQLite database file")
		migrateDir := migrateFlags.String("migrations", "internal/db/migrations", "Path to migration files")

		args := os.Args[2:]
		var actions []string
		for len(args) > 0 && args[0][0] != '-' {
			actions = append(actions, args[0])
			args = args[1:]
		}
		migrateFlags.Parse(args)
		db.RunMigrateCommand(actions, *migrateDB, *migrateDir)
		return
	}

	flag.Parse()
	if *gridDir == "" {
		flag.Usage()
		log.Fatal("-grids is required")
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	params := cfg.Params()

	paths, err := gridFilePaths(*gridDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no grid files in %s", *gridDir)
	}

	database, err := db.Open(*dbFile)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.CheckMigrations(*migrationsDir); err != nil {
		return err
	}

	ctx := context.Background()
	store := storage.NewRunStore(database)
	runID, err := store.CreateRun(ctx, params, *description)
	if err != nil {
		return err
	}
	log.Printf("Started tracking run %s over %d grids", runID, len(paths))

	tracker, err := storm.NewTracker(params)
	if err != nil {
		return err
	}

	// Grid files sort lexicographically by name; reading times out of
	// order fails in ProcessGrid rather than silently mislinking.
	for _, path := range paths {
		gf, err := ReadGridFile(path)
		if err != nil {
			return err
		}
		objects, err := tracker.ProcessGrid(gf.Grid, gf.Metadata, gf.TimeUnix)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		log.Printf("%s: %d storm objects at %d", filepath.Base(path), len(objects), gf.TimeUnix)
	}

	table := tracker.Finish()
	log.Printf("Assembled %d storm objects across %d tracks", table.Len(), len(table.UniqueIDs()))

	var tracks []storm.StormTrack
	if *reanalyze {
		tracks, err = storm.ReanalyzeTracks(table,
			cfg.GetMaxJoinTimeSeconds(), cfg.GetMaxJoinErrorSpeedMS())
		if err != nil {
			return fmt.Errorf("reanalysis: %w", err)
		}
		log.Printf("Reanalysis merged down to %d tracks", len(tracks))
	} else {
		tracks = storm.TracksFromObjects(table)
	}

	if err := store.InsertObjects(ctx, runID, table.Objects()); err != nil {
		return err
	}
	if err := store.SaveTracks(ctx, runID, tracks); err != nil {
		return err
	}
	if err := store.FinishRun(ctx, runID); err != nil {
		return err
	}

	log.Printf("Run %s complete: %d objects, %d tracks", runID, table.Len(), len(tracks))
	return nil
}

// gridFilePaths lists the grid files in dir in lexicographic order.
func gridFilePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read grid directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".csv" || filepath.Ext(name) == ".grid" {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
