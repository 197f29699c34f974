// Command track-report renders a tracking run as a standalone HTML page
// using go-echarts: a map-style scatter of storm object centroids
// coloured by observation time, a bar chart of track durations, and a
// bar chart of mean storm motion speeds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/stormtrack/internal/config"
	"github.com/banshee-data/stormtrack/internal/db"
	"github.com/banshee-data/stormtrack/internal/storm"
	"github.com/banshee-data/stormtrack/internal/storm/storage"
)

var (
	dbFile     = flag.String("db", "storms.db", "Path to the SQLite database file")
	runID      = flag.String("run", "", "Run ID to report on (default: latest run)")
	configPath = flag.String("config", "", "Optional tuning config JSON (defaults used otherwise)")
	outFile    = flag.String("out", "track-report.html", "Output HTML file")
)

// viridis is the colour ramp used for the time dimension.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

func main() {
	flag.Parse()

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

	database, err := db.Open(*dbFile)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	store := storage.NewRunStore(database)

	id := *runID
	if id == "" {
		id, err = store.LatestRunID(ctx)
		if err != nil {
			return err
		}
	}

	table, err := store.LoadObjects(ctx, id)
	if err != nil {
		return err
	}
	if table.Len() == 0 {
		return fmt.Errorf("run %s has no storm objects", id)
	}
	tracks, err := store.LoadTracks(ctx, id)
	if err != nil {
		return err
	}

	speeds, err := trackMeanSpeeds(table, cfg.GetVelocityLookbackObjs())
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = "Storm Tracking Report"
	page.AddCharts(
		objectScatter(id, table),
		durationBar(tracks),
		speedBar(speeds),
	)

	f, err := os.Create(*outFile)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	log.Printf("Wrote %s: run %s, %d objects, %d tracks", *outFile, id, table.Len(), len(tracks))
	return nil
}

// trackMeanSpeeds estimates each storm's mean motion speed in m/s by
// averaging the per-observation velocity magnitudes. Storms without a
// finite velocity sample (single observations) report zero.
func trackMeanSpeeds(table *storm.ObjectTable, lookback int) (map[string]float64, error) {
	objects := table.Objects()
	speeds := make(map[string]float64)

	for _, stormID := range table.UniqueIDs() {
		rows := sortedRowsByTime(table, stormID)

		lats := make([]float64, len(rows))
		lngs := make([]float64, len(rows))
		times := make([]int64, len(rows))
		for i, row := range rows {
			lats[i] = objects[row].CentroidLatDeg
			lngs[i] = objects[row].CentroidLngDeg
			times[i] = objects[row].ValidTimeUnix
		}

		east, north, err := storm.TrackVelocities(lats, lngs, times, lookback)
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", stormID, err)
		}

		var sum float64
		var n int
		for i := range east {
			if math.IsNaN(east[i]) || math.IsNaN(north[i]) {
				continue
			}
			sum += math.Hypot(east[i], north[i])
			n++
		}
		if n > 0 {
			speeds[stormID] = sum / float64(n)
		} else {
			speeds[stormID] = 0
		}
	}
	return speeds, nil
}

// sortedRowsByTime returns a storm's object rows ordered by valid time.
// Objects insert in time order per run, but reanalysis merges can
// interleave rows.
func sortedRowsByTime(table *storm.ObjectTable, stormID string) []int {
	objects := table.Objects()
	rows := table.RowsWithID(stormID)
	sorted := make([]int, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(a, b int) bool {
		return objects[sorted[a]].ValidTimeUnix < objects[sorted[b]].ValidTimeUnix
	})
	return sorted
}

// objectScatter plots every storm object centroid in lng/lat space,
// coloured by valid time so track motion is readable.
func objectScatter(runID string, table *storm.ObjectTable) *charts.Scatter {
	objects := table.Objects()

	minTime := objects[0].ValidTimeUnix
	maxTime := objects[0].ValidTimeUnix
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLng, maxLng := math.Inf(1), math.Inf(-1)
	for _, obj := range objects {
		if obj.ValidTimeUnix < minTime {
			minTime = obj.ValidTimeUnix
		}
		if obj.ValidTimeUnix > maxTime {
			maxTime = obj.ValidTimeUnix
		}
		minLat = math.Min(minLat, obj.CentroidLatDeg)
		maxLat = math.Max(maxLat, obj.CentroidLatDeg)
		minLng = math.Min(minLng, obj.CentroidLngDeg)
		maxLng = math.Max(maxLng, obj.CentroidLngDeg)
	}

	// Pad the axes so edge points stay visible.
	latPad := (maxLat - minLat) * 0.05
	lngPad := (maxLng - minLng) * 0.05
	if latPad == 0 {
		latPad = 0.1
	}
	if lngPad == 0 {
		lngPad = 0.1
	}

	data := make([]opts.ScatterData, 0, len(objects))
	for _, obj := range objects {
		data = append(data, opts.ScatterData{
			Value: []interface{}{obj.CentroidLngDeg, obj.CentroidLatDeg, obj.ValidTimeUnix, obj.StormID},
		})
	}

	span := time.Unix(minTime, 0).UTC().Format(time.RFC3339) + " to " +
		time.Unix(maxTime, 0).UTC().Format(time.RFC3339)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Storm Objects", Theme: "dark", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Storm Object Centroids",
			Subtitle: fmt.Sprintf("run=%s objects=%d storms=%d %s", runID, len(objects), len(table.UniqueIDs()), span),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: minLng - lngPad, Max: maxLng + lngPad, Name: "Longitude (deg E)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: minLat - latPad, Max: maxLat + latPad, Name: "Latitude (deg N)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minTime),
			Max:        float32(maxTime),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("objects", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// durationBar charts each track's lifetime in minutes.
func durationBar(tracks []storm.StormTrack) *charts.Bar {
	x := make([]string, 0, len(tracks))
	y := make([]opts.BarData, 0, len(tracks))
	for _, track := range tracks {
		x = append(x, track.StormID)
		minutes := float64(track.EndTimeUnix-track.StartTimeUnix) / 60.0
		y = append(y, opts.BarData{Value: minutes})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Track Durations", Subtitle: fmt.Sprintf("%d tracks", len(tracks))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Duration (min)"}),
	)
	bar.SetXAxis(x).
		AddSeries("duration", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// speedBar charts each storm's mean motion speed.
func speedBar(speeds map[string]float64) *charts.Bar {
	ids := make([]string, 0, len(speeds))
	for id := range speeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	y := make([]opts.BarData, 0, len(ids))
	for _, id := range ids {
		y = append(y, opts.BarData{Value: speeds[id]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean Storm Speeds", Subtitle: fmt.Sprintf("%d storms", len(ids))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (m/s)"}),
	)
	bar.SetXAxis(ids).
		AddSeries("speed", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}
