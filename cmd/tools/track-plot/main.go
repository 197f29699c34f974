// Command track-plot draws a tracking run's storm tracks as a PNG:
// one line per storm through its centroid positions, with start points
// marked so direction of motion is readable.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/stormtrack/internal/db"
	"github.com/banshee-data/stormtrack/internal/storm"
	"github.com/banshee-data/stormtrack/internal/storm/storage"
)

var (
	dbFile  = flag.String("db", "storms.db", "Path to the SQLite database file")
	runID   = flag.String("run", "", "Run ID to plot (default: latest run)")
	outFile = flag.String("out", "tracks.png", "Output PNG file")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
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

	if err := plotTracks(id, table, *outFile); err != nil {
		return err
	}
	log.Printf("Wrote %s: run %s, %d tracks", *outFile, id, len(table.UniqueIDs()))
	return nil
}

func plotTracks(runID string, table *storm.ObjectTable, outFile string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Storm Tracks (run %s)", runID)
	p.X.Label.Text = "Longitude (deg E)"
	p.Y.Label.Text = "Latitude (deg N)"

	stormIDs := table.UniqueIDs()
	colors := generateColors(len(stormIDs))

	objects := table.Objects()
	for i, stormID := range stormIDs {
		rows := table.RowsWithID(stormID)

		// Objects insert in time order per run, but reanalysis merges
		// can interleave rows, so sort by valid time before drawing.
		sorted := make([]int, len(rows))
		copy(sorted, rows)
		sort.Slice(sorted, func(a, b int) bool {
			return objects[sorted[a]].ValidTimeUnix < objects[sorted[b]].ValidTimeUnix
		})

		pts := make(plotter.XYs, 0, len(sorted))
		for _, row := range sorted {
			pts = append(pts, plotter.XY{
				X: objects[row].CentroidLngDeg,
				Y: objects[row].CentroidLatDeg,
			})
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("track %s: %w", stormID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(stormID, line)

		// Mark the track start.
		start, err := plotter.NewScatter(pts[:1])
		if err != nil {
			return fmt.Errorf("track %s: %w", stormID, err)
		}
		start.GlyphStyle.Color = colors[i]
		start.GlyphStyle.Radius = vg.Points(3)
		p.Add(start)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 8*vg.Inch, outFile); err != nil {
		return fmt.Errorf("save track plot: %w", err)
	}
	return nil
}

// generateColors creates a palette of distinct colors for track lines.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
