package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/stormtrack/internal/storm"
)

// GridFile is one echo-top snapshot read from disk: the grid itself,
// where it sits on the globe, and when it was observed.
type GridFile struct {
	Grid     *storm.Grid
	Metadata storm.GridMetadata
	TimeUnix int64
}

// ReadGridFile parses an echo-top grid file. The format is a comment
// header of "# key=value" lines (valid_time, nw_lat, nw_lng,
// lat_spacing, lng_spacing) followed by comma-separated rows of values,
// northwest corner first. Empty fields and "nan" mark missing cells.
func ReadGridFile(path string) (*GridFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid file: %w", err)
	}
	defer f.Close()

	var (
		meta      storm.GridMetadata
		timeUnix  int64
		haveTime  bool
		values    []float64
		cols      int
		rows      int
		lineCount int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lineCount++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			key, value, err := parseHeaderLine(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineCount, err)
			}
			switch key {
			case "valid_time":
				timeUnix, err = strconv.ParseInt(value, 10, 64)
				haveTime = err == nil
			case "nw_lat":
				meta.NWLatDeg, err = strconv.ParseFloat(value, 64)
			case "nw_lng":
				meta.NWLngDeg, err = strconv.ParseFloat(value, 64)
			case "lat_spacing":
				meta.LatSpacingDeg, err = strconv.ParseFloat(value, 64)
			case "lng_spacing":
				meta.LngSpacingDeg, err = strconv.ParseFloat(value, 64)
			default:
				// Unknown header keys are ignored so files can carry
				// provenance notes.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad %s value %q", path, lineCount, key, value)
			}
			continue
		}

		fields := strings.Split(line, ",")
		if cols == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%s:%d: row has %d columns, want %d", path, lineCount, len(fields), cols)
		}
		for _, field := range fields {
			field = strings.TrimSpace(field)
			if field == "" || strings.EqualFold(field, "nan") {
				values = append(values, math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad grid value %q", path, lineCount, field)
			}
			values = append(values, v)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read grid file: %w", err)
	}

	if rows == 0 {
		return nil, fmt.Errorf("%s: no grid rows", path)
	}
	if !haveTime {
		return nil, fmt.Errorf("%s: missing valid_time header", path)
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	grid, err := storm.NewGridFromValues(rows, cols, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &GridFile{Grid: grid, Metadata: meta, TimeUnix: timeUnix}, nil
}

func parseHeaderLine(line string) (key, value string, err error) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, found := strings.Cut(body, "=")
	if !found {
		return "", "", fmt.Errorf("header line %q is not key=value", line)
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), nil
}
