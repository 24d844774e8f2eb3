package prep

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/jamespfennell/gtfs"

	"mbtamap.transit/internal/feed"
)

// HeadsignRow is one line of the headsign CSV.
type HeadsignRow struct {
	TripID   string
	RouteID  string
	Headsign string
}

// LoadStatic parses a static GTFS zip.
func LoadStatic(path string) (*gtfs.Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS file: %w", err)
	}
	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return static, nil
}

// HeadsignRows lists every trip that has a headsign, sorted by trip id.
func HeadsignRows(static *gtfs.Static) []HeadsignRow {
	rows := make([]HeadsignRow, 0, len(static.Trips))
	for _, trip := range static.Trips {
		if trip.ID == "" || trip.Headsign == "" {
			continue
		}
		row := HeadsignRow{TripID: trip.ID, Headsign: trip.Headsign}
		if trip.Route != nil {
			row.RouteID = trip.Route.Id
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TripID < rows[j].TripID
	})
	return rows
}

// WriteHeadsigns writes rows in the format feed.ReadHeadsigns reads.
func WriteHeadsigns(w io.Writer, rows []HeadsignRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(feed.HeadsignColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.TripID, r.RouteID, r.Headsign}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteHeadsignsFile(path string, rows []HeadsignRow) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := WriteHeadsigns(f, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
