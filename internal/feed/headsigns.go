package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Headsigns maps trip ids to their display headsign.
type Headsigns map[string]string

func (h Headsigns) Lookup(tripID string) string {
	if tripID == "" {
		return ""
	}
	return h[tripID]
}

// HeadsignColumns is the header of the headsign CSV.
var HeadsignColumns = []string{"trip_id", "route_id", "headsign"}

// LoadHeadsigns reads a headsign CSV file. An empty path yields nil.
func LoadHeadsigns(path string) (Headsigns, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open headsigns: %w", err)
	}
	defer f.Close()
	return ReadHeadsigns(f)
}

// ReadHeadsigns parses CSV with at least trip_id and headsign columns.
func ReadHeadsigns(r io.Reader) (Headsigns, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read headsigns header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	tripCol, ok1 := idx["trip_id"]
	signCol, ok2 := idx["headsign"]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("headsigns csv needs trip_id and headsign columns, got %v", header)
	}

	out := Headsigns{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read headsigns row: %w", err)
		}
		if tripCol >= len(row) || signCol >= len(row) {
			continue
		}
		out[row[tripCol]] = row[signCol]
	}
	return out, nil
}
