// Package feed fetches the real-time vehicle position feed and flattens it
// into one row per vehicle.
package feed

import (
	"encoding/json"
	"strconv"
	"time"
)

type Status string

const (
	StatusIncomingAt  Status = "INCOMING_AT"
	StatusStoppedAt   Status = "STOPPED_AT"
	StatusInTransitTo Status = "IN_TRANSIT_TO"
	StatusUnknown     Status = "UNKNOWN"
)

// statusFromCode maps the GTFS-Realtime VehicleStopStatus enum number.
func statusFromCode(code int64) Status {
	switch code {
	case 0:
		return StatusIncomingAt
	case 1:
		return StatusStoppedAt
	case 2:
		return StatusInTransitTo
	default:
		return StatusUnknown
	}
}

// UnknownCarriages marks a vehicle whose feed record carried no carriage details.
const UnknownCarriages = -1

// Vehicle is one row of the flattened feed.
type Vehicle struct {
	ID          string  `json:"id"`
	Label       string  `json:"label,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	HasPosition bool    `json:"hasPosition"`
	Route       string  `json:"route"`
	Direction   int     `json:"direction"`
	Carriages   int     `json:"carriages"`
	Trip        string  `json:"trip"`
	Stop        string  `json:"stop"`
	Status      Status  `json:"status"`
	Headsign    string  `json:"headsign,omitempty"`
}

// Defaults is the value every row starts from before feed fields are applied.
var Defaults = Vehicle{
	Carriages: UnknownCarriages,
	Status:    StatusUnknown,
}

// CarriageText renders the carriage count, or "-" when it is unknown.
func (v Vehicle) CarriageText() string {
	if v.Carriages < 0 {
		return "-"
	}
	return strconv.Itoa(v.Carriages)
}

// Snapshot is the immutable result of one fetch.
type Snapshot struct {
	Timestamp int64             `json:"timestamp"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Vehicles  []Vehicle         `json:"vehicles"`
	Entities  []json.RawMessage `json:"-"`
	Skipped   int               `json:"skipped"`
}

// HeaderTime returns the feed header timestamp as a time.Time.
func (s *Snapshot) HeaderTime() time.Time {
	return time.Unix(s.Timestamp, 0)
}
