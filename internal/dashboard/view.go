// Package dashboard runs the per-session poll loop that fetches the feed,
// filters it by the selected route and publishes an immutable View.
package dashboard

import (
	"time"

	"mbtamap.transit/internal/feed"
	"mbtamap.transit/internal/render"
)

// View is one published result. Vehicles, Status and Map always come from
// the same snapshot and route.
type View struct {
	Version       uint64         `json:"version"`
	CenterVersion uint64         `json:"centerVersion"`
	Route         string         `json:"route"`
	Ready         bool           `json:"ready"`
	Timestamp     int64          `json:"timestamp"`
	FetchedAt     time.Time      `json:"fetchedAt"`
	Status        string         `json:"status"`
	Vehicles      []feed.Vehicle `json:"vehicles"`
	Map           render.Map     `json:"map"`

	snapshot *feed.Snapshot
}

// Snapshot returns the feed snapshot the view was built from, or nil before
// the first successful fetch.
func (v *View) Snapshot() *feed.Snapshot {
	return v.snapshot
}
