package models

import (
	"mbtamap.transit/internal/dashboard"
	"mbtamap.transit/internal/feed"
	"mbtamap.transit/internal/render"
)

// SessionEntry is the dashboard state returned to the browser.
type SessionEntry struct {
	SessionID     string         `json:"sessionId"`
	Selected      string         `json:"selected"`
	Route         string         `json:"route"`
	Ready         bool           `json:"ready"`
	Version       uint64         `json:"version"`
	CenterVersion uint64         `json:"centerVersion"`
	Status        string         `json:"status"`
	Timestamp     int64          `json:"timestamp"`
	Vehicles      []VehicleEntry `json:"vehicles"`
	Map           render.Map     `json:"map"`
}

// VehicleEntry is one row of the vehicle table.
type VehicleEntry struct {
	ID        string  `json:"id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Route     string  `json:"route"`
	Direction int     `json:"direction"`
	Carriage  string  `json:"carriage"`
	Trip      string  `json:"trip"`
	Stop      string  `json:"stop"`
	Status    string  `json:"status"`
	Headsign  string  `json:"headsign,omitempty"`
}

func NewVehicleEntry(v feed.Vehicle) VehicleEntry {
	return VehicleEntry{
		ID:        v.ID,
		Lat:       v.Lat,
		Lon:       v.Lon,
		Route:     v.Route,
		Direction: v.Direction,
		Carriage:  v.CarriageText(),
		Trip:      v.Trip,
		Stop:      v.Stop,
		Status:    string(v.Status),
		Headsign:  v.Headsign,
	}
}

func NewSessionEntry(sessionID, selected string, v *dashboard.View) SessionEntry {
	vehicles := make([]VehicleEntry, 0, len(v.Vehicles))
	for _, veh := range v.Vehicles {
		vehicles = append(vehicles, NewVehicleEntry(veh))
	}
	return SessionEntry{
		SessionID:     sessionID,
		Selected:      selected,
		Route:         v.Route,
		Ready:         v.Ready,
		Version:       v.Version,
		CenterVersion: v.CenterVersion,
		Status:        v.Status,
		Timestamp:     v.Timestamp,
		Vehicles:      vehicles,
		Map:           v.Map,
	}
}
