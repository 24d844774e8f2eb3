package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMissingHeader = errors.New("feed payload has no header")

type payload struct {
	Header *headerPayload    `json:"header"`
	Entity []json.RawMessage `json:"entity"`
}

type headerPayload struct {
	Timestamp *flexInt `json:"timestamp"`
}

type entityPayload struct {
	ID      *string         `json:"id"`
	Vehicle *vehiclePayload `json:"vehicle"`
}

type vehiclePayload struct {
	Position             *positionPayload   `json:"position"`
	Trip                 *tripPayload       `json:"trip"`
	Vehicle              *descriptorPayload `json:"vehicle"`
	StopID               *string            `json:"stop_id"`
	CurrentStatus        *flexStatus        `json:"current_status"`
	MultiCarriageDetails *[]json.RawMessage `json:"multi_carriage_details"`
}

type positionPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type tripPayload struct {
	TripID      *string  `json:"trip_id"`
	RouteID     *string  `json:"route_id"`
	DirectionID *flexInt `json:"direction_id"`
}

type descriptorPayload struct {
	ID    *string `json:"id"`
	Label *string `json:"label"`
}

// flexInt accepts a JSON number or a quoted number. Protobuf JSON encodes
// 64-bit integers as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", b, err)
	}
	*f = flexInt(n)
	return nil
}

// flexStatus accepts either the enum name or its number.
type flexStatus Status

func (f *flexStatus) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexStatus(statusFromCode(n))
		return nil
	}
	switch Status(strings.ToUpper(s)) {
	case StatusIncomingAt, StatusStoppedAt, StatusInTransitTo:
		*f = flexStatus(strings.ToUpper(s))
	default:
		*f = flexStatus(StatusUnknown)
	}
	return nil
}

// DecodeJSON parses the JSON vehicle position payload. Entities that fail to
// decode are skipped and counted in Snapshot.Skipped.
func DecodeJSON(data []byte) (*Snapshot, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}
	if p.Header == nil {
		return nil, ErrMissingHeader
	}

	snap := &Snapshot{
		Vehicles: make([]Vehicle, 0, len(p.Entity)),
		Entities: p.Entity,
	}
	if p.Header.Timestamp != nil {
		snap.Timestamp = int64(*p.Header.Timestamp)
	}

	for _, raw := range p.Entity {
		var e entityPayload
		if err := json.Unmarshal(raw, &e); err != nil {
			snap.Skipped++
			continue
		}
		snap.Vehicles = append(snap.Vehicles, e.row())
	}
	return snap, nil
}

func (e entityPayload) row() Vehicle {
	v := Defaults
	if e.ID != nil {
		v.ID = *e.ID
	}
	veh := e.Vehicle
	if veh == nil {
		return v
	}

	if pos := veh.Position; pos != nil && pos.Latitude != nil && pos.Longitude != nil {
		v.Lat, v.Lon = *pos.Latitude, *pos.Longitude
		v.HasPosition = true
	}
	if trip := veh.Trip; trip != nil {
		if trip.RouteID != nil {
			v.Route = *trip.RouteID
		}
		if trip.TripID != nil {
			v.Trip = *trip.TripID
		}
		if trip.DirectionID != nil {
			v.Direction = int(*trip.DirectionID)
		}
	}
	if d := veh.Vehicle; d != nil && d.Label != nil {
		v.Label = *d.Label
	}
	if veh.StopID != nil {
		v.Stop = *veh.StopID
	}
	if veh.CurrentStatus != nil {
		v.Status = Status(*veh.CurrentStatus)
	}
	if veh.MultiCarriageDetails != nil {
		v.Carriages = len(*veh.MultiCarriageDetails)
	}
	return v
}
