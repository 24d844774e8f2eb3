package feed

import (
	"fmt"

	"github.com/jamespfennell/gtfs"
)

// DecodeGTFSRT parses a binary GTFS-Realtime VehiclePositions message.
// Vehicles are mapped onto the same rows as the JSON payload; the row ID is
// the vehicle descriptor ID since the parser does not keep entity IDs.
func DecodeGTFSRT(data []byte) (*Snapshot, error) {
	rt, err := gtfs.ParseRealtime(data, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, fmt.Errorf("decode gtfs-realtime payload: %w", err)
	}

	snap := &Snapshot{
		Timestamp: rt.CreatedAt.Unix(),
		Vehicles:  make([]Vehicle, 0, len(rt.Vehicles)),
	}
	for i := range rt.Vehicles {
		snap.Vehicles = append(snap.Vehicles, vehicleRow(&rt.Vehicles[i]))
	}
	return snap, nil
}

func vehicleRow(vehicle *gtfs.Vehicle) Vehicle {
	v := Defaults

	if vehicle.ID != nil {
		v.ID = vehicle.ID.ID
		v.Label = vehicle.ID.Label
	}
	if vehicle.Position != nil && vehicle.Position.Latitude != nil && vehicle.Position.Longitude != nil {
		v.Lat = float64(*vehicle.Position.Latitude)
		v.Lon = float64(*vehicle.Position.Longitude)
		v.HasPosition = true
	}
	if vehicle.Trip != nil {
		v.Trip = vehicle.Trip.ID.ID
		v.Route = vehicle.Trip.ID.RouteID
		// The parser maps direction_id 1 to DirectionID_True and 0 to DirectionID_False.
		if vehicle.Trip.ID.DirectionID == 1 {
			v.Direction = 1
		}
	}
	if vehicle.StopID != nil {
		v.Stop = *vehicle.StopID
	}
	if vehicle.CurrentStatus != nil {
		v.Status = statusFromCode(int64(*vehicle.CurrentStatus))
	}
	return v
}
