package dashboard

import (
	"time"

	"mbtamap.transit/internal/feed"
	"mbtamap.transit/internal/render"
)

// TimestampLayout is the layout used for the status line timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// StatusText renders the one-line status for a route. A route with no
// vehicles is reported as not operating.
func StatusText(route string, vehicles []feed.Vehicle, ts time.Time, loc *time.Location) string {
	if len(vehicles) == 0 {
		return route + " is not operating"
	}
	if loc == nil {
		loc = time.Local
	}
	return route + " " + ts.In(loc).Format(TimestampLayout)
}

// Center is the arithmetic mean position of the vehicles that have one.
func Center(vehicles []feed.Vehicle) (render.LatLon, bool) {
	var lat, lon float64
	n := 0
	for _, v := range vehicles {
		if !v.HasPosition {
			continue
		}
		lat += v.Lat
		lon += v.Lon
		n++
	}
	if n == 0 {
		return render.LatLon{}, false
	}
	return render.LatLon{Lat: lat / float64(n), Lon: lon / float64(n)}, true
}
