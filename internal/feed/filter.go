package feed

// FilterByRoute returns the vehicles whose route equals routeID exactly, in
// feed order. The result is never nil.
func FilterByRoute(snap *Snapshot, routeID string) []Vehicle {
	out := []Vehicle{}
	if snap == nil {
		return out
	}
	for _, v := range snap.Vehicles {
		if v.Route == routeID {
			out = append(out, v)
		}
	}
	return out
}
