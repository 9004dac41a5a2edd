package matcher

import "math"

const earthRadiusMeters = 6371000.0

// haversineMeters returns the great-circle distance between two points in
// meters, used by the time+location match pass (spec.md §4.4) to decide
// whether a candidate vehicle's last known position is plausibly close to
// the gantry that recorded the event.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
