// Package geo provides great-circle distance math for proximity ranking.
package geo

import "math"

// EarthRadiusMiles is the haversine radius used everywhere distances are
// computed; mixing radii across call sites would skew the proximity sort.
const EarthRadiusMiles = 3958.8

// Miles returns the haversine great-circle distance in miles between two
// coordinate pairs. Symmetric in its arguments and zero for identical points.
func Miles(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusMiles * c
}
