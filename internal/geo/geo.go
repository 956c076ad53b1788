// Package geo provides the pure geodesic and kinematic primitives used by
// trip scoring: great-circle distance, heading deltas, and acceleration
// between consecutive samples.
package geo

import "math"

// earthRadiusM is the mean Earth radius used for great-circle distance.
const earthRadiusM = 6371000.0

// DistanceMeters returns the great-circle (haversine) distance in meters
// between two WGS84 coordinates.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// HeadingDelta returns the signed smallest rotation from heading h1 to h2,
// normalized to [-180, 180] degrees.
func HeadingDelta(h1, h2 float64) float64 {
	d := math.Mod(h2-h1, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// Acceleration returns the change in speed over dt seconds (m/s^2).
// Returns 0 for non-positive dt rather than dividing by zero.
func Acceleration(speed1, speed2, dtSeconds float64) float64 {
	if dtSeconds <= 0 {
		return 0
	}
	return (speed2 - speed1) / dtSeconds
}
