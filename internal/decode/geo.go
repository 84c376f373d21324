package decode

import "math"

// EarthRadiusKm is the mean earth radius used for the spherical projection.
const EarthRadiusKm = 6371.0

// ToCartesian converts a geographic position (degrees, altitude in km) into
// x/y/z kilometers from the earth's center. No ellipsoid correction is
// applied; the vector length is EarthRadiusKm + altKm.
func ToCartesian(latDeg, lonDeg, altKm float64) (x, y, z float64) {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	r := EarthRadiusKm + altKm

	x = r * math.Cos(lat) * math.Cos(lon)
	y = r * math.Cos(lat) * math.Sin(lon)
	z = r * math.Sin(lat)
	return x, y, z
}
