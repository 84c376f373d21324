package publish

import (
	"encoding/json"
	"math"
	"time"

	"github.com/rileyhilliard/fv/internal/decode"
)

const (
	// earthMu is the standard gravitational parameter in km^3/s^2.
	earthMu = 398600.4418
	// earthRotation is the sidereal rotation rate in degrees per second.
	earthRotation = 360.0 / 86164.0905

	issName        = "ISS (ZARYA)"
	issAltitudeKm  = 420.0
	issInclination = 51.64
)

// Orbit simulates a circular orbit and emits telemetry documents in the
// shape the telemetry decoders read: timestamp in milliseconds, position
// with lat/lon/alt (meters) and x/y/z (meters), velocity x/y/z (m/s).
type Orbit struct {
	Name           string
	AltitudeKm     float64
	InclinationDeg float64
	// Epoch is the time at which the satellite crosses the equator at
	// longitude 0. Zero means the first call to Next.
	Epoch time.Time
}

// NewOrbit returns an ISS-like orbit starting at epoch.
func NewOrbit(epoch time.Time) *Orbit {
	return &Orbit{
		Name:           issName,
		AltitudeKm:     issAltitudeKm,
		InclinationDeg: issInclination,
		Epoch:          epoch,
	}
}

type vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type position struct {
	vector
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Alt     float64 `json:"alt"`
	Speed   float64 `json:"speed"`
	Bearing float64 `json:"bearing"`
}

type telemetry struct {
	Name      string   `json:"name"`
	Timestamp int64    `json:"timestamp"`
	Position  position `json:"position"`
	Velocity  vector   `json:"velocity"`
}

// Period is the orbital period.
func (o *Orbit) Period() time.Duration {
	r := decode.EarthRadiusKm + o.AltitudeKm
	secs := 2 * math.Pi * math.Sqrt(r*r*r/earthMu)
	return time.Duration(secs * float64(time.Second))
}

// Position returns latitude, longitude (degrees) and altitude (km) after
// elapsed time.
func (o *Orbit) Position(elapsed time.Duration) (lat, lon, altKm float64) {
	inc := o.InclinationDeg * math.Pi / 180
	u := 2 * math.Pi * elapsed.Seconds() / o.Period().Seconds()

	lat = math.Asin(math.Sin(inc)*math.Sin(u)) * 180 / math.Pi
	lon = math.Atan2(math.Cos(inc)*math.Sin(u), math.Cos(u))*180/math.Pi - earthRotation*elapsed.Seconds()
	return lat, wrapLongitude(lon), o.AltitudeKm
}

func (o *Orbit) Next(now time.Time) ([]byte, error) {
	if o.Epoch.IsZero() {
		o.Epoch = now
	}
	return json.Marshal(o.telemetry(now))
}

func (o *Orbit) telemetry(now time.Time) telemetry {
	elapsed := now.Sub(o.Epoch)
	lat, lon, alt := o.Position(elapsed)
	lat2, lon2, _ := o.Position(elapsed + time.Second)

	x, y, z := metersFromCenter(lat, lon, alt)
	x2, y2, z2 := metersFromCenter(lat2, lon2, alt)
	vel := vector{X: x2 - x, Y: y2 - y, Z: z2 - z}

	return telemetry{
		Name:      o.Name,
		Timestamp: now.UnixMilli(),
		Position: position{
			vector:  vector{X: x, Y: y, Z: z},
			Lat:     lat,
			Lon:     lon,
			Alt:     alt * 1000,
			Speed:   math.Sqrt(vel.X*vel.X + vel.Y*vel.Y + vel.Z*vel.Z),
			Bearing: bearing(lat, lon, lat2, lon2),
		},
		Velocity: vel,
	}
}

func metersFromCenter(lat, lon, altKm float64) (x, y, z float64) {
	x, y, z = decode.ToCartesian(lat, lon, altKm)
	return x * 1000, y * 1000, z * 1000
}

// bearing is the initial great-circle heading from the first point to the
// second, in degrees clockwise from north.
func bearing(lat1, lon1, lat2, lon2 float64) float64 {
	p1, p2 := lat1*math.Pi/180, lat2*math.Pi/180
	dl := (lon2 - lon1) * math.Pi / 180
	y := math.Sin(dl) * math.Cos(p2)
	x := math.Cos(p1)*math.Sin(p2) - math.Sin(p1)*math.Cos(p2)*math.Cos(dl)
	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}

func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
