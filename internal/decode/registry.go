package decode

import (
	"fmt"
	"sort"
	"strings"
)

// Kind names a decoder in configuration.
type Kind string

const (
	KindScalar    Kind = "scalar"
	KindKeyed     Kind = "keyed"
	KindTelemetry Kind = "telemetry"
	KindCartesian Kind = "cartesian"
	KindVelocity  Kind = "velocity"
	KindOrbit     Kind = "orbit"
)

// DefaultKey is the field read by the keyed decoder when none is configured.
const DefaultKey = "value"

type entry struct {
	build  func(key string) Func
	labels func(key string) []string
	// track holds the x/y columns of a 2D track plot, or nil.
	track []int
}

var registry = map[Kind]entry{
	KindScalar: {
		build:  func(string) Func { return Scalar() },
		labels: func(string) []string { return []string{"value"} },
	},
	KindKeyed: {
		build:  func(key string) Func { return Keyed(key) },
		labels: func(key string) []string { return []string{key} },
	},
	KindTelemetry: {
		build:  func(string) Func { return Telemetry() },
		labels: func(string) []string { return []string{"lat", "lon", "alt_km"} },
		track:  []int{1, 0},
	},
	KindCartesian: {
		build:  func(string) Func { return Cartesian() },
		labels: func(string) []string { return []string{"x", "y", "z"} },
		track:  []int{0, 1},
	},
	KindVelocity: {
		build:  func(string) Func { return Velocity() },
		labels: func(string) []string { return []string{"vx", "vy", "vz"} },
	},
	KindOrbit: {
		build:  func(string) Func { return Orbit() },
		labels: func(string) []string { return []string{"x_km", "y_km", "z_km"} },
		track:  []int{0, 1},
	},
}

// Kinds returns the registered decoder names, sorted.
func Kinds() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// Lookup returns the decoder registered under kind. key is only used by the
// keyed decoder and defaults to DefaultKey.
func Lookup(kind, key string) (Func, error) {
	e, ok := registry[Kind(kind)]
	if !ok {
		return nil, fmt.Errorf("unknown decoder %q (expected one of: %s)", kind, strings.Join(Kinds(), ", "))
	}
	if key == "" {
		key = DefaultKey
	}
	return e.build(key), nil
}

// Labels names the value columns a decoder produces.
func Labels(kind, key string) []string {
	e, ok := registry[Kind(kind)]
	if !ok {
		return []string{"value"}
	}
	if key == "" {
		key = DefaultKey
	}
	return e.labels(key)
}

// TrackColumns returns the x and y value columns for a 2D track plot.
// ok is false for decoders whose values aren't positions.
func TrackColumns(kind string) (x, y int, ok bool) {
	e, found := registry[Kind(kind)]
	if !found || e.track == nil {
		return 0, 0, false
	}
	return e.track[0], e.track[1], true
}
