// Package decode turns raw feed payloads into sample Readings.
//
// Every decoder is a Func. A payload that can't be decoded produces an *Error
// and never a substituted value: a fabricated 0.0 would be indistinguishable
// from real data on a chart.
package decode

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rileyhilliard/fv/internal/sample"
)

// Func decodes one payload.
type Func func(payload []byte) (sample.Reading, error)

const (
	// metersPerKm converts telemetry altitude to kilometers.
	metersPerKm = 1000.0
	// cartesianScale shrinks ECEF meters to chart-friendly units.
	cartesianScale = 100000.0
)

// Scalar parses the entire payload as a floating point literal.
func Scalar() Func {
	return func(payload []byte) (sample.Reading, error) {
		text := strings.TrimSpace(string(payload))
		if text == "" {
			return sample.Reading{}, newError(ErrMalformed, "", "empty payload", payload, nil)
		}
		v, err := parseFloat(text)
		if err != nil {
			return sample.Reading{}, newError(ErrNotNumeric, "", strconv.Quote(text)+" is not a number", payload, err)
		}
		return sample.Scalar(v), nil
	}
}

// Keyed parses the payload as a JSON object and extracts one named field.
// Dotted keys walk into nested objects ("position.alt").
func Keyed(key string) Func {
	return func(payload []byte) (sample.Reading, error) {
		obj, derr := parseObject(payload)
		if derr != nil {
			return sample.Reading{}, derr
		}
		v, derr := number(obj, key, payload)
		if derr != nil {
			return sample.Reading{}, derr
		}
		return sample.Scalar(v), nil
	}
}

// Telemetry decodes the satellite position document:
//
//	{"timestamp": 1706038908569, "position": {"lat": -29.3, "lon": -128.7, "alt": 429291.3, ...}, "velocity": {...}}
//
// Values are latitude and longitude in degrees and altitude in kilometers.
func Telemetry() Func {
	return func(payload []byte) (sample.Reading, error) {
		return extract(payload, []string{"position.lat", "position.lon", "position.alt"}, []float64{1, 1, 1 / metersPerKm})
	}
}

// Cartesian decodes position.x/y/z from the telemetry document, scaled 1:100000.
func Cartesian() Func {
	s := 1 / cartesianScale
	return func(payload []byte) (sample.Reading, error) {
		return extract(payload, []string{"position.x", "position.y", "position.z"}, []float64{s, s, s})
	}
}

// Velocity decodes velocity.x/y/z in meters per second from the telemetry document.
func Velocity() Func {
	return func(payload []byte) (sample.Reading, error) {
		return extract(payload, []string{"velocity.x", "velocity.y", "velocity.z"}, []float64{1, 1, 1})
	}
}

// Orbit decodes the telemetry position and converts it into a 3D vector in
// kilometers from the center of the earth.
func Orbit() Func {
	geo := Telemetry()
	return func(payload []byte) (sample.Reading, error) {
		r, err := geo(payload)
		if err != nil {
			return r, err
		}
		x, y, z := ToCartesian(r.Values[0], r.Values[1], r.Values[2])
		r.Values = []float64{x, y, z}
		return r, nil
	}
}

// extract reads the integer timestamp and the named numeric fields, scaling each.
func extract(payload []byte, fields []string, scale []float64) (sample.Reading, error) {
	obj, derr := parseObject(payload)
	if derr != nil {
		return sample.Reading{}, derr
	}

	ts, derr := integer(obj, "timestamp", payload)
	if derr != nil {
		return sample.Reading{}, derr
	}

	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, derr := number(obj, f, payload)
		if derr != nil {
			return sample.Reading{}, derr
		}
		vals[i] = v * scale[i]
	}

	return sample.Reading{Values: vals, Timestamp: ts, HasTimestamp: true}, nil
}

func parseObject(payload []byte) (map[string]json.RawMessage, *Error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, newError(ErrMalformed, "", "not a JSON object", payload, err)
	}
	if obj == nil {
		return nil, newError(ErrMalformed, "", "not a JSON object", payload, nil)
	}
	return obj, nil
}

// lookup finds path as a literal key first, then walks it as a dotted path.
// The returned error names the first missing segment.
func lookup(obj map[string]json.RawMessage, path string, payload []byte) (json.RawMessage, *Error) {
	if raw, ok := obj[path]; ok && !isNull(raw) {
		return raw, nil
	}
	parts := strings.Split(path, ".")
	cur := obj
	for i, p := range parts {
		prefix := strings.Join(parts[:i+1], ".")
		raw, ok := cur[p]
		if !ok || isNull(raw) {
			return nil, newError(ErrMissingField, prefix, "", payload, nil)
		}
		if i == len(parts)-1 {
			return raw, nil
		}
		var next map[string]json.RawMessage
		if err := json.Unmarshal(raw, &next); err != nil || next == nil {
			return nil, newError(ErrMalformed, prefix, "not an object", payload, err)
		}
		cur = next
	}
	return nil, newError(ErrMissingField, path, "", payload, nil)
}

// number coerces a JSON number or numeric string to a finite float.
func number(obj map[string]json.RawMessage, path string, payload []byte) (float64, *Error) {
	raw, derr := lookup(obj, path, payload)
	if derr != nil {
		return 0, derr
	}

	var val interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&val); err != nil {
		return 0, newError(ErrMalformed, path, "unreadable value", payload, err)
	}

	var text string
	switch v := val.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return 0, newError(ErrNotNumeric, path, "value "+string(raw)+" is not a number", payload, nil)
	}

	f, err := parseFloat(text)
	if err != nil {
		return 0, newError(ErrNotNumeric, path, strconv.Quote(text)+" is not a number", payload, err)
	}
	return f, nil
}

// integer reads an integral JSON number.
func integer(obj map[string]json.RawMessage, path string, payload []byte) (int64, *Error) {
	f, derr := number(obj, path, payload)
	if derr != nil {
		return 0, derr
	}
	raw, _ := lookup(obj, path, payload)
	if n, err := strconv.ParseInt(strings.Trim(string(raw), `" `), 10, 64); err == nil {
		return n, nil
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, newError(ErrNotNumeric, path, "not an integer", payload, nil)
	}
	return int64(f), nil
}

func parseFloat(text string) (float64, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
