package decode

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issPayload = `{"timestamp": 1706038908569, "position": {"lat": 10, "lon": 20, "alt": 429000, "x": 500000, "y": -250000, "z": 100000}, "velocity": {"x": 7000, "y": -100, "z": 12.5}}`

func TestScalar(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
		wantErr error
	}{
		{name: "float", payload: "3.14", want: 3.14},
		{name: "negative", payload: "-0.5", want: -0.5},
		{name: "exponent", payload: "1e3", want: 1000},
		{name: "surrounding whitespace", payload: " 42\n", want: 42},
		{name: "word", payload: "abc", wantErr: ErrNotNumeric},
		{name: "empty", payload: "", wantErr: ErrMalformed},
		{name: "nan rejected", payload: "NaN", wantErr: ErrNotNumeric},
		{name: "inf rejected", payload: "+Inf", wantErr: ErrNotNumeric},
		{name: "json object", payload: `{"value": 1}`, wantErr: ErrNotNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Scalar()([]byte(tt.payload))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Empty(t, r.Values, "failed decode must not produce values")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []float64{tt.want}, r.Values)
			assert.False(t, r.HasTimestamp)
		})
	}
}

func TestScalar_ErrorKeepsPayload(t *testing.T) {
	_, err := Scalar()([]byte("abc"))

	de, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "abc", de.PayloadString())
	assert.Contains(t, err.Error(), `"abc"`)
}

func TestKeyed(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		payload   string
		want      float64
		wantErr   error
		wantField string
	}{
		{name: "number", key: "value", payload: `{"value": 2.5}`, want: 2.5},
		{name: "numeric string", key: "value", payload: `{"value": "7.25"}`, want: 7.25},
		{name: "nested key", key: "position.alt", payload: `{"position": {"alt": 420}}`, want: 420},
		{name: "dotted flat key", key: "temp.c", payload: `{"temp.c": 21.5}`, want: 21.5},
		{name: "flat key wins over path", key: "temp.c", payload: `{"temp.c": 1, "temp": {"c": 2}}`, want: 1},
		{name: "missing nested segment", key: "temp.c", payload: `{"temp": {"f": 70}}`, wantErr: ErrMissingField, wantField: "temp.c"},
		{name: "missing key", key: "value", payload: `{"other": 1}`, wantErr: ErrMissingField, wantField: "value"},
		{name: "null value", key: "value", payload: `{"value": null}`, wantErr: ErrMissingField, wantField: "value"},
		{name: "bool value", key: "value", payload: `{"value": true}`, wantErr: ErrNotNumeric, wantField: "value"},
		{name: "word value", key: "value", payload: `{"value": "high"}`, wantErr: ErrNotNumeric, wantField: "value"},
		{name: "not json", key: "value", payload: `value=1`, wantErr: ErrMalformed},
		{name: "json array", key: "value", payload: `[1, 2]`, wantErr: ErrMalformed},
		{name: "json null", key: "value", payload: `null`, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Keyed(tt.key)([]byte(tt.payload))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				de, ok := AsError(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantField, de.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []float64{tt.want}, r.Values)
		})
	}
}

func TestTelemetry(t *testing.T) {
	r, err := Telemetry()([]byte(issPayload))
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 20, 429}, r.Values)
	assert.True(t, r.HasTimestamp)
	assert.Equal(t, int64(1706038908569), r.Timestamp)
}

func TestTelemetry_MissingFields(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantField string
		wantErr   error
	}{
		{
			name:      "missing position",
			payload:   `{"timestamp": 1, "velocity": {"x": 1}}`,
			wantField: "position",
			wantErr:   ErrMissingField,
		},
		{
			name:      "missing lat",
			payload:   `{"timestamp": 1, "position": {"lon": 1, "alt": 1}}`,
			wantField: "position.lat",
			wantErr:   ErrMissingField,
		},
		{
			name:      "missing timestamp",
			payload:   `{"position": {"lat": 1, "lon": 1, "alt": 1}}`,
			wantField: "timestamp",
			wantErr:   ErrMissingField,
		},
		{
			name:      "position not an object",
			payload:   `{"timestamp": 1, "position": 5}`,
			wantField: "position",
			wantErr:   ErrMalformed,
		},
		{
			name:      "fractional timestamp",
			payload:   `{"timestamp": 1.5, "position": {"lat": 1, "lon": 1, "alt": 1}}`,
			wantField: "timestamp",
			wantErr:   ErrNotNumeric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Telemetry()([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			de, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, de.Field)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestCartesian(t *testing.T) {
	r, err := Cartesian()([]byte(issPayload))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, -2.5, 1}, r.Values, 1e-9)
}

func TestVelocity(t *testing.T) {
	r, err := Velocity()([]byte(issPayload))
	require.NoError(t, err)
	assert.Equal(t, []float64{7000, -100, 12.5}, r.Values)
}

func TestOrbit(t *testing.T) {
	r, err := Orbit()([]byte(issPayload))
	require.NoError(t, err)
	require.Len(t, r.Values, 3)

	norm := math.Sqrt(r.Values[0]*r.Values[0] + r.Values[1]*r.Values[1] + r.Values[2]*r.Values[2])
	assert.InDelta(t, EarthRadiusKm+429, norm, 1e-6)
	assert.Equal(t, int64(1706038908569), r.Timestamp)
}

func TestOrbit_PropagatesDecodeError(t *testing.T) {
	_, err := Orbit()([]byte(`{"timestamp": 1}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestToCartesian(t *testing.T) {
	tests := []struct {
		name          string
		lat, lon, alt float64
		x, y, z       float64
	}{
		{name: "equator prime meridian", lat: 0, lon: 0, alt: 0, x: EarthRadiusKm},
		{name: "equator 90 east", lat: 0, lon: 90, alt: 0, y: EarthRadiusKm},
		{name: "north pole", lat: 90, lon: 0, alt: 100, z: EarthRadiusKm + 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := ToCartesian(tt.lat, tt.lon, tt.alt)
			assert.InDelta(t, tt.x, x, 1e-9)
			assert.InDelta(t, tt.y, y, 1e-9)
			assert.InDelta(t, tt.z, z, 1e-9)
		})
	}
}
