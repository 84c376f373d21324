// Package sample holds decoded data points and the buffer shared between the
// feed listener (sole writer) and the render loop (reader).
package sample

// Reading is a decoded payload before it is sequenced into a Buffer.
type Reading struct {
	// Values holds one scalar, or a fixed tuple such as lat/lon/alt or x/y/z.
	Values []float64
	// Timestamp is the source-provided time in milliseconds, passed through unmodified.
	Timestamp    int64
	HasTimestamp bool
}

// Scalar returns a Reading with a single value.
func Scalar(v float64) Reading {
	return Reading{Values: []float64{v}}
}

// Sample is one sequenced data point. Samples are never modified after the
// buffer creates them; callers must treat Values as read-only.
type Sample struct {
	Seq          uint64
	Values       []float64
	Timestamp    int64
	HasTimestamp bool
}

// Value returns the first value, or 0 if the sample is empty.
func (s Sample) Value() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Values[0]
}

// At returns the value at index i and whether it exists.
func (s Sample) At(i int) (float64, bool) {
	if i < 0 || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// Column extracts value i from each sample, skipping samples that lack it.
func Column(samples []Sample, i int) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v, ok := s.At(i); ok {
			out = append(out, v)
		}
	}
	return out
}
