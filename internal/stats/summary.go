package stats

import "math"

// Summary describes a series of values.
type Summary struct {
	Count  int     `json:"count"`
	Last   float64 `json:"last"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Summarize computes a Summary of values. Only the trailing window values
// are considered when window > 0.
func Summarize(values []float64, window int) Summary {
	if window > 0 && len(values) > window {
		values = values[len(values)-window:]
	}
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{
		Count: len(values),
		Last:  values[len(values)-1],
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	var sum, sumSquares float64
	for _, v := range values {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		sum += v
		sumSquares += v * v
	}
	n := float64(len(values))
	s.Mean = sum / n
	if variance := sumSquares/n - s.Mean*s.Mean; variance > 0 {
		s.StdDev = math.Sqrt(variance)
	}
	return s
}
