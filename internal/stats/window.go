// Package stats computes summary statistics over rendered values.
package stats

import "math"

// Window keeps the last capacity values and their running sums, or every
// value when capacity is 0. It is not safe for concurrent use.
type Window struct {
	capacity   int
	values     []float64
	position   int
	samples    int
	sum        float64
	sumSquares float64
	last       float64
}

// NewWindow creates a window holding up to capacity values. A capacity of
// 0 or less keeps every value pushed.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		return &Window{}
	}
	return &Window{
		capacity: capacity,
		values:   make([]float64, capacity),
	}
}

func (w *Window) Push(v float64) {
	w.last = v
	if w.capacity == 0 {
		w.values = append(w.values, v)
		w.sum += v
		w.sumSquares += v * v
		w.samples++
		return
	}
	if w.samples < w.capacity {
		w.values[w.position] = v
		w.sum += v
		w.sumSquares += v * v
		w.position = (w.position + 1) % w.capacity
		w.samples++
		return
	}

	old := w.values[w.position]
	w.sum -= old
	w.sumSquares -= old * old

	w.values[w.position] = v
	w.sum += v
	w.sumSquares += v * v
	w.position = (w.position + 1) % w.capacity
}

func (w *Window) Size() int {
	return w.samples
}

// Capacity is the number of values retained, 0 for an unbounded window.
func (w *Window) Capacity() int {
	return w.capacity
}

func (w *Window) Mean() float64 {
	if w.samples == 0 {
		return 0
	}
	return w.sum / float64(w.samples)
}

// StdDev is the population standard deviation of the window.
func (w *Window) StdDev() float64 {
	if w.samples == 0 {
		return 0
	}
	mean := w.Mean()
	variance := w.sumSquares/float64(w.samples) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// ZScore reports how many standard deviations value is from the mean.
func (w *Window) ZScore(value float64) float64 {
	std := w.StdDev()
	if std == 0 {
		return 0
	}
	return (value - w.Mean()) / std
}

// Summary returns the window's statistics.
func (w *Window) Summary() Summary {
	if w.samples == 0 {
		return Summary{}
	}
	min, max := math.Inf(1), math.Inf(-1)
	for i := 0; i < w.samples; i++ {
		v := w.values[i]
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return Summary{
		Count:  w.samples,
		Last:   w.last,
		Min:    min,
		Max:    max,
		Mean:   w.Mean(),
		StdDev: w.StdDev(),
	}
}
