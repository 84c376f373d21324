package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	w := NewWindow(3)
	w.Push(1)
	w.Push(2)
	w.Push(3)

	assert.Equal(t, 3, w.Size())
	assert.Equal(t, 2.0, w.Mean())

	w.Push(4)
	assert.Equal(t, 3, w.Size(), "size stays at capacity after rollover")
	assert.Equal(t, 3.0, w.Mean())
	assert.InDelta(t, 0.8165, w.StdDev(), 1e-4)
}

func TestWindow_Empty(t *testing.T) {
	w := NewWindow(0)
	assert.Equal(t, 0, w.Capacity())
	assert.Zero(t, w.Mean())
	assert.Zero(t, w.StdDev())
	assert.Zero(t, w.ZScore(10))
	assert.Equal(t, Summary{}, w.Summary())
}

func TestWindow_Unbounded(t *testing.T) {
	for _, capacity := range []int{0, -5} {
		w := NewWindow(capacity)
		for _, v := range []float64{1, 5, 9, 3} {
			w.Push(v)
		}

		assert.Equal(t, 4, w.Size())
		assert.Equal(t, 0, w.Capacity())
		assert.Equal(t, 4.5, w.Mean())

		s := w.Summary()
		assert.Equal(t, 4, s.Count)
		assert.Equal(t, 3.0, s.Last)
		assert.Equal(t, 1.0, s.Min)
		assert.Equal(t, 9.0, s.Max)
	}
}

func TestWindow_ZScore(t *testing.T) {
	w := NewWindow(4)
	for _, v := range []float64{2, 4, 4, 6} {
		w.Push(v)
	}
	assert.InDelta(t, 1.4142, w.ZScore(6), 1e-4)
}

func TestWindow_Summary(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{10, -1, 5, 2} {
		w.Push(v)
	}

	s := w.Summary()
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2.0, s.Last)
	assert.Equal(t, -1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 2.0, s.Mean)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   Summary
	}{
		{name: "empty", values: nil, want: Summary{}},
		{name: "single", values: []float64{3}, want: Summary{Count: 1, Last: 3, Min: 3, Max: 3, Mean: 3}},
		{
			name:   "whole series",
			values: []float64{1, 2, 3, 4},
			want:   Summary{Count: 4, Last: 4, Min: 1, Max: 4, Mean: 2.5, StdDev: 1.118033988749895},
		},
		{
			name:   "trailing window",
			values: []float64{100, 1, 3},
			window: 2,
			want:   Summary{Count: 2, Last: 3, Min: 1, Max: 3, Mean: 2, StdDev: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.values, tt.window)
			assert.Equal(t, tt.want.Count, got.Count)
			assert.Equal(t, tt.want.Last, got.Last)
			assert.Equal(t, tt.want.Min, got.Min)
			assert.Equal(t, tt.want.Max, got.Max)
			assert.InDelta(t, tt.want.Mean, got.Mean, 1e-9)
			assert.InDelta(t, tt.want.StdDev, got.StdDev, 1e-9)
		})
	}
}
