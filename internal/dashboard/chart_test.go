package dashboard

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/fv/internal/sample"
)

func samplesOf(values ...[]float64) []sample.Sample {
	out := make([]sample.Sample, len(values))
	for i, v := range values {
		out[i] = sample.Sample{Seq: uint64(i + 1), Values: v}
	}
	return out
}

func TestChart_RenderLine(t *testing.T) {
	c := NewChart("scalar", []string{"value"}, 0)
	c.SetSize(40, 4)

	err := c.Render(samplesOf([]float64{-1}, []float64{0}, []float64{1}))
	require.NoError(t, err)

	frame := stripANSI(c.Frame())
	lines := strings.Split(frame, "\n")
	require.Len(t, lines, 6, "header + 4 plot rows + footer")
	for _, l := range lines {
		assert.Equal(t, 40, lipgloss.Width(l))
	}
	assert.Contains(t, lines[0], "value")
	assert.Contains(t, lines[1], " 1 ", "max on the top axis")
	assert.Contains(t, lines[4], "-1 ", "min on the bottom axis")

	s := c.Summary()
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1.0, s.Last)
	assert.Equal(t, 3, c.Count())
	assert.Equal(t, 1, c.Draws())

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(3), last.Seq)
}

func TestChart_EmptyRenderKeepsFrame(t *testing.T) {
	c := NewChart("scalar", nil, 0)
	require.NoError(t, c.Render(nil))
	assert.Empty(t, c.Frame())
	_, ok := c.Last()
	assert.False(t, ok)
	assert.Equal(t, "value", c.Series())
}

func TestChart_StatsWindow(t *testing.T) {
	c := NewChart("scalar", nil, 2)
	require.NoError(t, c.Render(samplesOf([]float64{100}, []float64{1}, []float64{3})))

	s := c.Summary()
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 2.0, s.Mean)
}

func TestChart_NextSeries(t *testing.T) {
	c := NewChart("telemetry", []string{"lat", "lon", "alt_km"}, 0)
	assert.Equal(t, "lat", c.Series())
	assert.Equal(t, "lon", c.NextSeries())
	assert.Equal(t, "alt_km", c.NextSeries())
	assert.Equal(t, "lat", c.NextSeries())

	c.NextSeries()
	c.NextSeries()
	require.NoError(t, c.Render(samplesOf([]float64{10, 20, 429})))
	assert.Equal(t, 429.0, c.Summary().Last)
}

func TestChart_MissingSeriesIsAnError(t *testing.T) {
	c := NewChart("telemetry", []string{"lat", "lon", "alt_km"}, 0)
	c.NextSeries()
	c.NextSeries()

	err := c.Render(samplesOf([]float64{1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alt_km")
}

func TestChart_TrackToggle(t *testing.T) {
	scalar := NewChart("scalar", nil, 0)
	assert.False(t, scalar.CanTrack())
	assert.False(t, scalar.ToggleTrack())
	assert.False(t, scalar.Tracking())

	c := NewChart("telemetry", []string{"lat", "lon", "alt_km"}, 0)
	c.SetSize(40, 4)
	assert.True(t, c.CanTrack())
	assert.True(t, c.ToggleTrack())

	require.NoError(t, c.Render(samplesOf([]float64{10, 20, 429}, []float64{11, 25, 430})))
	frame := stripANSI(c.Frame())
	assert.Contains(t, frame, "track lon/lat")
	assert.Contains(t, frame, "25, 11", "head shows the latest lon, lat")
	assert.Contains(t, frame, "lon -180..180")

	assert.False(t, c.ToggleTrack())
}

func TestChart_SetSize(t *testing.T) {
	c := NewChart("scalar", nil, 0)
	assert.False(t, c.SetSize(DefaultChartWidth, DefaultChartHeight))
	assert.True(t, c.SetSize(100, 20))
	assert.True(t, c.SetSize(5, 0), "sizes are clamped but still applied")
	assert.False(t, c.SetSize(20, minChartHeight))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0.841471", FormatValue(0.8414709848))
	assert.Equal(t, "429", FormatValue(429))
	assert.Equal(t, "-1", FormatValue(-1))
}
