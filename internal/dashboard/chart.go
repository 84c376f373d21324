package dashboard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/sample"
	"github.com/rileyhilliard/fv/internal/stats"
	"github.com/rileyhilliard/fv/internal/ui"
)

// Default chart body size before the first window size message.
const (
	DefaultChartWidth  = 80
	DefaultChartHeight = 12
	minChartHeight     = 3
)

// Chart is the dashboard's render.Renderer. A draw turns the snapshot into a
// finished frame; View only pastes the latest frame.
type Chart struct {
	mu sync.Mutex

	kind   string
	labels []string
	window int

	width, height int
	series        int

	track          bool
	canTrack       bool
	trackX, trackY int

	frame   string
	summary stats.Summary
	count   int
	last    sample.Sample
	draws   int
}

// NewChart creates a chart for a decoder kind. labels name the value
// columns; statsWindow bounds the summary statistics (0 = all samples).
func NewChart(kind string, labels []string, statsWindow int) *Chart {
	if len(labels) == 0 {
		labels = []string{"value"}
	}
	c := &Chart{
		kind:   kind,
		labels: labels,
		window: statsWindow,
		width:  DefaultChartWidth,
		height: DefaultChartHeight,
	}
	c.trackX, c.trackY, c.canTrack = decode.TrackColumns(kind)
	return c
}

// Render implements render.Renderer.
func (c *Chart) Render(samples []sample.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	values := sample.Column(samples, c.series)
	if len(values) == 0 {
		return fmt.Errorf("no %q values in %d samples", c.labels[c.series], len(samples))
	}

	c.count = len(samples)
	c.last = samples[len(samples)-1]
	c.summary = stats.Summarize(values, c.window)
	c.draws++

	if c.track {
		c.frame = c.drawTrack(samples)
	} else {
		c.frame = c.drawLine(values)
	}
	return nil
}

func (c *Chart) drawLine(values []float64) string {
	label := c.labels[c.series]
	minVal, maxVal := findMinMax(values)
	top, bottom := FormatValue(maxVal), FormatValue(minVal)
	gutter := lipgloss.Width(top)
	if w := lipgloss.Width(bottom); w > gutter {
		gutter = w
	}

	plotWidth := c.width - 4 - gutter - 1
	if plotWidth < 1 {
		plotWidth = 1
	}
	plot := strings.Split(RenderBrailleLine(values, plotWidth, c.height, ui.SeriesColor(c.series)), "\n")

	var b strings.Builder
	b.WriteString(SectionHeader(label, FormatValue(c.summary.Last), c.width))
	for i, row := range plot {
		axis := strings.Repeat(" ", gutter)
		switch i {
		case 0:
			axis = fmt.Sprintf("%*s", gutter, top)
		case len(plot) - 1:
			axis = fmt.Sprintf("%*s", gutter, bottom)
		}
		b.WriteString("\n")
		b.WriteString(SectionContentLine(AxisStyle.Render(axis)+" "+row, c.width))
	}
	b.WriteString("\n")
	b.WriteString(SectionFooter(c.width))
	return b.String()
}

func (c *Chart) drawTrack(samples []sample.Sample) string {
	xs := sample.Column(samples, c.trackX)
	ys := sample.Column(samples, c.trackY)

	bounds := FitBounds(xs, ys)
	if decode.Kind(c.kind) == decode.KindTelemetry {
		bounds = WorldBounds
	}

	plotWidth := c.width - 4
	if plotWidth < 1 {
		plotWidth = 1
	}
	plot := RenderBrailleTrack(xs, ys, plotWidth, c.height, bounds, ui.ColorNeonCyan, ui.ColorNeonPink)

	xLabel, yLabel := c.labels[c.trackX], c.labels[c.trackY]
	title := "track " + xLabel + "/" + yLabel
	head := fmt.Sprintf("%s, %s", FormatValue(xs[len(xs)-1]), FormatValue(ys[len(ys)-1]))

	var b strings.Builder
	b.WriteString(SectionHeader(title, head, c.width))
	for _, row := range strings.Split(plot, "\n") {
		b.WriteString("\n")
		b.WriteString(SectionContentLine(row, c.width))
	}
	caption := fmt.Sprintf("%s %s..%s  %s %s..%s",
		xLabel, FormatValue(bounds.MinX), FormatValue(bounds.MaxX),
		yLabel, FormatValue(bounds.MinY), FormatValue(bounds.MaxY))
	b.WriteString("\n")
	b.WriteString(SectionContentLine(AxisStyle.Render(caption), c.width))
	b.WriteString("\n")
	b.WriteString(SectionFooter(c.width))
	return b.String()
}

// SetSize sets the outer width and the plot height. It reports whether
// anything changed.
func (c *Chart) SetSize(width, height int) bool {
	if height < minChartHeight {
		height = minChartHeight
	}
	if width < 20 {
		width = 20
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.width == width && c.height == height {
		return false
	}
	c.width, c.height = width, height
	return true
}

// NextSeries selects the next value column and returns its label.
func (c *Chart) NextSeries() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = (c.series + 1) % len(c.labels)
	return c.labels[c.series]
}

// Series returns the label of the selected value column.
func (c *Chart) Series() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.labels[c.series]
}

// ToggleTrack switches between the line chart and the track plot. Kinds
// without a position stay on the line chart.
func (c *Chart) ToggleTrack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canTrack {
		return false
	}
	c.track = !c.track
	return c.track
}

// CanTrack reports whether the decoder kind supports the track plot.
func (c *Chart) CanTrack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canTrack
}

func (c *Chart) Tracking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.track
}

// Frame returns the most recently drawn frame.
func (c *Chart) Frame() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

func (c *Chart) Summary() stats.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Count returns how many samples the last draw covered.
func (c *Chart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Last returns the newest sample drawn, if any.
func (c *Chart) Last() (sample.Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.count > 0
}

// Draws counts successful draws.
func (c *Chart) Draws() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draws
}

// FormatValue prints v with up to six significant digits.
func FormatValue(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
