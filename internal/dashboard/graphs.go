package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille character rendering for high-resolution terminal graphs.
//
// Braille patterns use a 2x4 dot matrix per character:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
//
// Unicode braille starts at U+2800 (empty) and uses bit patterns:
// bit 0 = dot 1, bit 1 = dot 2, bit 2 = dot 3, bit 3 = dot 4,
// bit 4 = dot 5, bit 5 = dot 6, bit 6 = dot 7, bit 7 = dot 8

const brailleBase = '\u2800'

// brailleDots maps row/column to the bit offset for braille pattern
// [row][col] where row is 0-3 (top to bottom) and col is 0-1 (left to right)
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// findMinMax returns the minimum and maximum values in a slice.
func findMinMax(data []float64) (minVal, maxVal float64) {
	if len(data) == 0 {
		return 0, 0
	}
	minVal, maxVal = data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// normalizeValue converts a value to 0-1 range given min/max bounds.
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal > minVal {
		return (val - minVal) / (maxVal - minVal)
	}
	return 0.5
}

// clampInt clamps an integer to a range [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// brailleGrid is a canvas of width x height braille cells, i.e.
// (width*2) x (height*4) dots. Dot (0, 0) is bottom left.
type brailleGrid struct {
	width, height int
	cells         [][]rune
}

func newBrailleGrid(width, height int) *brailleGrid {
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = make([]rune, width)
		for j := range cells[i] {
			cells[i][j] = brailleBase
		}
	}
	return &brailleGrid{width: width, height: height, cells: cells}
}

func (g *brailleGrid) set(x, y int) {
	if x < 0 || y < 0 || x >= g.width*2 || y >= g.height*4 {
		return
	}
	row := g.height - 1 - y/4
	subRow := 3 - y%4
	g.cells[row][x/2] |= rune(1 << brailleDots[subRow][x%2])
}

// cell returns the character cell holding dot (x, y).
func (g *brailleGrid) cell(x, y int) (row, col int) {
	return g.height - 1 - y/4, x / 2
}

// render styles every cell with base, except highlighted cells.
func (g *brailleGrid) render(base lipgloss.Style, highlight map[[2]int]lipgloss.Style) []string {
	lines := make([]string, g.height)
	for r, row := range g.cells {
		var b strings.Builder
		for c, ch := range row {
			style := base
			if hs, ok := highlight[[2]int{r, c}]; ok {
				style = hs
			}
			b.WriteString(style.Render(string(ch)))
		}
		lines[r] = b.String()
	}
	return lines
}

// RenderBrailleLine plots data as a connected line. Each character holds two
// data points horizontally and four levels vertically. Data is scaled to its
// own min/max and right-aligned when shorter than the chart.
func RenderBrailleLine(data []float64, width, height int, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := findMinMax(data)
	totalDots := height * 4
	targetPoints := width * 2

	resampled := data
	if len(data) > targetPoints {
		resampled = resampleData(data, targetPoints)
	}
	horizOffset := targetPoints - len(resampled)

	grid := newBrailleGrid(width, height)
	prev := -1
	for i, val := range resampled {
		x := i + horizOffset
		level := clampInt(int(normalizeValue(val, minVal, maxVal)*float64(totalDots-1)+0.5), totalDots-1)

		// Join to the previous point with a vertical run in this column.
		lo, hi := level, level
		if prev >= 0 {
			if prev < lo {
				lo = prev + 1
			}
			if prev > hi {
				hi = prev - 1
			}
		}
		for y := lo; y <= hi; y++ {
			grid.set(x, y)
		}
		grid.set(x, level)
		prev = level
	}

	style := lipgloss.NewStyle().Foreground(color)
	return strings.Join(grid.render(style, nil), "\n")
}

// Bounds is a plot range.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// WorldBounds covers longitude on x and latitude on y.
var WorldBounds = Bounds{MinX: -180, MaxX: 180, MinY: -90, MaxY: 90}

// FitBounds returns the smallest bounds holding every point.
func FitBounds(xs, ys []float64) Bounds {
	minX, maxX := findMinMax(xs)
	minY, maxY := findMinMax(ys)
	return Bounds{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}
}

// RenderBrailleTrack plots (x, y) points as dots inside bounds. The cell
// holding the last point is drawn in headColor.
func RenderBrailleTrack(xs, ys []float64, width, height int, b Bounds, color, headColor lipgloss.Color) string {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n == 0 || width <= 0 || height <= 0 {
		return ""
	}

	grid := newBrailleGrid(width, height)
	maxX, maxY := width*2-1, height*4-1
	var headX, headY int
	for i := 0; i < n; i++ {
		x := clampInt(int(normalizeValue(xs[i], b.MinX, b.MaxX)*float64(maxX)+0.5), maxX)
		y := clampInt(int(normalizeValue(ys[i], b.MinY, b.MaxY)*float64(maxY)+0.5), maxY)
		grid.set(x, y)
		headX, headY = x, y
	}

	r, c := grid.cell(headX, headY)
	highlight := map[[2]int]lipgloss.Style{
		{r, c}: lipgloss.NewStyle().Foreground(headColor).Bold(true),
	}
	return strings.Join(grid.render(lipgloss.NewStyle().Foreground(color), highlight), "\n")
}

// resampleData resamples data to the target size.
// When downsampling (compressing), uses max-based sampling to preserve peaks/spikes.
// When upsampling (expanding), uses linear interpolation.
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}

	if len(data) == targetSize {
		return data
	}

	result := make([]float64, targetSize)

	if len(data) == 1 {
		for i := range result {
			result[i] = data[0]
		}
		return result
	}

	if len(data) > targetSize {
		bucketSize := float64(len(data)) / float64(targetSize)
		for i := 0; i < targetSize; i++ {
			start := int(float64(i) * bucketSize)
			end := int(float64(i+1) * bucketSize)
			if end > len(data) {
				end = len(data)
			}
			if start >= end {
				start = end - 1
			}
			if start < 0 {
				start = 0
			}

			maxVal := data[start]
			for j := start + 1; j < end; j++ {
				if data[j] > maxVal {
					maxVal = data[j]
				}
			}
			result[i] = maxVal
		}
		return result
	}

	scale := float64(len(data)-1) / float64(targetSize-1)
	for i := 0; i < targetSize; i++ {
		pos := float64(i) * scale
		idx := int(pos)
		frac := pos - float64(idx)

		if idx >= len(data)-1 {
			result[i] = data[len(data)-1]
		} else {
			result[i] = data[idx]*(1-frac) + data[idx+1]*frac
		}
	}

	return result
}
