package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Neon palette.
const (
	ColorNeonPink   lipgloss.Color = "#FF2E97"
	ColorNeonCyan   lipgloss.Color = "#00FFFF"
	ColorNeonPurple lipgloss.Color = "#B026FF"
	ColorNeonGreen  lipgloss.Color = "#39FF14"
	ColorNeonOrange lipgloss.Color = "#FF6B35"
	ColorNeonAmber  lipgloss.Color = "#FFAA00"

	ColorDarkSurface lipgloss.Color = "#1A1033"
	ColorGlassBorder lipgloss.Color = "#3D2C5E"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = ColorNeonGreen
	ColorError   lipgloss.Color = "#FF0055"
	ColorWarning lipgloss.Color = ColorNeonAmber
	ColorInfo    lipgloss.Color = ColorNeonCyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "#F0F0F0"
	ColorSecondary lipgloss.Color = ColorNeonPurple
	ColorMuted     lipgloss.Color = "#6C6783"
)

// SeriesColors colors chart lines, one per value column. Index with
// SeriesColor so any column count works.
var SeriesColors = []lipgloss.Color{
	ColorNeonCyan,
	ColorNeonPink,
	ColorNeonGreen,
	ColorNeonAmber,
	ColorNeonPurple,
	ColorNeonOrange,
}

// GradientColors are cycled by the CLI spinner.
var GradientColors = []lipgloss.Color{
	ColorNeonPink,
	ColorNeonPurple,
	ColorNeonCyan,
	ColorNeonGreen,
}

// SeriesColor returns the chart color for value column i.
func SeriesColor(i int) lipgloss.Color {
	if i < 0 {
		i = -i
	}
	return SeriesColors[i%len(SeriesColors)]
}

func SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }
func ErrorStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorError) }
func WarningStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorWarning) }
func MutedStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorMuted) }

// DisableColors switches lipgloss to plain ASCII output (--no-color, NO_COLOR).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ApplyColorMode sets the color profile from the output.color setting.
// "auto" keeps whatever lipgloss detected for stdout.
func ApplyColorMode(mode string) {
	switch mode {
	case "never":
		DisableColors()
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}
