package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerFrames is the braille scan animation shared by the CLI spinner
// and Bubble Tea views.
var SpinnerFrames = spinner.Spinner{
	Frames: spinnerFrames,
	FPS:    time.Second / 16,
}

// NewBubblesSpinner returns a bubbles spinner using SpinnerFrames.
func NewBubblesSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = SpinnerFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorSecondary)
	return sp
}
