package dashboard

import tea "github.com/charmbracelet/bubbletea"

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRedraw      = "r"
	KeyNextSeries  = "tab"
	KeyToggleTrack = "t"
	KeyPause       = " "
	KeyToggleHelp  = "?"
	KeyClose       = "esc"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyClose {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRedraw:
		m.redraw()
		return true, nil

	case KeyNextSeries:
		m.chart.NextSeries()
		m.redraw()
		return true, nil

	case KeyToggleTrack:
		m.chart.ToggleTrack()
		m.redraw()
		return true, nil

	case KeyPause:
		m.paused = !m.paused
		return true, nil
	}

	return false, nil
}
