// Package dashboard is the full-screen terminal view behind `fv watch`.
//
// The Bubble Tea tick drives render.Loop.Tick directly, so every draw happens
// on the UI goroutine and the Chart renderer never races with View.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/feed"
	"github.com/rileyhilliard/fv/internal/render"
	"github.com/rileyhilliard/fv/internal/ui"
)

// Layout rows around the chart body: header, gap, section borders, stats
// line and the two footer lines.
const chrome = 8

// FeedStatus reports listener activity. *feed.Listener implements it.
type FeedStatus interface {
	Stats() feed.Stats
	LastError() *decode.Error
}

// Config wires a Model.
type Config struct {
	Loop  *render.Loop
	Chart *Chart
	// Feed is optional; without it the footer omits message counts.
	Feed   FeedStatus
	Broker string
	Topic  string
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	loop   *render.Loop
	chart  *Chart
	feed   FeedStatus
	broker string
	topic  string

	spinner spinner.Model
	width   int
	height  int

	paused   bool
	showHelp bool
	quitting bool

	lastDraw  time.Time
	lastState render.State
	renderErr error
}

// tickMsg signals a render loop tick.
type tickMsg time.Time

// NewModel creates a dashboard model.
func NewModel(cfg Config) Model {
	return Model{
		loop:    cfg.Loop,
		chart:   cfg.Chart,
		feed:    cfg.Feed,
		broker:  cfg.Broker,
		topic:   cfg.Topic,
		spinner: ui.NewBubblesSpinner(),
	}
}

// Init starts the tick timer and the waiting spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.spinner.Tick)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.chart.SetSize(m.width, m.height-chrome) {
			m.redraw()
		}

	case tickMsg:
		if !m.paused {
			m.tick()
		}
		return m, m.tickCmd()

	case spinner.TickMsg:
		if m.Waiting() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.loop.Interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// tick runs one render loop cycle and records the outcome.
func (m *Model) tick() {
	state, err := m.loop.Tick()
	m.lastState = state
	if state == render.StateDraw {
		m.lastDraw = time.Now()
		m.renderErr = err
	}
}

// redraw forces a draw with the current chart settings.
func (m *Model) redraw() {
	m.loop.Reset()
	m.tick()
}

// Waiting reports whether nothing has been drawn yet.
func (m Model) Waiting() bool {
	return m.chart.Count() == 0
}

// Paused reports whether ticks are suspended.
func (m Model) Paused() bool {
	return m.paused
}

// SecondsSinceUpdate returns how many seconds have passed since the last draw.
func (m Model) SecondsSinceUpdate() int {
	if m.lastDraw.IsZero() {
		return 0
	}
	return int(time.Since(m.lastDraw).Seconds())
}
