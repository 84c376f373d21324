package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/fv/internal/ui"
	"github.com/rileyhilliard/fv/internal/util"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.Waiting() {
		b.WriteString(m.renderWaiting())
	} else {
		b.WriteString(m.chart.Frame())
		b.WriteString("\n")
		b.WriteString(m.renderStats())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title bar with feed and update info.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("fv watch")

	parts := []string{m.broker, m.topic}
	if last, ok := m.chart.Last(); ok {
		parts = append(parts, util.Count(m.chart.Count(), "sample", "samples"), fmt.Sprintf("seq %d", last.Seq))
		parts = append(parts, "updated "+formatAgo(m.SecondsSinceUpdate()))
	}
	info := LabelStyle.Render(" | " + strings.Join(nonEmpty(parts), " | "))

	header := HeaderStyle.Render(title + info)
	if m.paused {
		header += " " + PausedStyle.Render(ui.SymbolPaused+" paused")
	}
	return header
}

func (m Model) renderWaiting() string {
	return m.spinner.View() + " " + LabelStyle.Render("Waiting for data on "+m.topic)
}

// renderStats renders last/min/max/mean/stddev of the selected series.
func (m Model) renderStats() string {
	s := m.chart.Summary()
	field := func(name string, v float64) string {
		return LabelStyle.Render(name+" ") + ValueStyle.Render(FormatValue(v))
	}
	fields := []string{
		LabelStyle.Render(m.chart.Series()),
		field("last", s.Last),
		field("min", s.Min),
		field("max", s.Max),
		field("mean", s.Mean),
		field("σ", s.StdDev),
		AxisStyle.Render(fmt.Sprintf("(n=%d)", s.Count)),
	}
	return " " + strings.Join(fields, "  ")
}

// renderFooter renders the error line and the keyboard hints.
func (m Model) renderFooter() string {
	var status string
	switch {
	case m.renderErr != nil:
		status = RenderErrorStyle.Render(ui.SymbolFail + " " + m.renderErr.Error())
	case m.feed != nil && m.feed.LastError() != nil:
		st := m.feed.Stats()
		status = DecodeErrorStyle.Render(fmt.Sprintf("%s dropped %d of %d: %v",
			ui.SymbolWarning, st.Dropped, st.Received, m.feed.LastError()))
	case m.feed != nil:
		st := m.feed.Stats()
		status = AxisStyle.Render(fmt.Sprintf("%s %d received", ui.SymbolLive, st.Received))
	}

	hints := []string{"q quit", "tab series"}
	if m.chart.CanTrack() {
		hints = append(hints, "t track")
	}
	hints = append(hints, "space pause", "r redraw", "? help")

	return FooterStyle.Render(status) + "\n" + FooterStyle.Render(strings.Join(hints, " | "))
}

func formatAgo(secs int) string {
	switch secs {
	case 0:
		return "just now"
	case 1:
		return "1s ago"
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}

func nonEmpty(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
