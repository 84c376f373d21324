package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/fv/internal/config"
	"github.com/rileyhilliard/fv/internal/dashboard"
	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/render"
	"github.com/rileyhilliard/fv/internal/sample"
	"github.com/rileyhilliard/fv/internal/stats"
	"github.com/rileyhilliard/fv/internal/ui"
)

const sparkWidth = 24

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the feed as log lines",
	Long: `Subscribe to the topic and print a line for every new sample, with a
sparkline of the first value and its z-score against the stats window.

With --mode full each redraw prints one summary line of the whole buffer
instead.

Examples:
  fv tail --topic 1/testPoints/sinus
  fv tail --decoder telemetry --topic Satellite/Iss
  fv tail --mode full --interval 2s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runTail(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// runTail connects, then prints until ctx is cancelled. Only setup and
// connection failures are returned, including a connection lost with
// reconnect turned off.
func runTail(ctx context.Context, cfg *config.Config, out, status io.Writer) error {
	log := logger.NewEnvLogger("fv")
	p, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}
	ctx, cancel := p.bind(ctx)
	defer cancel()
	if err := p.start(ctx, status, isTerminal(status)); err != nil {
		return err
	}
	defer p.stop()

	mode, err := render.ParseMode(cfg.Render.Mode)
	if err != nil {
		return err
	}
	r := newConsoleRenderer(out, p.labels, cfg.Stats.Window, mode)
	loop := render.NewLoop(p.buf, r, cfg.Render.Interval, render.WithMode(mode), render.WithLogger(log))

	fmt.Fprint(status, banner(p.url, cfg.Feed.Topic))
	// Run only returns once ctx is done, which is a normal exit unless the
	// feed went away.
	_ = loop.Run(ctx)
	return lostErr(ctx)
}

// banner is the header printed above tail and serve output.
func banner(url, topic string) string {
	return ui.RenderHeader(ui.HeaderInfo{
		Version: formatVersion(version),
		Tagline: "MQTT feed viewer",
		Detail:  ui.SymbolLive + " " + url + "  " + topic,
	}) + "\n"
}

// consoleRenderer writes samples as text lines.
type consoleRenderer struct {
	out     io.Writer
	labels  []string
	mode    render.Mode
	windows []*stats.Window
	history []float64
}

func newConsoleRenderer(out io.Writer, labels []string, window int, mode render.Mode) *consoleRenderer {
	r := &consoleRenderer{out: out, labels: labels, mode: mode}
	for range labels {
		r.windows = append(r.windows, stats.NewWindow(window))
	}
	return r
}

func (r *consoleRenderer) Render(samples []sample.Sample) error {
	if r.mode == render.ModeFull {
		return r.renderSummary(samples)
	}
	for _, s := range samples {
		if _, err := io.WriteString(r.out, r.line(s)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// line formats one sample and pushes its values into the windows. The
// z-score compares the value against the window before it is pushed.
func (r *consoleRenderer) line(s sample.Sample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%-6d %s", s.Seq, formatTimestamp(s))

	z := 0.0
	for i, label := range r.labels {
		v, ok := s.At(i)
		if !ok {
			continue
		}
		if i == 0 && r.windows[i].Size() > 0 {
			z = r.windows[i].ZScore(v)
		}
		r.windows[i].Push(v)
		fmt.Fprintf(&b, "  %s=%s", label, dashboard.FormatValue(v))
	}

	r.history = append(r.history, s.Value())
	if len(r.history) > sparkWidth {
		r.history = r.history[len(r.history)-sparkWidth:]
	}
	fmt.Fprintf(&b, "  %s  z=%+.2f", ui.RenderSparkline(r.history, sparkWidth), z)
	return b.String()
}

func (r *consoleRenderer) renderSummary(samples []sample.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	last := samples[len(samples)-1]
	var b strings.Builder
	fmt.Fprintf(&b, "#%-6d %s  n=%d", last.Seq, formatTimestamp(last), len(samples))
	for i, label := range r.labels {
		col := sample.Column(samples, i)
		if len(col) == 0 {
			continue
		}
		sum := stats.Summarize(col, r.windows[i].Capacity())
		fmt.Fprintf(&b, "  %s=%s [%s..%s]", label,
			dashboard.FormatValue(sum.Last), dashboard.FormatValue(sum.Min), dashboard.FormatValue(sum.Max))
	}
	fmt.Fprintf(&b, "  %s\n", ui.RenderSparkline(sample.Column(samples, 0), sparkWidth))
	_, err := io.WriteString(r.out, b.String())
	return err
}

// formatTimestamp prints the source timestamp as local wall time, or "-"
// for feeds without one.
func formatTimestamp(s sample.Sample) string {
	if !s.HasTimestamp {
		return "-"
	}
	return time.UnixMilli(s.Timestamp).Format("15:04:05.000")
}

func init() {
	addRenderFlags(tailCmd)
	tailCmd.Flags().StringP("mode", "m", "", "incremental (a line per sample) or full (a summary line per redraw)")
	rootCmd.AddCommand(tailCmd)
}
