package cli

import (
	"context"
	stderrors "errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/fv/internal/config"
	"github.com/rileyhilliard/fv/internal/dashboard"
	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/render"
)

// debugLogFile receives log output while the dashboard owns the terminal.
const debugLogFile = "fv-debug.log"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open a live dashboard of the feed",
	Long: `Subscribe to the topic and redraw a terminal chart of the buffered
samples on every interval that brought new data.

Keys: tab next series, t track view, space pause, r redraw, ? help, q quit.

When stdout is not a terminal, watch prints log lines like fv tail.

Examples:
  fv watch
  fv watch --topic Satellite/Iss --decoder telemetry
  fv watch --decoder keyed --key temperature --interval 1s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !isTerminal(cmd.OutOrStdout()) {
			return runTail(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		}
		return runWatch(ctx, cfg)
	},
}

func runWatch(ctx context.Context, cfg *config.Config) error {
	// The dashboard owns the screen, so logs go to a file or nowhere.
	if logger.DebugEnabled() {
		f, err := tea.LogToFile(debugLogFile, "fv")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't open "+debugLogFile,
				"Run from a writable directory or drop --debug")
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)
	}

	lg := logger.NewEnvLogger("fv")
	p, err := newPipeline(cfg, lg)
	if err != nil {
		return err
	}
	ctx, cancel := p.bind(ctx)
	defer cancel()
	if err := p.start(ctx, os.Stderr, true); err != nil {
		return err
	}
	defer p.stop()

	chart := dashboard.NewChart(cfg.Feed.Decoder, p.labels, cfg.Stats.Window)
	loop := render.NewLoop(p.buf, chart, cfg.Render.Interval,
		render.WithMode(render.ModeFull), render.WithLogger(lg))
	model := dashboard.NewModel(dashboard.Config{
		Loop:   loop,
		Chart:  chart,
		Feed:   p.listener,
		Broker: p.url,
		Topic:  cfg.Feed.Topic,
	})

	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = prog.Run()
	if lost := lostErr(ctx); lost != nil {
		return lost
	}
	if err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return errors.WrapWithCode(err, errors.ErrRender,
			"Dashboard exited unexpectedly",
			"Try fv tail, or rerun with --debug and check "+debugLogFile)
	}
	return nil
}

func init() {
	addRenderFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
