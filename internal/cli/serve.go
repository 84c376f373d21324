package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/fv/internal/config"
	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/feed"
	"github.com/rileyhilliard/fv/internal/httpview"
	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/metrics"
	"github.com/rileyhilliard/fv/internal/render"
	"github.com/rileyhilliard/fv/internal/ui"
)

var serveDaemon bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a live web chart, JSON API and Prometheus metrics",
	Long: `Subscribe to the topic and serve the buffer over HTTP:

  /                 live chart
  /api/v1/data      buffered samples (?since=SEQ, ?last=N)
  /api/v1/current   newest sample and rolling stats
  /api/v1/stream    websocket: a snapshot, then each redraw's new samples
  /metrics          Prometheus metrics
  /health           liveness

With --daemon fv detaches and writes a pid file; stop it with fv stop.

Examples:
  fv serve
  fv serve --addr 127.0.0.1:8080 --topic Satellite/Iss --decoder telemetry
  fv serve --daemon --work-dir /var/run/fv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if serveDaemon {
			dctx := daemonContext(cfg)
			child, err := dctx.Reborn()
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrServe,
					"Couldn't start the daemon",
					"Check that "+dctx.PidFileName+" isn't held by a running fv serve (fv stop)")
			}
			if child != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s fv serve running as pid %d (log: %s)\n",
					ui.SymbolSuccess, child.Pid, dctx.LogFileName)
				return nil
			}
			defer dctx.Release()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, cmd.ErrOrStderr())
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a daemonized fv serve",
	Long: `Send SIGTERM to the fv serve daemon recorded in the pid file.

The pid file is looked up the same way serve writes it, so pass the same
--pid and --work-dir (or config) that serve used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return stopDaemon(daemonContext(cfg), cmd.OutOrStdout())
	},
}

// runServe wires listener, metrics, HTTP server and render loop, then
// serves until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, status io.Writer) error {
	log := logger.NewEnvLogger("fv")
	m := metrics.New(decode.Labels(cfg.Feed.Decoder, cfg.Feed.Key))

	p, err := newPipeline(cfg, log, feed.WithObserver(m))
	if err != nil {
		return err
	}
	m.WatchBuffer(p.buf)
	ctx, cancel := p.bind(ctx)
	defer cancel()

	srv, err := httpview.New(p.buf, httpview.Options{
		Addr:        cfg.Serve.Addr,
		Title:       "fv " + cfg.Feed.Topic,
		Topic:       cfg.Feed.Topic,
		Labels:      p.labels,
		StatsWindow: cfg.Stats.Window,
		Metrics:     m.Handler(),
		Logger:      log,
	})
	if err != nil {
		return err
	}

	if err := p.start(ctx, status, isTerminal(status)); err != nil {
		return err
	}
	defer p.stop()

	fmt.Fprint(status, banner(p.url, cfg.Feed.Topic))
	loop := render.NewLoop(p.buf, srv, cfg.Render.Interval,
		render.WithMode(render.ModeIncremental),
		render.WithObserver(m),
		render.WithLogger(log))

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(ctx)
	}()
	defer func() { <-loopDone }()

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	return lostErr(ctx)
}

// daemonContext describes the detached serve process. Relative pid and log
// paths live in the work dir.
func daemonContext(cfg *config.Config) *daemon.Context {
	return &daemon.Context{
		PidFileName: inDir(cfg.Serve.WorkDir, cfg.Serve.PidFile),
		PidFilePerm: 0644,
		LogFileName: inDir(cfg.Serve.WorkDir, cfg.Serve.LogFile),
		LogFilePerm: 0640,
		WorkDir:     cfg.Serve.WorkDir,
		Umask:       027,
		Args:        os.Args,
	}
}

func inDir(dir, path string) string {
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

func stopDaemon(dctx *daemon.Context, out io.Writer) error {
	proc, err := dctx.Search()
	if err != nil && !os.IsNotExist(err) {
		return errors.WrapWithCode(err, errors.ErrServe,
			"Couldn't read "+dctx.PidFileName,
			"Pass the --pid and --work-dir that fv serve was started with")
	}
	if proc == nil {
		fmt.Fprintf(out, "%s fv serve is not running\n", ui.WarningStyle().Render(ui.SymbolSkipped))
		return nil
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			fmt.Sprintf("Couldn't signal pid %d", proc.Pid), "")
	}
	fmt.Fprintf(out, "%s sent SIGTERM to pid %d\n", ui.SuccessStyle().Render(ui.SymbolSuccess), proc.Pid)
	return nil
}

func addDaemonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("pid", "", "daemon pid file (relative to --work-dir)")
	f.String("log", "", "daemon log file (relative to --work-dir)")
	f.String("work-dir", "", "daemon working directory")
}

func init() {
	addRenderFlags(serveCmd)
	addDaemonFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default :2999)")
	serveCmd.Flags().BoolVar(&serveDaemon, "daemon", false, "detach and run in the background")
	rootCmd.AddCommand(serveCmd)

	addDaemonFlags(stopCmd)
	rootCmd.AddCommand(stopCmd)
}
