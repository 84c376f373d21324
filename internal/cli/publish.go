package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/fv/internal/config"
	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/feed"
	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/publish"
	"github.com/rileyhilliard/fv/internal/ui"
	"github.com/rileyhilliard/fv/internal/util"
)

// newPublisher builds the MQTT publisher. Tests replace it with a fake.
var newPublisher = func(opts feed.Options, log logger.Logger) (publish.Publisher, error) {
	return publish.NewPahoPublisher(opts, log)
}

var (
	publishCount int
	publishQuiet bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a demo feed",
	Long: `Publish generated payloads to the topic at a fixed rate, for trying the
viewers without a real data source.

Generators:
  sinus   a sine wave as a bare float ("0.841471")
  keyed   the same wave as JSON ({"value": 0.841471}, field from --key)
  iss     satellite telemetry on a circular low earth orbit

Examples:
  fv publish
  fv publish --generator iss --topic Satellite/Iss --period 1s
  fv publish --generator keyed --key temperature --count 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPublish(ctx, cfg, cmd.OutOrStdout())
	},
}

func runPublish(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log := logger.NewEnvLogger("fv")

	gen, err := publish.NewGenerator(cfg.Publish.Generator, cfg.Wave())
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Unknown generator "+cfg.Publish.Generator,
			"Use one of: "+util.JoinOrNone(publish.Kinds()))
	}

	opts := cfg.FeedOptions()
	feed.BridgeLogs(log)
	pub, err := newPublisher(opts, log)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't set up the MQTT client",
			"Check broker.host: a hostname or a tcp://, ssl:// or ws:// URL")
	}

	fmt.Fprintf(out, "%s publishing %s to %s on %s every %s\n", ui.SymbolLive,
		cfg.Publish.Generator, cfg.Feed.Topic, opts.BrokerURL(), cfg.Publish.Interval)

	sent, err := publish.Run(ctx, pub, gen, publish.RunOptions{
		Topic:    cfg.Feed.Topic,
		Retained: cfg.Publish.Retained,
		Interval: cfg.Publish.Interval,
		Count:    publishCount,
		Logger:   log,
		OnPublish: func(n int, payload []byte) {
			if !publishQuiet {
				fmt.Fprintf(out, "#%-6d %s\n", n, payload)
			}
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s published %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), util.Count(sent, "message", "messages"))
	return nil
}

func init() {
	f := publishCmd.Flags()
	f.StringP("generator", "g", "", "payload generator: sinus, keyed, iss")
	f.Duration("period", 0, "time between messages (default 1s)")
	f.IntVarP(&publishCount, "count", "c", 0, "stop after this many messages (0 = until interrupted)")
	f.Bool("retained", false, "publish with the retained flag")
	f.Float64("amplitude", 0, "sine wave amplitude")
	f.Float64("step", 0, "sine wave phase step per message, in radians")
	f.BoolVarP(&publishQuiet, "quiet", "q", false, "don't echo each payload")
	rootCmd.AddCommand(publishCmd)
}
