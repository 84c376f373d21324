package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/fv/internal/config"
	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/ui"
)

// Global flags
var (
	cfgFile string
	debug   bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "fv",
	Short: "fv - watch an MQTT feed as a live chart",
	Long: `fv subscribes to an MQTT topic, decodes each message into numbers and
redraws them on a fixed interval: as a terminal dashboard, as log lines, or
as a web page with a live chart and Prometheus metrics.

Examples:
  fv watch --topic 1/testPoints/sinus
  fv watch --topic Satellite/Iss --decoder telemetry
  fv tail --decoder keyed --key temperature
  fv serve --addr :2999 --daemon
  fv publish --generator iss --topic Satellite/Iss`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logger.SetDebug(true)
		}
		if noColor || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
	},
}

// Execute runs the root command and exits 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError renders structured errors as-is and adds a hint for cobra's
// own usage errors.
func formatError(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Error()
	}
	msg := ui.SymbolFail + " " + err.Error() + "\n"
	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			if s := rootCmd.SuggestionsFor(name); len(s) > 0 {
				msg += "\n  Did you mean '" + s[0] + "'?\n"
			}
		}
		msg += "\n  Run 'fv --help' to see what's available.\n"
	}
	return msg
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls foo out of `unknown command "foo" for "fv"`.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// configDiscoveryState records how the config was found, for debug output.
type configDiscoveryState struct {
	Path        string
	FindErr     error
	LoadErr     error
	ValidateErr error
}

// loadConfig finds, loads and validates the config, then applies flag
// overrides from cmd. Flags are validated along with the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	state := configDiscoveryState{}
	defer func() {
		logger.Default().Debug("config: path=%q find=%v load=%v validate=%v",
			state.Path, state.FindErr, state.LoadErr, state.ValidateErr)
	}()

	path, err := config.Find(cfgFile)
	if err != nil {
		state.FindErr = err
		return nil, err
	}
	state.Path = path

	cfg, err := config.Load(path)
	if err != nil {
		state.LoadErr = err
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		state.ValidateErr = err
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		state.ValidateErr = err
		return nil, err
	}
	if !noColor {
		ui.ApplyColorMode(cfg.Output.Color)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .fv.yaml, walking up to the git root, then ~/.config/fv/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print debug logs (same as FV_DEBUG=1)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	addConnectionFlags(rootCmd)
}
