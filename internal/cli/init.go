package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/fv/internal/config"
	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Where to write; defaults to ./.fv.yaml
	Overwrite      bool   // Overwrite an existing config without asking
	NonInteractive bool   // Skip prompts, keep defaults and flag values
	Out            io.Writer
}

// Init writes a config file seeded from cfg. Interactive runs prompt for
// the broker and feed settings first.
func Init(cfg *config.Config, opts InitOptions) error {
	if opts.Path == "" {
		opts.Path = filepath.Join(".", config.ConfigFileName)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if _, err := os.Stat(opts.Path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", opts.Path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", opts.Path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(opts.Out, "Cancelled.")
			return nil
		}
		opts.Overwrite = true
	}

	if !opts.NonInteractive {
		if err := promptConfig(cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --non-interactive flag")
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(opts.Path, cfg, opts.Overwrite); err != nil {
		return err
	}

	fmt.Fprintf(opts.Out, "%s Wrote %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), opts.Path)
	fmt.Fprintf(opts.Out, "\n  Try it: fv watch\n")
	return nil
}

// promptConfig asks for the broker and feed settings, prefilled from cfg.
func promptConfig(cfg *config.Config) error {
	port := strconv.Itoa(cfg.Broker.Port)
	decoders := make([]huh.Option[string], 0, len(decode.Kinds()))
	for _, k := range decode.Kinds() {
		decoders = append(decoders, huh.NewOption(k, k))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("MQTT broker").
				Description("Hostname, or a URL such as ws://broker:8080/mqtt").
				Placeholder("localhost").
				Value(&cfg.Broker.Host).
				Validate(required("broker host")),
			huh.NewInput().
				Title("Port").
				Value(&port).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 || n > 65535 {
						return fmt.Errorf("port must be a number between 1 and 65535")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Topic").
				Placeholder(config.DefaultTopic).
				Value(&cfg.Feed.Topic).
				Validate(required("topic")),
			huh.NewSelect[string]().
				Title("Payload format").
				Options(decoders...).
				Value(&cfg.Feed.Decoder),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("JSON field").
				Description("Field read by the keyed decoder; dotted paths reach into objects").
				Value(&cfg.Feed.Key),
		).WithHideFunc(func() bool {
			return cfg.Feed.Decoder != string(decode.KindKeyed)
		}),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Broker.Host = strings.TrimSpace(cfg.Broker.Host)
	cfg.Broker.Port, _ = strconv.Atoi(strings.TrimSpace(port))
	return nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

var (
	initForce          bool
	initNonInteractive bool
	initGlobal         bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file",
	Long: `Write a .fv.yaml in the current directory, or ~/.config/fv/config.yaml
with --global. Connection flags (--host, --topic, --decoder, ...) prefill
the answers.

Examples:
  fv init
  fv init --host test.mosquitto.org --topic Satellite/Iss --decoder telemetry --non-interactive
  fv init --global`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		opts := InitOptions{
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
			Out:            cmd.OutOrStdout(),
		}
		if initGlobal {
			home, err := os.UserHomeDir()
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Couldn't find your home directory",
					"Set HOME or write a project config without --global")
			}
			opts.Path = config.GlobalPath(home)
		}
		return Init(cfg, opts)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "don't prompt; use defaults and flags")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/fv/config.yaml")
	rootCmd.AddCommand(initCmd)
}
