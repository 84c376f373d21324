package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/fv/internal/config"
	"github.com/rileyhilliard/fv/internal/errors"
)

// flagOverride copies one command-line flag into the config when the user
// set it explicitly. Unset flags leave file and env values alone.
type flagOverride struct {
	name  string
	apply func(cmd *cobra.Command, cfg *config.Config) error
}

func stringFlag(name string, field func(*config.Config) *string) flagOverride {
	return flagOverride{name, func(cmd *cobra.Command, cfg *config.Config) error {
		v, err := cmd.Flags().GetString(name)
		*field(cfg) = v
		return err
	}}
}

func intFlag(name string, field func(*config.Config) *int) flagOverride {
	return flagOverride{name, func(cmd *cobra.Command, cfg *config.Config) error {
		v, err := cmd.Flags().GetInt(name)
		*field(cfg) = v
		return err
	}}
}

func durationFlag(name string, field func(*config.Config) *time.Duration) flagOverride {
	return flagOverride{name, func(cmd *cobra.Command, cfg *config.Config) error {
		v, err := cmd.Flags().GetDuration(name)
		*field(cfg) = v
		return err
	}}
}

func floatFlag(name string, field func(*config.Config) *float64) flagOverride {
	return flagOverride{name, func(cmd *cobra.Command, cfg *config.Config) error {
		v, err := cmd.Flags().GetFloat64(name)
		*field(cfg) = v
		return err
	}}
}

func boolFlag(name string, field func(*config.Config) *bool) flagOverride {
	return flagOverride{name, func(cmd *cobra.Command, cfg *config.Config) error {
		v, err := cmd.Flags().GetBool(name)
		*field(cfg) = v
		return err
	}}
}

var overrides = []flagOverride{
	stringFlag("host", func(c *config.Config) *string { return &c.Broker.Host }),
	intFlag("port", func(c *config.Config) *int { return &c.Broker.Port }),
	stringFlag("client-id", func(c *config.Config) *string { return &c.Broker.ClientID }),
	durationFlag("connect-timeout", func(c *config.Config) *time.Duration { return &c.Broker.ConnectTimeout }),
	{"no-reconnect", func(cmd *cobra.Command, cfg *config.Config) error {
		v, err := cmd.Flags().GetBool("no-reconnect")
		cfg.Broker.Reconnect = !v
		return err
	}},

	stringFlag("topic", func(c *config.Config) *string { return &c.Feed.Topic }),
	stringFlag("decoder", func(c *config.Config) *string { return &c.Feed.Decoder }),
	stringFlag("key", func(c *config.Config) *string { return &c.Feed.Key }),

	intFlag("buffer", func(c *config.Config) *int { return &c.Buffer.Max }),
	durationFlag("interval", func(c *config.Config) *time.Duration { return &c.Render.Interval }),
	stringFlag("mode", func(c *config.Config) *string { return &c.Render.Mode }),
	intFlag("window", func(c *config.Config) *int { return &c.Stats.Window }),

	stringFlag("addr", func(c *config.Config) *string { return &c.Serve.Addr }),
	stringFlag("pid", func(c *config.Config) *string { return &c.Serve.PidFile }),
	stringFlag("log", func(c *config.Config) *string { return &c.Serve.LogFile }),
	stringFlag("work-dir", func(c *config.Config) *string { return &c.Serve.WorkDir }),

	stringFlag("generator", func(c *config.Config) *string { return &c.Publish.Generator }),
	durationFlag("period", func(c *config.Config) *time.Duration { return &c.Publish.Interval }),
	boolFlag("retained", func(c *config.Config) *bool { return &c.Publish.Retained }),
	floatFlag("amplitude", func(c *config.Config) *float64 { return &c.Publish.Amplitude }),
	floatFlag("step", func(c *config.Config) *float64 { return &c.Publish.Step }),
}

// applyFlags copies every flag the user set on cmd into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	for _, o := range overrides {
		f := cmd.Flags().Lookup(o.name)
		if f == nil || !f.Changed {
			continue
		}
		if err := o.apply(cmd, cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't read --"+o.name,
				"Run 'fv "+cmd.Name()+" --help' for the expected format")
		}
	}
	return nil
}

// addConnectionFlags registers broker and feed flags. They are persistent on
// the root so every command that talks to a broker accepts them.
func addConnectionFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("host", "", "MQTT broker host, or a URL such as ws://host:8080/mqtt")
	f.Int("port", 0, "MQTT broker port")
	f.String("client-id", "", "MQTT client id (default: random fv-xxxxxxxx)")
	f.Duration("connect-timeout", 0, "how long to wait for the broker")
	f.Bool("no-reconnect", false, "exit instead of reconnecting when the connection drops")
	f.StringP("topic", "t", "", "topic to subscribe or publish to")
	f.StringP("decoder", "d", "", "payload decoder: scalar, keyed, telemetry, cartesian, velocity, orbit")
	f.String("key", "", "JSON field for the keyed decoder (dotted paths allowed)")
}

// addRenderFlags registers the flags shared by watch, tail and serve.
func addRenderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.DurationP("interval", "i", 0, "redraw interval (e.g. 500ms, 2s)")
	f.Int("buffer", 0, "samples kept in memory (0 = unbounded)")
	f.Int("window", 0, "samples summarized in the stats line")
}
