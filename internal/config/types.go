package config

import (
	"time"

	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/feed"
	"github.com/rileyhilliard/fv/internal/httpview"
	"github.com/rileyhilliard/fv/internal/publish"
	"github.com/rileyhilliard/fv/internal/render"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .fv.yaml configuration file.
type Config struct {
	Version int           `yaml:"version" mapstructure:"version"`
	Broker  BrokerConfig  `yaml:"broker" mapstructure:"broker"`
	Feed    FeedConfig    `yaml:"feed" mapstructure:"feed"`
	Buffer  BufferConfig  `yaml:"buffer" mapstructure:"buffer"`
	Render  RenderConfig  `yaml:"render" mapstructure:"render"`
	Stats   StatsConfig   `yaml:"stats" mapstructure:"stats"`
	Serve   ServeConfig   `yaml:"serve" mapstructure:"serve"`
	Publish PublishConfig `yaml:"publish" mapstructure:"publish"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// BrokerConfig is the MQTT connection.
type BrokerConfig struct {
	// Host is a hostname, or a full URL such as ws://host:8080/mqtt.
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	ClientID string `yaml:"client_id,omitempty" mapstructure:"client_id"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// Reconnect keeps the session alive after the first successful connect.
	// The first connect is never retried, and with Reconnect off a dropped
	// connection ends the command with a CONNECT error.
	Reconnect            bool          `yaml:"reconnect" mapstructure:"reconnect"`
	MaxReconnectInterval time.Duration `yaml:"max_reconnect_interval" mapstructure:"max_reconnect_interval"`
}

// FeedConfig selects the topic and how its payloads are decoded.
type FeedConfig struct {
	Topic string `yaml:"topic" mapstructure:"topic"`

	// Decoder is one of scalar, keyed, telemetry, cartesian, velocity, orbit.
	Decoder string `yaml:"decoder" mapstructure:"decoder"`

	// Key is the JSON field read by the keyed decoder. Dotted paths work.
	Key string `yaml:"key,omitempty" mapstructure:"key"`
}

// BufferConfig bounds memory use.
type BufferConfig struct {
	// Max is the number of samples retained; 0 keeps everything.
	Max int `yaml:"max" mapstructure:"max"`
}

// RenderConfig controls the redraw cadence.
type RenderConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// Mode applies to fv tail: "incremental" prints each new sample, "full"
	// prints one summary line of the whole buffer per draw. The dashboard
	// always redraws in full and serve always streams increments.
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// StatsConfig sizes the rolling statistics window.
type StatsConfig struct {
	// Window is the number of trailing values summarized; 0 means all.
	Window int `yaml:"window" mapstructure:"window"`
}

// ServeConfig is used by `fv serve`.
type ServeConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Daemon mode files.
	PidFile string `yaml:"pid_file" mapstructure:"pid_file"`
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
}

// PublishConfig is used by `fv publish`.
type PublishConfig struct {
	// Generator is one of sinus, keyed, iss.
	Generator string        `yaml:"generator" mapstructure:"generator"`
	Interval  time.Duration `yaml:"interval" mapstructure:"interval"`
	Retained  bool          `yaml:"retained" mapstructure:"retained"`
	Amplitude float64       `yaml:"amplitude" mapstructure:"amplitude"`
	Step      float64       `yaml:"step" mapstructure:"step"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// Defaults shared with the command line.
const (
	DefaultTopic     = "1/testPoints/sinus"
	DefaultBufferMax = 10000
	DefaultPidFile   = "fv.pid"
	DefaultLogFile   = "fv.log"
	DefaultDaemonDir = "/tmp"
	DefaultColor     = "auto"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	wave := publish.DefaultWave()
	return &Config{
		Version: CurrentConfigVersion,
		Broker: BrokerConfig{
			Host:                 feed.DefaultBroker,
			Port:                 feed.DefaultPort,
			ConnectTimeout:       feed.DefaultConnectTimeout,
			Reconnect:            true,
			MaxReconnectInterval: feed.DefaultMaxReconnectInterval,
		},
		Feed: FeedConfig{
			Topic:   DefaultTopic,
			Decoder: string(decode.KindScalar),
			Key:     decode.DefaultKey,
		},
		Buffer: BufferConfig{Max: DefaultBufferMax},
		Render: RenderConfig{
			Interval: render.DefaultInterval,
			Mode:     render.ModeIncremental.String(),
		},
		Stats: StatsConfig{Window: httpview.DefaultStatsWindow},
		Serve: ServeConfig{
			Addr:    httpview.DefaultAddr,
			PidFile: DefaultPidFile,
			LogFile: DefaultLogFile,
			WorkDir: DefaultDaemonDir,
		},
		Publish: PublishConfig{
			Generator: publish.KindSinus,
			Interval:  publish.DefaultInterval,
			Amplitude: wave.Amplitude,
			Step:      wave.Step,
		},
		Output: OutputConfig{Color: DefaultColor},
	}
}

// FeedOptions converts the broker and feed sections into listener options.
func (c *Config) FeedOptions() feed.Options {
	return feed.Options{
		Broker:               c.Broker.Host,
		Port:                 c.Broker.Port,
		Topic:                c.Feed.Topic,
		ClientID:             c.Broker.ClientID,
		ConnectTimeout:       c.Broker.ConnectTimeout,
		Reconnect:            c.Broker.Reconnect,
		MaxReconnectInterval: c.Broker.MaxReconnectInterval,
	}
}

// Wave returns the publish generator shape.
func (c *Config) Wave() publish.WaveOptions {
	return publish.WaveOptions{
		Amplitude: c.Publish.Amplitude,
		Step:      c.Publish.Step,
		Key:       c.Feed.Key,
	}
}
