package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rileyhilliard/fv/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".fv.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/fv"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. FV_BROKER_HOST.
	EnvPrefix = "FV"
)

// Load reads config from the specified path. An empty path yields the
// defaults. Environment variables override both.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'fv init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .fv.yaml in current directory
// 3. .fv.yaml in parent directories (stops at git root or home)
// 4. ~/.config/fv/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	home, _ := os.UserHomeDir()
	if path := findUpwards(cwd, home); path != "" {
		return path, nil
	}

	if home != "" {
		globalConfig := GlobalPath(home)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// findUpwards looks for ConfigFileName in dir and its parents, stopping at
// a git root, the home directory or the filesystem root.
func findUpwards(dir, home string) string {
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		if isGitRoot(dir) {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir || (home != "" && parent == home) {
			return ""
		}
		dir = parent
	}
}

// GlobalPath returns the global config location under home.
func GlobalPath(home string) string {
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault finds and loads the config, or returns defaults (with
// environment overrides) if there is none. It also returns the path used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "your config"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+where)
	}

	cfg.Serve.PidFile = ExpandPath(cfg.Serve.PidFile)
	cfg.Serve.LogFile = ExpandPath(cfg.Serve.LogFile)
	return cfg, nil
}

// setDefaults registers every key so that environment overrides apply even
// when the file doesn't mention them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("broker.host", d.Broker.Host)
	v.SetDefault("broker.port", d.Broker.Port)
	v.SetDefault("broker.client_id", d.Broker.ClientID)
	v.SetDefault("broker.connect_timeout", d.Broker.ConnectTimeout)
	v.SetDefault("broker.reconnect", d.Broker.Reconnect)
	v.SetDefault("broker.max_reconnect_interval", d.Broker.MaxReconnectInterval)

	v.SetDefault("feed.topic", d.Feed.Topic)
	v.SetDefault("feed.decoder", d.Feed.Decoder)
	v.SetDefault("feed.key", d.Feed.Key)

	v.SetDefault("buffer.max", d.Buffer.Max)

	v.SetDefault("render.interval", d.Render.Interval)
	v.SetDefault("render.mode", d.Render.Mode)

	v.SetDefault("stats.window", d.Stats.Window)

	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("serve.pid_file", d.Serve.PidFile)
	v.SetDefault("serve.log_file", d.Serve.LogFile)
	v.SetDefault("serve.work_dir", d.Serve.WorkDir)

	v.SetDefault("publish.generator", d.Publish.Generator)
	v.SetDefault("publish.interval", d.Publish.Interval)
	v.SetDefault("publish.retained", d.Publish.Retained)
	v.SetDefault("publish.amplitude", d.Publish.Amplitude)
	v.SetDefault("publish.step", d.Publish.Step)

	v.SetDefault("output.color", d.Output.Color)
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
