package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/fv/internal/config"
	fverrors "github.com/rileyhilliard/fv/internal/errors"
)

// newFlagCmd returns a command carrying every flag applyFlags knows about,
// parsed from args.
func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	addConnectionFlags(cmd)
	addRenderFlags(cmd)
	addDaemonFlags(cmd)
	cmd.Flags().String("mode", "", "")
	cmd.Flags().String("addr", "", "")
	cmd.Flags().String("generator", "", "")
	cmd.Flags().Duration("period", 0, "")
	cmd.Flags().Bool("retained", false, "")
	cmd.Flags().Float64("amplitude", 0, "")
	cmd.Flags().Float64("step", 0, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestApplyFlags_OnlyChangedFlags(t *testing.T) {
	cmd := newFlagCmd(t, "--topic", "Satellite/Iss", "-d", "telemetry")
	cfg := config.DefaultConfig()

	require.NoError(t, applyFlags(cmd, cfg))

	assert.Equal(t, "Satellite/Iss", cfg.Feed.Topic)
	assert.Equal(t, "telemetry", cfg.Feed.Decoder)
	// Untouched flags keep the config's values rather than the flag zero values.
	assert.Equal(t, "localhost", cfg.Broker.Host)
	assert.Equal(t, 1883, cfg.Broker.Port)
	assert.Equal(t, config.DefaultBufferMax, cfg.Buffer.Max)
}

func TestApplyFlags_AllKinds(t *testing.T) {
	cmd := newFlagCmd(t,
		"--host", "test.mosquitto.org",
		"--port", "8883",
		"--no-reconnect",
		"--interval", "2s",
		"--buffer", "50",
		"--window", "10",
		"--mode", "full",
		"--addr", "127.0.0.1:8080",
		"--pid", "x.pid",
		"--period", "250ms",
		"--retained",
		"--amplitude", "3.5",
	)
	cfg := config.DefaultConfig()

	require.NoError(t, applyFlags(cmd, cfg))

	assert.Equal(t, "test.mosquitto.org", cfg.Broker.Host)
	assert.Equal(t, 8883, cfg.Broker.Port)
	assert.False(t, cfg.Broker.Reconnect)
	assert.Equal(t, 2*time.Second, cfg.Render.Interval)
	assert.Equal(t, 50, cfg.Buffer.Max)
	assert.Equal(t, 10, cfg.Stats.Window)
	assert.Equal(t, "full", cfg.Render.Mode)
	assert.Equal(t, "127.0.0.1:8080", cfg.Serve.Addr)
	assert.Equal(t, "x.pid", cfg.Serve.PidFile)
	assert.Equal(t, 250*time.Millisecond, cfg.Publish.Interval)
	assert.True(t, cfg.Publish.Retained)
	assert.Equal(t, 3.5, cfg.Publish.Amplitude)
}

func TestApplyFlags_IgnoresFlagsTheCommandLacks(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}
	cfg := config.DefaultConfig()
	require.NoError(t, applyFlags(cmd, cfg))
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func useConfigFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".fv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	useConfigFile(t, "version: 1\nfeed:\n  topic: from/file\n  decoder: keyed\n  key: temp\n")
	cmd := newFlagCmd(t, "--topic", "from/flag")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "from/flag", cfg.Feed.Topic)
	assert.Equal(t, "keyed", cfg.Feed.Decoder)
	assert.Equal(t, "temp", cfg.Feed.Key)
}

func TestLoadConfig_ValidatesFlags(t *testing.T) {
	useConfigFile(t, "version: 1\n")
	cmd := newFlagCmd(t, "--decoder", "xml")

	_, err := loadConfig(cmd)
	require.Error(t, err)
	assert.True(t, fverrors.IsCode(err, fverrors.ErrConfig))
	assert.Contains(t, err.Error(), "feed")
}

func TestInDir(t *testing.T) {
	assert.Equal(t, "/tmp/fv.pid", inDir("/tmp", "fv.pid"))
	assert.Equal(t, "/var/run/fv.pid", inDir("/tmp", "/var/run/fv.pid"))
	assert.Equal(t, "fv.pid", inDir("", "fv.pid"))
	assert.Equal(t, "", inDir("/tmp", ""))
}

func TestDaemonContext(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Serve.WorkDir = "/srv/fv"
	cfg.Serve.LogFile = "/var/log/fv.log"

	d := daemonContext(cfg)

	assert.Equal(t, "/srv/fv/fv.pid", d.PidFileName)
	assert.Equal(t, "/var/log/fv.log", d.LogFileName)
	assert.Equal(t, "/srv/fv", d.WorkDir)
	assert.Equal(t, os.FileMode(0644), d.PidFilePerm)
	assert.Equal(t, 027, d.Umask)
}

func TestStopDaemon_NotRunning(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Serve.WorkDir = t.TempDir()

	var out bytes.Buffer
	require.NoError(t, stopDaemon(daemonContext(cfg), &out))
	assert.Contains(t, out.String(), "not running")
}
