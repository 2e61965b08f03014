package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/hwoled/internal/config"
	"codeberg.org/mutker/hwoled/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args []string, opts ...config.Option) (*config.Config, error) {
	t.Helper()
	t.Setenv("HWOLED_CONFIG", "")
	opts = append([]config.Option{config.WithSearchDirs(t.TempDir())}, opts...)
	return config.LoadArgs(args, opts...)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hwoled.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Interval)
	assert.Equal(t, 5, cfg.Hold)
	assert.Equal(t, "HWINFO", cfg.Game)
	assert.Equal(t, "HWiNFO Stats", cfg.GameDisplayName)
	assert.Equal(t, 5*time.Second, cfg.FrameLength())
	assert.Equal(t, 5*time.Second, cfg.HeartbeatPeriod())
	assert.Equal(t, 2*time.Second, cfg.Timeout())
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.False(t, cfg.Teardown)
	assert.Equal(t, config.SourceHTTP, cfg.Telemetry.Source)
	assert.Equal(t, "GPU Memory Junction Temperature", cfg.Sensors.MemoryTemperature)
	assert.Equal(t, "GPU Hot Spot Temperature", cfg.Sensors.HotSpotTemperature)
	assert.Equal(t, "GPU Clock", cfg.Sensors.CoreClock)
	assert.Equal(t, "GPU Memory Clock", cfg.Sensors.MemoryClock)
	assert.False(t, cfg.History.Enabled)
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
interval = 2
hold = 3
address = "127.0.0.1:51234"

[telemetry]
source = "nvml"
device = 1

[sensors]
memory_temperature = "GPU Temperature"
hot_spot_temperature = "GPU Temperature"

[history]
enabled = true
database = "/var/lib/hwoled/history.db"
`)

	cfg, err := load(t, nil, config.WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Interval)
	assert.Equal(t, 3, cfg.Hold)
	assert.Equal(t, "127.0.0.1:51234", cfg.Address)
	assert.Equal(t, config.SourceNVML, cfg.Telemetry.Source)
	assert.Equal(t, 1, cfg.Telemetry.Device)
	assert.Equal(t, "GPU Temperature", cfg.Sensors.MemoryTemperature)
	assert.Equal(t, "GPU Clock", cfg.Sensors.CoreClock)
	assert.True(t, cfg.History.Enabled)
}

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	path := writeConfig(t, "hold = 3\ninterval = 4\n")
	t.Setenv("HWOLED_HOLD", "7")
	t.Setenv("HWOLED_TELEMETRY_URL", "http://10.0.0.2:8085/data.json")

	cfg, err := load(t, []string{"--config", path, "--interval", "9", "--teardown", "--debug"})
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Interval)
	assert.Equal(t, 7, cfg.Hold)
	assert.Equal(t, "http://10.0.0.2:8085/data.json", cfg.Telemetry.URL)
	assert.True(t, cfg.Teardown)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, "This is not a valid TOML file")

	_, err := load(t, nil, config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := load(t, []string{"--config", filepath.Join(t.TempDir(), "absent.toml")})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		file string
		code errors.ErrorCode
	}{
		{name: "zero interval", args: []string{"--interval", "0"}, code: errors.ErrInvalidInterval},
		{name: "negative hold", args: []string{"--hold", "-1"}, code: errors.ErrInvalidHold},
		{name: "bad log level", args: []string{"--log-level", "loud"}, code: errors.ErrInvalidLogLevel},
		{name: "unknown source", file: "[telemetry]\nsource = \"wmi\"\n", code: errors.ErrInvalidConfig},
		{name: "history without database", file: "[history]\nenabled = true\n", code: errors.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []config.Option
			if tt.file != "" {
				opts = append(opts, config.WithConfigFile(writeConfig(t, tt.file)))
			}
			_, err := load(t, tt.args, opts...)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestUnknownFlag(t *testing.T) {
	_, err := load(t, []string{"--fanspeed", "80"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))
}

func TestLogLevel(t *testing.T) {
	assert.True(t, config.LogLevelWarning.IsValid())
	assert.True(t, config.LogLevel("").IsValid())
	assert.False(t, config.LogLevel("trace").IsValid())
}
