package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/hwoled/internal/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "HWOLED"
	configName       = "hwoled"
	configType       = "toml"
)

type Config struct {
	Interval          int    `mapstructure:"interval"`
	Hold              int    `mapstructure:"hold"`
	Game              string `mapstructure:"game"`
	GameDisplayName   string `mapstructure:"game_display_name"`
	Developer         string `mapstructure:"developer"`
	DeinitializeTimer int    `mapstructure:"deinitialize_timer_ms"`
	FrameDuration     int    `mapstructure:"frame_duration_ms"`
	HeartbeatInterval int    `mapstructure:"heartbeat_interval"`
	RequestTimeout    int    `mapstructure:"request_timeout_ms"`
	Address           string `mapstructure:"address"`
	CoreProps         string `mapstructure:"core_props"`
	Teardown          bool   `mapstructure:"teardown"`
	Debug             bool   `mapstructure:"debug"`
	Verbose           bool   `mapstructure:"verbose"`
	LogLevel          string `mapstructure:"log_level"`
	PIDFile           string `mapstructure:"pid_file"`

	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Sensors   SensorsConfig   `mapstructure:"sensors"`
	History   HistoryConfig   `mapstructure:"history"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type TelemetryConfig struct {
	Source        string `mapstructure:"source"`
	URL           string `mapstructure:"url"`
	Device        int    `mapstructure:"device"`
	AverageWindow int    `mapstructure:"average_window"`
}

// SensorsConfig names the readings shown on the two views. Group pins the
// sensor group; empty picks the first group carrying MemoryTemperature.
type SensorsConfig struct {
	Group              string `mapstructure:"group"`
	MemoryTemperature  string `mapstructure:"memory_temperature"`
	HotSpotTemperature string `mapstructure:"hot_spot_temperature"`
	CoreClock          string `mapstructure:"core_clock"`
	MemoryClock        string `mapstructure:"memory_clock"`
}

type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Database     string `mapstructure:"database"`
	BatchSize    int    `mapstructure:"batch_size"`
	BatchTimeout int    `mapstructure:"batch_timeout"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", 1)
	v.SetDefault("hold", 5)
	v.SetDefault("game", "HWINFO")
	v.SetDefault("game_display_name", "HWiNFO Stats")
	v.SetDefault("developer", "")
	v.SetDefault("deinitialize_timer_ms", 10000)
	v.SetDefault("frame_duration_ms", 5000)
	v.SetDefault("heartbeat_interval", 5)
	v.SetDefault("request_timeout_ms", 2000)
	v.SetDefault("address", "")
	v.SetDefault("core_props", "")
	v.SetDefault("teardown", false)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "")
	v.SetDefault("pid_file", filepath.Join(os.TempDir(), "hwoled.pid"))

	v.SetDefault("telemetry.source", SourceHTTP)
	v.SetDefault("telemetry.url", "http://127.0.0.1:8085/data.json")
	v.SetDefault("telemetry.device", 0)
	v.SetDefault("telemetry.average_window", 0)

	v.SetDefault("sensors.group", "")
	v.SetDefault("sensors.memory_temperature", "GPU Memory Junction Temperature")
	v.SetDefault("sensors.hot_spot_temperature", "GPU Hot Spot Temperature")
	v.SetDefault("sensors.core_clock", "GPU Clock")
	v.SetDefault("sensors.memory_clock", "GPU Memory Clock")

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.database", "")
	v.SetDefault("history.batch_size", 30)
	v.SetDefault("history.batch_timeout", 10)

	v.SetDefault("metrics.listen", "")
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.String("config", "", "Path to the configuration file")
	fs.Int("interval", 1, "Seconds between frames")
	fs.Int("hold", 5, "Ticks each view stays on screen")
	fs.String("address", "", "Display service address (host:port), skips discovery")
	fs.Bool("teardown", false, "Remove the screens and game from the display service on exit")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("log-level", "", "Log level (debug, info, warning, error)")
	return fs
}

// Load reads configuration from the command line, environment and file.
func Load(opts ...Option) (*Config, error) {
	return LoadArgs(os.Args[1:], opts...)
}

// LoadArgs is Load with explicit command line arguments.
func LoadArgs(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	if dir, err := os.UserConfigDir(); err == nil {
		o.searchDirs = append(o.searchDirs, filepath.Join(dir, configName))
	}
	o.searchDirs = append(o.searchDirs, "/etc")
	for _, opt := range opts {
		opt(&o)
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
	}

	// A missing .env file is the normal case
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	configPath := o.configPath
	if path, _ := fs.GetString("config"); path != "" {
		configPath = path
	}
	if configPath == "" {
		configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if err := readConfigFile(v, configPath, o.searchDirs); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"interval":  "interval",
		"hold":      "hold",
		"address":   "address",
		"teardown":  "teardown",
		"debug":     "debug",
		"verbose":   "verbose",
		"log_level": "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return errors.New().Wrap(errors.ErrBindFlags, err)
		}
	}
	return nil
}

func readConfigFile(v *viper.Viper, path string, searchDirs []string) error {
	errFactory := errors.New()

	v.SetConfigType(configType)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(configName)
	for _, dir := range searchDirs {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.Hold < 0 {
		return errFactory.WithData(errors.ErrInvalidHold, c.Hold)
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.FrameDuration < 0 || c.HeartbeatInterval < 0 || c.RequestTimeout < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "durations must not be negative")
	}

	switch c.Telemetry.Source {
	case SourceHTTP:
		if c.Telemetry.URL == "" {
			return errFactory.WithMessage(errors.ErrMissingConfig, "telemetry.url is required for the http source")
		}
	case SourceNVML:
		if c.Telemetry.Device < 0 {
			return errFactory.WithMessage(errors.ErrInvalidConfig, "telemetry.device must not be negative")
		}
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "unknown telemetry source "+c.Telemetry.Source)
	}

	if c.History.Enabled && c.History.Database == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "history.database is required when history is enabled")
	}

	return nil
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func (c *Config) FrameLength() time.Duration {
	return time.Duration(c.FrameDuration) * time.Millisecond
}

func (c *Config) HeartbeatPeriod() time.Duration {
	return time.Duration(c.HeartbeatInterval) * time.Second
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}
