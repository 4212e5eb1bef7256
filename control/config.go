// control/config.go
// Author: momentics <momentics@gmail.com>
//
// YAML + environment configuration for the media driver.

package control

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/momentics/hioload-udp/api"
)

// EnvPrefix prefixes environment overrides, e.g. HIOLOAD_UDP_LOG_LEVEL=debug.
const EnvPrefix = "HIOLOAD_UDP"

// Config is the root driver configuration.
type Config struct {
	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`
	// Poll controls the receive/send polling loop
	Poll PollConfig `mapstructure:"poll"`
	// Endpoints lists the channel endpoints to open
	Endpoints []EndpointConfig `mapstructure:"endpoints"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`
	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// PollConfig sizes the batches driven by the polling goroutine.
type PollConfig struct {
	BatchSize  int `mapstructure:"batch_size"`
	BufferSize int `mapstructure:"buffer_size"`
	// CPU pins the polling thread; negative leaves it unpinned.
	CPU int `mapstructure:"cpu"`
	// IdleSleepMicros is how long the loop parks after an empty poll.
	IdleSleepMicros int `mapstructure:"idle_sleep_us"`
}

// EndpointConfig describes one UDP channel endpoint.
type EndpointConfig struct {
	Name string `mapstructure:"name"`
	// Bind is "ip:port"; a multicast group address joins that group.
	Bind string `mapstructure:"bind"`
	// Interface is an interface name or IPv4 address used for multicast.
	Interface  string `mapstructure:"interface"`
	TTL        uint8  `mapstructure:"ttl"`
	RcvBuf     int    `mapstructure:"rcvbuf"`
	SndBuf     int    `mapstructure:"sndbuf"`
	Timestamps bool   `mapstructure:"timestamps"`
	ScalarIO   bool   `mapstructure:"scalar_io"`
	// Affinity: sender, receiver or conductor
	Affinity string `mapstructure:"affinity"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Poll: PollConfig{
			BatchSize:       16,
			BufferSize:      1500,
			CPU:             -1,
			IdleSleepMicros: 50,
		},
	}
}

// Load reads configuration from path (if non-empty), otherwise it searches
// the usual locations. Environment variables override file values.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(path string) (*viper.Viper, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("poll.batch_size", cfg.Poll.BatchSize)
	v.SetDefault("poll.buffer_size", cfg.Poll.BufferSize)
	v.SetDefault("poll.cpu", cfg.Poll.CPU)
	v.SetDefault("poll.idle_sleep_us", cfg.Poll.IdleSleepMicros)

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hioload-udp")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".hioload-udp"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q", api.ErrInvalidArgument, c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}
	if c.Poll.BatchSize <= 0 {
		return fmt.Errorf("%w: poll.batch_size %d", api.ErrInvalidArgument, c.Poll.BatchSize)
	}
	if c.Poll.BufferSize <= 0 {
		return fmt.Errorf("%w: poll.buffer_size %d", api.ErrInvalidArgument, c.Poll.BufferSize)
	}
	for i := range c.Endpoints {
		ep := &c.Endpoints[i]
		if strings.TrimSpace(ep.Bind) == "" {
			return fmt.Errorf("%w: endpoints[%d].bind is empty", api.ErrInvalidArgument, i)
		}
		if ep.Name == "" {
			ep.Name = ep.Bind
		}
		if _, err := ParseAffinity(ep.Affinity); err != nil {
			return fmt.Errorf("endpoints[%d]: %w", i, err)
		}
	}
	return nil
}

// ParseAffinity maps a config string onto api.Affinity; empty means receiver.
func ParseAffinity(s string) (api.Affinity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "receiver":
		return api.AffinityReceiver, nil
	case "sender":
		return api.AffinitySender, nil
	case "conductor":
		return api.AffinityConductor, nil
	}
	return 0, fmt.Errorf("%w: affinity %q", api.ErrInvalidArgument, s)
}
