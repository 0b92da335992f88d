package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendRaft   = "raft"
	BackendMemory = "memory"
)

// Config represents the application configuration
type Config struct {
	// Where the inventory lives
	DataDir    string `mapstructure:"data_dir"`
	Backend    string `mapstructure:"backend"`
	StorageKey string `mapstructure:"storage_key"`

	// HTTP API
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics"`

	// Journal backend
	JournalStartTimeout time.Duration `mapstructure:"journal_start_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DefaultDataDir returns ~/.spoolkeeper, or .spoolkeeper when the home
// directory is unknown
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spoolkeeper"
	}
	return filepath.Join(home, ".spoolkeeper")
}

// SetDefaults registers the default value of every setting on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("backend", BackendFile)
	v.SetDefault("storage_key", "filament-inventory-v1")
	v.SetDefault("http_addr", "127.0.0.1:8080")
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("metrics", true)
	v.SetDefault("journal_start_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads configuration from defaults, an optional config file and
// SPOOLKEEPER_* environment variables. Flags bound to v beforehand win.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("SPOOLKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the program cannot use
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendBolt, BackendRaft, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want file, bolt, raft or memory)", c.Backend)
	}

	if c.Backend != BackendMemory && c.DataDir == "" {
		return errors.New("data directory is required")
	}
	if c.StorageKey == "" {
		return errors.New("storage key is required")
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP address is required")
	}
	return nil
}
