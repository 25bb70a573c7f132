package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Monitor MonitorConfig `mapstructure:"monitor"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Budget  BudgetConfig  `mapstructure:"budget"`
}

// MonitorConfig defines process monitoring settings
type MonitorConfig struct {
	TickInterval      string      `mapstructure:"tick_interval"`
	Games             []GameEntry `mapstructure:"games"`
	ExcludedProcesses []string    `mapstructure:"excluded_processes"`
}

// GameEntry maps a process name to a human-readable game name
type GameEntry struct {
	ProcessName string `mapstructure:"process_name"`
	DisplayName string `mapstructure:"display_name"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig defines the Prometheus metrics endpoint
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind_address"`
}

// BudgetConfig defines budget accounting settings
type BudgetConfig struct {
	DailyResetTime string `mapstructure:"daily_reset_time"`
	RetentionDays  int    `mapstructure:"retention_days"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	}
	v.SetEnvPrefix("GAMETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found, use defaults and environment variables
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Monitor defaults
	v.SetDefault("monitor.tick_interval", "1s")
	v.SetDefault("monitor.games", []map[string]string{})
	v.SetDefault("monitor.excluded_processes", []string{})

	// Storage defaults
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.redis.host", "127.0.0.1")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("metrics.bind_address", "127.0.0.1")

	// Budget defaults
	v.SetDefault("budget.daily_reset_time", "00:00")
	v.SetDefault("budget.retention_days", 90)
}

// defaultStoragePath places the database under the user config dir,
// falling back to the working directory when it cannot be resolved.
func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gametrack.db"
	}
	return filepath.Join(dir, "gametrack", "gametrack.db")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if _, err := time.ParseDuration(cfg.Monitor.TickInterval); err != nil {
		return fmt.Errorf("invalid monitor tick_interval: %w", err)
	}

	switch cfg.Storage.Type {
	case "sqlite", "redis":
	case "":
		cfg.Storage.Type = "sqlite"
	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	if cfg.Storage.Type == "sqlite" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if cfg.Metrics.Enabled && (cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", cfg.Metrics.Port)
	}

	if _, err := time.Parse("15:04", cfg.Budget.DailyResetTime); err != nil {
		return fmt.Errorf("invalid budget daily_reset_time: %w", err)
	}

	if cfg.Budget.RetentionDays <= 0 {
		return fmt.Errorf("budget retention_days must be positive")
	}

	for _, g := range cfg.Monitor.Games {
		if g.ProcessName == "" {
			return fmt.Errorf("monitor game entry missing process_name")
		}
	}

	return nil
}
