package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database PostgresConfig `mapstructure:"database"`
	Redis    RedisConfig
	Auth     AuthConfig
	Firmware FirmwareConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	// GlobalToken authorizes any device in the fleet. Per-device tokens
	// stored on the device row take precedence when present.
	GlobalToken string `mapstructure:"global_token"`
}

type FirmwareConfig struct {
	FeedURL             string        `mapstructure:"feed_url"`
	PollTimeout         time.Duration `mapstructure:"poll_timeout"`
	MinSupportedVersion string        `mapstructure:"min_supported_version"`
}

type JobsConfig struct {
	SessionSweepInterval  time.Duration `mapstructure:"session_sweep_interval"`
	OfflineSweepInterval  time.Duration `mapstructure:"offline_sweep_interval"`
	FirmwareCheckInterval time.Duration `mapstructure:"firmware_check_interval"`
	PruneInterval         time.Duration `mapstructure:"prune_interval"`
	SummaryInterval       time.Duration `mapstructure:"summary_interval"`

	SessionTimeoutMinutes int `mapstructure:"session_timeout_minutes"`
	DeviceTimeoutMinutes  int `mapstructure:"device_timeout_minutes"`
	RetentionDays         int `mapstructure:"retention_days"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("WICAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.db", 0)

	// Firmware defaults
	viper.SetDefault("firmware.feed_url", "https://api.github.com/repos/meatpiHQ/wican-fw/releases/latest")
	viper.SetDefault("firmware.poll_timeout", "10s")
	viper.SetDefault("firmware.min_supported_version", "4.40")

	// Job defaults
	viper.SetDefault("jobs.session_sweep_interval", "1m")
	viper.SetDefault("jobs.offline_sweep_interval", "5m")
	viper.SetDefault("jobs.firmware_check_interval", "24h")
	viper.SetDefault("jobs.prune_interval", "24h")
	viper.SetDefault("jobs.summary_interval", "24h")
	viper.SetDefault("jobs.session_timeout_minutes", 30)
	viper.SetDefault("jobs.device_timeout_minutes", 10)
	viper.SetDefault("jobs.retention_days", 90)
}

func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Auth.GlobalToken == "" {
		return fmt.Errorf("auth global_token is required")
	}
	if config.Firmware.FeedURL == "" {
		return fmt.Errorf("firmware feed_url is required")
	}
	if config.Jobs.RetentionDays <= 0 {
		return fmt.Errorf("jobs retention_days must be positive")
	}
	return nil
}
