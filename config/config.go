// Package config loads and validates engine configuration from file,
// environment, and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"mirage/core"
)

// Config holds all configuration for the simulation engine
type Config struct {
	Simulation struct {
		// DetectionRate in [0,1]; probability a technique is detected
		DetectionRate float64 `mapstructure:"detection_rate" validate:"gte=0,lte=1"`
		// LogsPerStage synthesized events per technique
		LogsPerStage int `mapstructure:"logs_per_stage" validate:"gte=1,lte=1000"`
		// TargetCount assets campaign stages are aimed at
		TargetCount int `mapstructure:"target_count" validate:"gte=1,lte=100"`
		// EventCount caps events per stage; 0 means uncapped
		EventCount int `mapstructure:"event_count" validate:"gte=0"`
		// Complexity one of low, medium, high, expert
		Complexity string `mapstructure:"complexity"`
		// Seed for deterministic replay; 0 seeds from the clock
		Seed int64 `mapstructure:"seed"`
		// Space tags persisted batches
		Space string `mapstructure:"space"`
		// CatalogFile optionally extends the built-in scenario catalog
		CatalogFile string `mapstructure:"catalog_file"`
	} `mapstructure:"simulation"`

	Filler struct {
		// Timeout bounds each collaborator call
		Timeout time.Duration `mapstructure:"timeout"`
		// RatePerSecond throttles collaborator calls; 0 disables the limiter
		RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`
	} `mapstructure:"filler"`

	ClickHouse struct {
		Enabled     bool   `mapstructure:"enabled"`
		Addr        string `mapstructure:"addr"`
		Database    string `mapstructure:"database"`
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		MaxPoolSize int    `mapstructure:"max_pool_size"`
	} `mapstructure:"clickhouse"`

	SQLite struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`

	Redis struct {
		Enabled  bool          `mapstructure:"enabled"`
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`

	Archive struct {
		Enabled bool   `mapstructure:"enabled"`
		Region  string `mapstructure:"region"`
		Bucket  string `mapstructure:"bucket"`
		Prefix  string `mapstructure:"prefix"`
	} `mapstructure:"archive"`

	API struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host"`
		Port    int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	} `mapstructure:"api"`
}

// LoadConfig reads configuration from mirage.yaml (working directory or
// /etc/mirage), environment variables prefixed MIRAGE_, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("mirage")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mirage")
	v.SetEnvPrefix("MIRAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file is fine; defaults and env carry the day
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.detection_rate", 0.4)
	v.SetDefault("simulation.logs_per_stage", 8)
	v.SetDefault("simulation.target_count", 3)
	v.SetDefault("simulation.event_count", 0)
	v.SetDefault("simulation.complexity", "medium")
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.space", "default")

	v.SetDefault("filler.timeout", 5*time.Second)
	v.SetDefault("filler.rate_per_second", 0)

	v.SetDefault("clickhouse.enabled", false)
	v.SetDefault("clickhouse.addr", "localhost:9000")
	v.SetDefault("clickhouse.database", "mirage")
	v.SetDefault("clickhouse.username", "default")
	v.SetDefault("clickhouse.max_pool_size", 10)

	v.SetDefault("sqlite.path", "./data/mirage.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.prefix", "campaigns")

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8085)
}

// Validate checks structural tags plus semantic constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !core.Complexity(c.Simulation.Complexity).IsValid() {
		return fmt.Errorf("invalid configuration: complexity must be one of low, medium, high, expert (got %q)", c.Simulation.Complexity)
	}
	if c.Filler.Timeout <= 0 {
		return fmt.Errorf("invalid configuration: filler timeout must be positive (got %s)", c.Filler.Timeout)
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("invalid configuration: archive.bucket is required when archiving is enabled")
	}
	return nil
}
