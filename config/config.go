// Package config loads dashboard configuration from an optional YAML file and
// DASH_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const envPrefix = "DASH"

// Dashboard variants. Each one picks a data source and its own page text.
const (
	VariantRemote  = "remote"
	VariantLocal   = "local"
	VariantSampled = "sampled"
	VariantSQLite  = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Page    PageConfig    `yaml:"page" envconfig:"PAGE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains API rate limiting configuration. RPS and Burst
// must be positive when Enabled.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"required_if=Enabled true,gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"required_if=Enabled true,gte=0"`
}

// DataConfig selects and locates the dataset
type DataConfig struct {
	Variant      string        `yaml:"variant" envconfig:"VARIANT" validate:"oneof=remote local sampled sqlite"`
	URL          string        `yaml:"url" envconfig:"DATASET_URL" validate:"required_if=Variant remote"`
	Path         string        `yaml:"path" envconfig:"CSV_PATH" validate:"required_if=Variant local"`
	SamplePath   string        `yaml:"sample_path" envconfig:"SAMPLE_PATH" validate:"required_if=Variant sampled"`
	SampleEvery  int           `yaml:"sample_every" envconfig:"SAMPLE_EVERY" validate:"gte=0"`
	CachePath    string        `yaml:"cache_path" envconfig:"CACHE_PATH" validate:"required_if=Variant remote"`
	SQLitePath   string        `yaml:"sqlite_path" envconfig:"SQLITE_PATH" validate:"required_if=Variant sqlite"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
}

// PageConfig holds the static text rendered around the charts
type PageConfig struct {
	Title   string `yaml:"title" envconfig:"TITLE"`
	InfoURL string `yaml:"info_url" envconfig:"INFO_URL" validate:"omitempty,url"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8090,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       RateLimitConfig{Enabled: true, RPS: 20, Burst: 40},
		},
		Data: DataConfig{
			Variant:      VariantRemote,
			URL:          "https://drive.google.com/uc?export=download&id=1GvHWbdGp8MV2XzMZuMY1M8PuB6xDX4gc",
			Path:         "dataset_with_sentiment.csv",
			SamplePath:   "sampled_dataset_with_sentiment.csv",
			CachePath:    "dataset_with_sentiment.csv",
			SQLitePath:   "comments.db",
			FetchTimeout: 2 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Page: PageConfig{
			Title:   "Public Sentiment Analysis on Russia-Ukraine Conflict",
			InfoURL: "https://github.com/raiffaza/RUSSIA-UKRAINE-REDDIT-USERS-SENTIMENT",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// DASH_CONFIG_FILE (if any), then DASH_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "_CONFIG_FILE"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field ranges and the fields each variant depends on
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q check", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}

// About returns the explanatory paragraph shown for the configured variant.
func (c *Config) About() string {
	const base = "Analyze sentiment trends and topics discussed on Reddit regarding the Russia-Ukraine conflict. " +
		"This analysis examines public sentiment following the U.S. presidential election in November 2024, " +
		"focusing on comments from Reddit users."
	switch c.Data.Variant {
	case VariantSampled:
		return base + " This deployment serves a random sample of the full dataset to keep the page responsive; " +
			"counts are proportional to, not equal to, the complete collection."
	case VariantLocal, VariantSQLite:
		return base + " The dataset was collected from Reddit discussion threads and labeled with a sentiment " +
			"model before being loaded here; each comment is tagged with the side it refers to."
	default:
		return base
	}
}
