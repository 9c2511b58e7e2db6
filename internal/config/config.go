package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Source   SourceConfig   `mapstructure:"source"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SourceConfig holds scrape source configuration
type SourceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PageInterval   time.Duration `mapstructure:"page_interval"`
	MaxPages       int           `mapstructure:"max_pages"` // 0 = follow pagination to the end
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AnalysisConfig holds the prediction weighting and windows
type AnalysisConfig struct {
	FrequencyWeight   float64 `mapstructure:"frequency_weight"`
	RecencyWeight     float64 `mapstructure:"recency_weight"`
	RecencyWindow     int     `mapstructure:"recency_window"`
	TrendWindow       int     `mapstructure:"trend_window"`
	MaxAlternatives   int     `mapstructure:"max_alternatives"`
	MinSamplesForHigh int     `mapstructure:"min_samples_for_high"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	APIEndpoint    string        `mapstructure:"api_endpoint"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds the draw archive configuration
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// LOTTORACLE_SERVER_PORT overrides server.port, etc.
	v.SetEnvPrefix("LOTTORACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Platform-assigned port wins over the file.
	if err := v.BindEnv("server.port", "LOTTORACLE_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind port env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Source defaults
	v.SetDefault("source.base_url", "https://news.sanook.com/lotto/archive/")
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.page_interval", "500ms")
	v.SetDefault("source.max_pages", 0)
	v.SetDefault("source.max_retries", 2)
	v.SetDefault("source.retry_delay_base", "1s")
	v.SetDefault("source.user_agent", "")

	// Analysis defaults
	v.SetDefault("analysis.frequency_weight", 0.7)
	v.SetDefault("analysis.recency_weight", 0.3)
	v.SetDefault("analysis.recency_window", 10)
	v.SetDefault("analysis.trend_window", 10)
	v.SetDefault("analysis.max_alternatives", 4)
	v.SetDefault("analysis.min_samples_for_high", 10)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_endpoint", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.db_path", "./data/lottoracle.db")
	v.SetDefault("storage.max_runs", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("server.mode must be one of: debug, release, test")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}

	// Validate Source config
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source.base_url must be an absolute URL")
	}
	if c.Source.Timeout < time.Second {
		return fmt.Errorf("source.timeout must be at least 1 second")
	}
	if c.Source.PageInterval < 0 {
		return fmt.Errorf("source.page_interval must not be negative")
	}
	if c.Source.MaxPages < 0 {
		return fmt.Errorf("source.max_pages must not be negative")
	}
	if c.Source.MaxRetries < 0 || c.Source.MaxRetries > 10 {
		return fmt.Errorf("source.max_retries must be between 0 and 10")
	}

	// Validate Analysis config
	if err := c.Analysis.validate(); err != nil {
		return err
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.APIEndpoint != "" && strings.Count(c.Telegram.APIEndpoint, "%s") != 2 {
			return fmt.Errorf("telegram.api_endpoint must contain two %%s placeholders (token, method)")
		}
	}

	// Validate Storage config
	if c.Storage.Enabled {
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required when storage is enabled")
		}
		if c.Storage.MaxRuns < 1 {
			return fmt.Errorf("storage.max_runs must be at least 1")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

func (a AnalysisConfig) validate() error {
	if a.FrequencyWeight < 0 || a.RecencyWeight < 0 {
		return errors.New("analysis weights must not be negative")
	}
	if a.FrequencyWeight+a.RecencyWeight == 0 {
		return errors.New("analysis.frequency_weight and analysis.recency_weight must not both be zero")
	}
	if a.RecencyWindow < 1 {
		return fmt.Errorf("analysis.recency_window must be at least 1")
	}
	if a.TrendWindow < 2 {
		return fmt.Errorf("analysis.trend_window must be at least 2")
	}
	if a.MaxAlternatives < 2 || a.MaxAlternatives > 4 {
		return fmt.Errorf("analysis.max_alternatives must be between 2 and 4")
	}
	if a.MinSamplesForHigh < 1 {
		return fmt.Errorf("analysis.min_samples_for_high must be at least 1")
	}
	return nil
}
