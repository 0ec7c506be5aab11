// Package config provides configuration loading for carpoold.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the carpoold daemon.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Store      StoreConfig      `koanf:"store"`
	Database   DatabaseConfig   `koanf:"database"`
	NATS       NATSConfig       `koanf:"nats"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	RequestTimeout  Duration `koanf:"request_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ExtractionConfig holds LLM extraction settings.
type ExtractionConfig struct {
	// Provider selects the extraction backend: "gemini", "openai",
	// "heuristic", or "disabled".
	Provider  string `koanf:"provider"`
	Model     string `koanf:"model"`
	APIKey    Secret `koanf:"api_key"`
	BaseURL   string `koanf:"base_url"`
	MaxTokens int    `koanf:"max_tokens"`
	// Timeout bounds a single backend call, in seconds.
	Timeout   int `koanf:"timeout"`
	BatchSize int `koanf:"batch_size"`
}

// StoreConfig holds result store settings.
type StoreConfig struct {
	SessionTTL      Duration `koanf:"session_ttl"`
	CleanupInterval Duration `koanf:"cleanup_interval"`
}

// DatabaseConfig holds the optional Postgres ride store settings.
// The durable store is disabled when URL is empty.
type DatabaseConfig struct {
	URL Secret `koanf:"url"`
}

// NATSConfig holds the optional match notification settings.
// Publishing is disabled when URL is empty.
type NATSConfig struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("server shutdown_timeout must be > 0")
	}

	switch c.Extraction.Provider {
	case "gemini", "openai":
		if !c.Extraction.APIKey.IsSet() {
			return fmt.Errorf("extraction provider %q requires an api_key", c.Extraction.Provider)
		}
	case "heuristic", "disabled":
	default:
		return fmt.Errorf("unknown extraction provider %q", c.Extraction.Provider)
	}

	if c.Extraction.BatchSize < 1 {
		return fmt.Errorf("extraction batch_size must be >= 1, got %d", c.Extraction.BatchSize)
	}
	if c.Store.SessionTTL.Duration() <= 0 {
		return fmt.Errorf("store session_ttl must be > 0")
	}
	if c.Store.CleanupInterval.Duration() <= 0 {
		return fmt.Errorf("store cleanup_interval must be > 0")
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats subject is required when nats url is set")
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8002
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = Duration(90 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Extraction.Provider == "" {
		cfg.Extraction.Provider = "heuristic"
	}
	if cfg.Extraction.BatchSize == 0 {
		cfg.Extraction.BatchSize = 20
	}

	if cfg.Store.SessionTTL == 0 {
		cfg.Store.SessionTTL = Duration(30 * time.Minute)
	}
	if cfg.Store.CleanupInterval == 0 {
		cfg.Store.CleanupInterval = Duration(10 * time.Minute)
	}
}
