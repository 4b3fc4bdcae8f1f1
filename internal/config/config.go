// Package config loads application configuration from a YAML file with
// environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Ingest      IngestConfig   `yaml:"ingest"`
	Classify    ClassifyConfig `yaml:"classify"`
	Environment string         `yaml:"environment"` // development or production
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetHost returns the bind host, defaulting to all interfaces.
func (s ServerConfig) GetHost() string {
	if s.Host == "" {
		return "0.0.0.0"
	}
	return s.Host
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis settings for upload sessions and progress.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// IngestConfig holds upload pipeline settings.
type IngestConfig struct {
	BatchSize       int      `yaml:"batch_size"`
	SessionTTLHours int      `yaml:"session_ttl_hours"`
	MaxFileSizeMB   int64    `yaml:"max_file_size_mb"`
	AllowedStatuses []string `yaml:"allowed_statuses"` // empty = default set
}

// SessionTTL returns the session TTL as a duration.
func (i IngestConfig) SessionTTL() time.Duration {
	if i.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(i.SessionTTLHours) * time.Hour
}

// MaxFileSize returns the upload size limit in bytes.
func (i IngestConfig) MaxFileSize() int64 {
	if i.MaxFileSizeMB <= 0 {
		return 50 * 1024 * 1024
	}
	return i.MaxFileSizeMB * 1024 * 1024
}

// ClassifyConfig holds the post-ingestion classification hook settings.
type ClassifyConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (c ClassifyConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TablePrefix returns the environment table prefix: dev_ outside
// production, so development and production can share a database.
func (c *Config) TablePrefix() string {
	switch c.Environment {
	case "production", "prod":
		return ""
	default:
		return "dev_"
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// zero config (env overrides still apply via LoadFromEnv).
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv loads the YAML config and applies environment overrides.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("CLASSIFY_URL"); v != "" {
		cfg.Classify.BaseURL = v
		cfg.Classify.Enabled = true
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	return cfg, nil
}
