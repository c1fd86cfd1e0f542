package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"QUIZCHAIN_PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"QUIZCHAIN_REDIS_ADDR"`
		Password string `yaml:"password" env:"QUIZCHAIN_REDIS_PASSWORD"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"QUIZCHAIN_POSTGRES_URL"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Rabbit struct {
		URL      string `yaml:"url" env:"QUIZCHAIN_RABBIT_URL"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbit"`
	Settlement struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"settlement"`
	Log struct {
		Level string `yaml:"level" env:"QUIZCHAIN_LOG_LEVEL"`
	} `yaml:"log"`
}

// Load reads YAML config from path and applies QUIZCHAIN_* environment overrides.
// A missing file is not an error: the environment alone can configure the service.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// LogLevel maps the configured level name to a slog level, defaulting to info.
func LogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
