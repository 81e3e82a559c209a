package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/mdast/internal/emitter"
)

// ErrMissingAPIKey is returned by Validate when no API key is configured.
var ErrMissingAPIKey = errors.New("MDAST_API_KEY is required")

var validate = validator.New()

type Config struct {
	Port string `yaml:"port" validate:"required,numeric"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count" validate:"gte=1,lte=256"`
	MaxQueueSize int `yaml:"max_queue_size" validate:"gte=1"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes" validate:"gte=1"`

	// Job and session state
	JobTTL     time.Duration `yaml:"job_ttl" validate:"gt=0"`
	SessionTTL time.Duration `yaml:"session_ttl" validate:"gt=0"`

	// Parse cache; empty dir keeps it in memory
	CacheDir string        `yaml:"cache_dir"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	// Rate limiting, requests per second; zero disables it
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	RateBurst int     `yaml:"rate_burst" validate:"gte=0"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Default dialect for requests that do not choose one
	Parse emitter.Options `yaml:"parse"`
}

func defaults() Config {
	return Config{
		Port:           "8090",
		WorkerCount:    4,
		MaxQueueSize:   100,
		MaxUploadBytes: 52428800, // 50MB
		JobTTL:         1 * time.Hour,
		SessionTTL:     30 * time.Minute,
		CacheTTL:       24 * time.Hour,
		RateLimit:      50,
		RateBurst:      100,
		LogLevel:       "info",
		Parse:          emitter.DefaultOptions,
	}
}

// Load reads the YAML file named by MDAST_CONFIG, if any, and then applies
// environment overrides on top of it.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("MDAST_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("MDAST_API_KEY", cfg.APIKey)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.SessionTTL = envDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.CacheDir = envOr("CACHE_DIR", cfg.CacheDir)
	cfg.CacheTTL = envDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.RateLimit = envFloat("RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = envInt("RATE_BURST", cfg.RateBurst)
	cfg.LogLevel = strings.ToLower(envOr("LOG_LEVEL", cfg.LogLevel))
	cfg.Parse.GFM = envBool("PARSE_GFM", cfg.Parse.GFM)
	cfg.Parse.Math = envBool("PARSE_MATH", cfg.Parse.Math)
	cfg.Parse.Wikilinks = envBool("PARSE_WIKILINKS", cfg.Parse.Wikilinks)
	cfg.Parse.HTML = envBool("PARSE_HTML", cfg.Parse.HTML)

	if cfg.RateLimit > 0 && cfg.RateBurst <= 0 {
		cfg.RateBurst = int(cfg.RateLimit) + 1
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
