// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	ImageModel      string `yaml:"image_model"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type QuotaConfig struct {
	Backend     string        `yaml:"backend"` // memory | postgres | redis
	Window      time.Duration `yaml:"-"`
	MaxRequests int           `yaml:"max_requests"`
	GCInterval  time.Duration `yaml:"-"` // stale counter sweep period
}

// Durations come in as Go duration strings ("1h", "30m").
func (q *QuotaConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Backend     string `yaml:"backend"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
		GCInterval  string `yaml:"gc_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	q.Backend = raw.Backend
	q.MaxRequests = raw.MaxRequests
	var err error
	if q.Window, err = parseDuration("quota.window", raw.Window); err != nil {
		return err
	}
	if q.GCInterval, err = parseDuration("quota.gc_interval", raw.GCInterval); err != nil {
		return err
	}
	return nil
}

type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"` // HMAC secret shared with the SIWE verifier
	CookieName string `yaml:"cookie_name"`
}

type AlphaConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Whitelist []string `yaml:"whitelist"` // wallet addresses; "*" allows anyone
}

type WorkerConfig struct {
	Workers      int           `yaml:"workers"`
	PollInterval time.Duration `yaml:"-"`
}

func (w *WorkerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Workers      int    `yaml:"workers"`
		PollInterval string `yaml:"poll_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	w.Workers = raw.Workers
	var err error
	w.PollInterval, err = parseDuration("worker.poll_interval", raw.PollInterval)
	return err
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Quota    QuotaConfig    `yaml:"quota"`
	Auth     AuthConfig     `yaml:"auth"`
	Alpha    AlphaConfig    `yaml:"alpha"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.ImageModel == "" {
		cfg.AI.ImageModel = "dall-e-3"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Quota.Backend == "" {
		cfg.Quota.Backend = "memory"
	}
	if cfg.Quota.Window <= 0 {
		cfg.Quota.Window = time.Hour
	}
	if cfg.Quota.MaxRequests <= 0 {
		cfg.Quota.MaxRequests = 50
	}
	if cfg.Quota.GCInterval <= 0 {
		cfg.Quota.GCInterval = time.Hour
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "siwe_jwt"
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 4
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = 500 * time.Millisecond
	}

	// Minimal validation
	switch cfg.Quota.Backend {
	case "memory", "postgres", "redis":
	default:
		return nil, fmt.Errorf("quota.backend %q is not one of memory|postgres|redis", cfg.Quota.Backend)
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" && cfg.Quota.Backend == "redis" {
		return nil, errors.New("redis.url is required when quota.backend=redis")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
