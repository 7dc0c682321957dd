// File: internal/config/config.go
package config

import (
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
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	OpenAIKey          string  `yaml:"openai_key"`
	GeminiKey          string  `yaml:"gemini_key"`
	GeminiURL          string  `yaml:"gemini_url"`
	Model              string  `yaml:"model"`
	ConcurrentLimit    int     `yaml:"concurrent_limit"` // max concurrent AI calls
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
	MaxAttempts        int     `yaml:"max_attempts"`
	BackoffBaseMS      int     `yaml:"backoff_base_ms"`
	BackoffCapMS       int     `yaml:"backoff_cap_ms"`
	InputTokenLimit    int     `yaml:"input_token_limit"`
	InputPricePerMTok  float64 `yaml:"input_price_per_mtok"`
	OutputPricePerMTok float64 `yaml:"output_price_per_mtok"`
}

type QueueConfig struct {
	Name              string        `yaml:"name"`
	Concurrency       int           `yaml:"concurrency"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	KeepCompleted     int           `yaml:"keep_completed"`
	RetentionInterval time.Duration `yaml:"retention_interval"`
}

type SecurityConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Queue    QueueConfig    `yaml:"queue"`
	Security SecurityConfig `yaml:"security"`

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
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 4
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.MaxAttempts <= 0 {
		cfg.AI.MaxAttempts = 3
	}
	if cfg.AI.BackoffBaseMS <= 0 {
		cfg.AI.BackoffBaseMS = 500
	}
	if cfg.AI.BackoffCapMS <= 0 {
		cfg.AI.BackoffCapMS = 2000
	}
	if cfg.AI.InputTokenLimit <= 0 {
		cfg.AI.InputTokenLimit = 120000
	}
	if cfg.Queue.Name == "" {
		cfg.Queue.Name = "letter-generation"
	}
	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = 2
	}
	if cfg.Queue.PollInterval <= 0 {
		cfg.Queue.PollInterval = 500 * time.Millisecond
	}
	if cfg.Queue.KeepCompleted <= 0 {
		cfg.Queue.KeepCompleted = 100
	}
	if cfg.Queue.RetentionInterval <= 0 {
		cfg.Queue.RetentionInterval = 15 * time.Minute
	}
}

// KeepFailed returns the failed-job retention cap: failed runs are kept
// five times longer than completed ones for debugging.
func (cfg *Config) KeepFailed() int { return cfg.Queue.KeepCompleted * 5 }
