// Package config loads the storyloom service configuration from a YAML
// file with environment variable fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration struct{ time.Duration }

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText renders the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents the application configuration
type Config struct {
	// API Keys
	OpenAIKey string `yaml:"openai_key"`
	GeminiKey string `yaml:"gemini_key"`

	// Generation configuration
	Provider     string        `yaml:"provider"`      // openai, gemini
	ChatModel    string        `yaml:"chat_model"`    // e.g. gpt-4o
	ImageModel   string        `yaml:"image_model"`   // e.g. dall-e-3
	StageTimeout Duration `yaml:"stage_timeout"` // per generation call

	// Rate limiting (0 disables)
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// Session store: memory, redis, firestore
	Store     string          `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Firestore FirestoreConfig `yaml:"firestore"`

	// Session expiry (0 disables the sweeper)
	SessionTTL    Duration `yaml:"session_ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`

	// HTTP ports
	APIPort     int `yaml:"api_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// RedisConfig holds Redis store configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// FirestoreConfig holds Firestore store configuration
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Collection      string `yaml:"collection"`
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults so the service can run on environment variables alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.Store == "" {
		cfg.Store = "memory"
	}
	if cfg.StageTimeout.Duration == 0 {
		cfg.StageTimeout.Duration = 120 * time.Second
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = 8000
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9090
	}
	if cfg.Burst == 0 {
		cfg.Burst = 5
	}
	if cfg.SweepInterval.Duration == 0 {
		cfg.SweepInterval.Duration = time.Minute
	}
}

func applyEnv(cfg *Config) {
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	}
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if cfg.Firestore.CredentialsFile == "" {
		cfg.Firestore.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
