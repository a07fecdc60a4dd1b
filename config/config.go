package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendSimulated = "simulated"
	BackendHTTP      = "http"
)

// Config is the full application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Qwen   QwenConfig   `yaml:"qwen"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type QwenConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	Backend        string        `yaml:"backend"` // "simulated" or "http"
	Timeout        time.Duration `yaml:"timeout"`
	SimulatedDelay time.Duration `yaml:"simulated_delay"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file or env vars are given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8080",
			StaticDir: "./static",
		},
		Qwen: QwenConfig{
			BaseURL:        "https://stzhao-qwen2-5-vl-7b-instruct.hf.space",
			Backend:        BackendSimulated,
			Timeout:        30 * time.Second,
			SimulatedDelay: time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the optional YAML file at path, then applies env overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("QWEN_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("QWEN_BASE_URL"); v != "" {
		c.Qwen.BaseURL = v
	}
	if v := os.Getenv("QWEN_MODEL"); v != "" {
		c.Qwen.Model = v
	}
	if v := os.Getenv("QWEN_BACKEND"); v != "" {
		c.Qwen.Backend = v
	}
	if v := os.Getenv("QWEN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QWEN_TIMEOUT: %w", err)
		}
		c.Qwen.Timeout = d
	}
	if v := os.Getenv("QWEN_SIMULATED_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QWEN_SIMULATED_DELAY: %w", err)
		}
		c.Qwen.SimulatedDelay = d
	}
	if v := os.Getenv("QWEN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Qwen.Backend {
	case BackendSimulated:
	case BackendHTTP:
		if c.Qwen.BaseURL == "" {
			return fmt.Errorf("qwen.base_url is required for the http backend")
		}
	default:
		return fmt.Errorf("unknown qwen.backend %q", c.Qwen.Backend)
	}
	if c.Qwen.Timeout <= 0 {
		return fmt.Errorf("qwen.timeout must be positive, got %s", c.Qwen.Timeout)
	}
	if c.Qwen.SimulatedDelay < 0 {
		return fmt.Errorf("qwen.simulated_delay must not be negative")
	}
	return nil
}
