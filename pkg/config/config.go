package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Auth struct {
		Secret   string            `yaml:"secret"`
		TokenTTL time.Duration     `yaml:"token_ttl"`
		Users    map[string]string `yaml:"users"`
	} `yaml:"auth"`
	Provider struct {
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		Timeout      time.Duration `yaml:"timeout"`
		UseFallback  bool          `yaml:"use_fallback"`
		FallbackSeed int64         `yaml:"fallback_seed"`
	} `yaml:"provider"`
	Model struct {
		Path           string  `yaml:"path"`
		SequenceLength int     `yaml:"sequence_length"`
		InputSize      int     `yaml:"input_size"`
		HiddenSize     int     `yaml:"hidden_size"`
		OutputSize     int     `yaml:"output_size"`
		LSTMLayers     int     `yaml:"lstm_layers"`
		Dropout        float64 `yaml:"dropout"`
		Workers        int     `yaml:"workers"`
	} `yaml:"model"`
	Instruments []string `yaml:"instruments"`
	Cache       struct {
		Type  string        `yaml:"type"` // none, memory, redis
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Recorder struct {
		Type  string `yaml:"type"` // none, kafka, clickhouse
		Kafka struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			Database     string        `yaml:"database"`
			User         string        `yaml:"user"`
			Password     string        `yaml:"password"`
			UseHTTP      bool          `yaml:"use_http"`
			AsyncInsert  bool          `yaml:"async_insert"`
			WaitForAsync bool          `yaml:"wait_for_async_insert"`
			DialTimeout  time.Duration `yaml:"dial_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"recorder"`
	Warmup struct {
		Enabled  bool   `yaml:"enabled"`
		Schedule string `yaml:"schedule"`
	} `yaml:"warmup"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Secrets are expected to come from the environment in deployed setups.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TRENDCAST_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("INSTRUMENTS"); v != "" {
		c.Instruments = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Recorder.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if len(c.Auth.Users) == 0 {
		return fmt.Errorf("auth.users cannot be empty")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	if c.Model.SequenceLength <= 0 {
		return fmt.Errorf("model.sequence_length must be positive")
	}
	if c.Model.InputSize <= 0 || c.Model.HiddenSize <= 0 || c.Model.OutputSize <= 0 {
		return fmt.Errorf("model sizes must be positive")
	}
	if c.Model.LSTMLayers <= 0 {
		return fmt.Errorf("model.lstm_layers must be positive")
	}
	switch c.Cache.Type {
	case "", "none", "memory", "redis":
	default:
		return fmt.Errorf("cache.type must be 'none', 'memory' or 'redis', got '%s'", c.Cache.Type)
	}
	switch c.Recorder.Type {
	case "", "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("recorder.type must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Recorder.Type)
	}
	return nil
}
