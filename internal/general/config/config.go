package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	HTTP struct {
		Port          int
		MaxConcurrent int
	}
	JWT struct {
		SecretKey  string `yaml:"secret_key"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	}
	RateLimit struct {
		WindowSeconds     int
		WritePerWindow    int
		ActionPerWindow   int
		ReadPerWindow     int
		LocationPerWindow int
	}
}

// LoadFromFile loads config from a YAML file to a Config struct, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := parseYAML(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// HTTP
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.HTTP.MaxConcurrent == 0 {
		cfg.HTTP.MaxConcurrent = 100
	}

	// JWT
	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
	if cfg.JWT.TTLMinutes == 0 {
		cfg.JWT.TTLMinutes = 24 * 60
	}

	// Rate limits
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.RateLimit.WritePerWindow == 0 {
		cfg.RateLimit.WritePerWindow = 5
	}
	if cfg.RateLimit.ActionPerWindow == 0 {
		cfg.RateLimit.ActionPerWindow = 10
	}
	if cfg.RateLimit.ReadPerWindow == 0 {
		cfg.RateLimit.ReadPerWindow = 30
	}
	if cfg.RateLimit.LocationPerWindow == 0 {
		cfg.RateLimit.LocationPerWindow = 60
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// HTTP
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port must be in 1..65535")
	}
	if c.HTTP.MaxConcurrent < 1 {
		problems = append(problems, "http.max_concurrent must be positive")
	}

	// JWT
	if c.JWT.TTLMinutes < 1 {
		problems = append(problems, "jwt.ttl_minutes must be positive")
	}

	// Rate limits
	if c.RateLimit.WindowSeconds < 1 {
		problems = append(problems, "ratelimit.window_seconds must be positive")
	}
	if c.RateLimit.WritePerWindow < 1 || c.RateLimit.ActionPerWindow < 1 ||
		c.RateLimit.ReadPerWindow < 1 || c.RateLimit.LocationPerWindow < 1 {
		problems = append(problems, "ratelimit quotas must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
