package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Graph struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int64  `yaml:"timeout_seconds"`
		ReadRetries    int    `yaml:"read_retries"`
	} `yaml:"graph"`
	Classifier struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int64  `yaml:"timeout_seconds"`
	} `yaml:"classifier"`
	Sync struct {
		FetchWorkers       int   `yaml:"fetch_workers"`
		ClassifyWorkers    int   `yaml:"classify_workers"`
		ClassifyTimeoutSec int64 `yaml:"classify_timeout_seconds"`
	} `yaml:"sync"`
	Ledger struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"ledger"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		SessionExpiry int64  `yaml:"session_expiry_hours"`
	} `yaml:"auth"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file. The JWT
// secret may be overridden through the FENDR_JWT_SECRET environment
// variable so it can stay out of the config file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if secret := os.Getenv("FENDR_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Graph.TimeoutSeconds <= 0 {
		c.Graph.TimeoutSeconds = 15
	}
	if c.Graph.ReadRetries <= 0 {
		c.Graph.ReadRetries = 2
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = 30
	}
	if c.Sync.FetchWorkers <= 0 {
		c.Sync.FetchWorkers = 4
	}
	if c.Sync.ClassifyWorkers <= 0 {
		c.Sync.ClassifyWorkers = 5
	}
	if c.Sync.ClassifyTimeoutSec <= 0 {
		c.Sync.ClassifyTimeoutSec = 60
	}
	if c.Auth.SessionExpiry <= 0 {
		c.Auth.SessionExpiry = 24
	}
}
