package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendAzure  = "azure"
	BackendGoogle = "google"
	BackendLocal  = "local"
)

type Config struct {
	Environment string `envconfig:"APP_ENV" default:"dev"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Backend      string `envconfig:"TEXT_ANALYTICS_BACKEND" default:"azure"`
	Language     string `envconfig:"TEXT_ANALYTICS_LANGUAGE" default:"es"`
	ModelVersion string `envconfig:"TEXT_ANALYTICS_MODEL_VERSION" default:""`

	AzureEndpoint string `envconfig:"AZURE_COGNITIVE_URL"`
	AzureKey      string `envconfig:"AZURE_COGNITIVE_KEY"`

	GoogleCredentials string `envconfig:"NATURAL_LANGUAGE_CREDENTIALS"`
	LocalLanguages    string `envconfig:"LOCAL_LANGUAGES" default:"es,en,pt"`

	ValkeyAddress  string        `envconfig:"VALKEY_INIT_ADDRESS"`
	ValkeyPassword string        `envconfig:"VALKEY_PASSWORD"`
	ValkeyTLS      bool          `envconfig:"VALKEY_TLS" default:"false"`
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"24h"`

	ArchiveTable string `envconfig:"ARCHIVE_TABLE"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-west-2"`
	AWSEndpoint  string `envconfig:"AWS_ENDPOINT"`

	KafkaBroker       string `envconfig:"KAFKA_BROKER"`
	KafkaResultsTopic string `envconfig:"KAFKA_RESULTS_TOPIC" default:"text-analysis-results"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendAzure:
		if strings.TrimSpace(c.AzureEndpoint) == "" {
			return fmt.Errorf("AZURE_COGNITIVE_URL is required")
		}
		parsed, err := url.Parse(strings.TrimSpace(c.AzureEndpoint))
		if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
			return fmt.Errorf("AZURE_COGNITIVE_URL must be an absolute http(s) URL, got %q", c.AzureEndpoint)
		}
		if strings.TrimSpace(c.AzureKey) == "" {
			return fmt.Errorf("AZURE_COGNITIVE_KEY is required")
		}
	case BackendGoogle, BackendLocal:
	default:
		return fmt.Errorf("TEXT_ANALYTICS_BACKEND must be one of azure, google, local, got %q", c.Backend)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("TEXT_ANALYTICS_LANGUAGE is required")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must be >= 0")
	}
	if c.KafkaBroker != "" && strings.TrimSpace(c.KafkaResultsTopic) == "" {
		return fmt.Errorf("KAFKA_RESULTS_TOPIC is required when KAFKA_BROKER is set")
	}
	return nil
}
