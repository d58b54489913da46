package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"faceclock"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:""`

	// Database
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"faceclock"`

	// Provider
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL  string `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Recognition
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	PhotoDir          string        `envconfig:"PHOTO_DIR" default:"./photos"`
	DetectionInterval int           `envconfig:"DETECTION_INTERVAL" default:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
