package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the dispatcher
type Config struct {
	Environment string `validate:"required"`
	Port        string `validate:"required,numeric"`
	Table       TableConfig
	Log         LogConfig
	RateLimit   RateLimitConfig
}

// TableConfig selects and configures the table backend
type TableConfig struct {
	Name         string `validate:"required"`
	Backend      string `validate:"required,oneof=memory leveldb sqlite dynamodb"`
	PartitionKey string `validate:"required"`
	SortKey      string `validate:"omitempty,nefield=PartitionKey"`
	Path         string
	Region       string `validate:"required_if=Backend dynamodb"`
	Endpoint     string `validate:"omitempty,url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"required,oneof=trace debug info warn warning error fatal panic"`
	Format string `validate:"required,oneof=text json"`
}

// RateLimitConfig holds the token bucket settings of the HTTP server
type RateLimitConfig struct {
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gt=0"`
}

// PollerConfig holds configuration for the temperature poller
type PollerConfig struct {
	Endpoint    string        `validate:"required,url"`
	HeaderName  string        `validate:"required"`
	HeaderValue string
	MaxAttempts int           `validate:"min=1"`
	RetryDelay  time.Duration `validate:"gte=0"`
	Interval    time.Duration `validate:"gt=0"`
	HTTPTimeout time.Duration `validate:"gt=0"`
	Log         LogConfig
}

var validate = validator.New()

func setDefaults() {
	// Load .env file if it exists
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("TABLE_BACKEND", "memory")
	viper.SetDefault("TABLE_PARTITION_KEY", "time")
	viper.SetDefault("TABLE_PATH", "./data/items")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("RATE_LIMIT_RPS", 50)
	viper.SetDefault("RATE_LIMIT_BURST", 100)

	viper.SetDefault("POLLER_ENDPOINT", "http://localhost:8080/DynamoDBManager")
	viper.SetDefault("POLLER_HEADER_NAME", "HeaderAuth1")
	viper.SetDefault("POLLER_HEADER_VALUE", "headerValue1")
	viper.SetDefault("POLLER_MAX_ATTEMPTS", 3)
	viper.SetDefault("POLLER_RETRY_DELAY", "10s")
	viper.SetDefault("POLLER_INTERVAL", "120s")
	viper.SetDefault("POLLER_HTTP_TIMEOUT", "30s")
}

// Load loads the dispatcher configuration from environment variables and
// an optional .env file
func Load() (*Config, error) {
	setDefaults()

	config := &Config{
		Environment: viper.GetString("ENVIRONMENT"),
		Port:        viper.GetString("PORT"),
		Table: TableConfig{
			Name:         viper.GetString("TABLE_NAME"),
			Backend:      strings.ToLower(viper.GetString("TABLE_BACKEND")),
			PartitionKey: viper.GetString("TABLE_PARTITION_KEY"),
			SortKey:      viper.GetString("TABLE_SORT_KEY"),
			Path:         viper.GetString("TABLE_PATH"),
			Region:       viper.GetString("AWS_REGION"),
			Endpoint:     viper.GetString("DYNAMODB_ENDPOINT"),
		},
		Log:       loadLogConfig(),
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadPoller loads the poller configuration. Durations use Go syntax,
// e.g. "10s" or "2m".
func LoadPoller() (*PollerConfig, error) {
	setDefaults()

	config := &PollerConfig{
		Endpoint:    viper.GetString("POLLER_ENDPOINT"),
		HeaderName:  viper.GetString("POLLER_HEADER_NAME"),
		HeaderValue: viper.GetString("POLLER_HEADER_VALUE"),
		MaxAttempts: viper.GetInt("POLLER_MAX_ATTEMPTS"),
		RetryDelay:  viper.GetDuration("POLLER_RETRY_DELAY"),
		Interval:    viper.GetDuration("POLLER_INTERVAL"),
		HTTPTimeout: viper.GetDuration("POLLER_HTTP_TIMEOUT"),
		Log:         loadLogConfig(),
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid poller configuration: %w", err)
	}
	return config, nil
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(viper.GetString("LOG_LEVEL")),
		Format: strings.ToLower(viper.GetString("LOG_FORMAT")),
	}
}

// TablePath returns the table location the server would open, with the
// same .env and default handling as Load
func TablePath() string {
	setDefaults()
	return viper.GetString("TABLE_PATH")
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
