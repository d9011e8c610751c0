package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the full server configuration. Secrets (db password, jwt
// secret, generation API key) are read from Docker-secret files and carry no
// envconfig tags.
type Config struct {
	// Server
	Port     string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PostgreSQL
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int    `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBPassword string

	// Redis (settings cache + rate limiter store)
	RedisAddr        string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB          int           `envconfig:"REDIS_DB" default:"0"`
	SettingsCacheTTL time.Duration `envconfig:"SETTINGS_CACHE_TTL" default:"5m"`

	// RabbitMQ
	RabbitMQURL     string `envconfig:"RABBITMQ_URL" required:"true"`
	EventsQueueName string `envconfig:"EVENTS_QUEUE_NAME" default:"storyrunner_events"`

	// Chapter generation
	GenerationMode       string        `envconfig:"GENERATION_MODE" default:"openai"` // openai | mock
	GenerationModel      string        `envconfig:"GENERATION_MODEL" default:"gpt-4o-mini"`
	GenerationBaseURL    string        `envconfig:"GENERATION_BASE_URL" default:""`
	GenerationTimeout    time.Duration `envconfig:"GENERATION_TIMEOUT" default:"60s"`
	GenerationMaxRetries int           `envconfig:"GENERATION_MAX_RETRIES" default:"2"`
	GenerationAPIKey     string

	// Wallet
	SignupGrantCredits int64 `envconfig:"SIGNUP_GRANT_CREDITS" default:"100"`
	// RefundOnGenerationFailure selects the compensation policy when a debit
	// succeeded but the chapter was never produced: refund the debit (true) or
	// treat credits as consumed on attempt (false).
	RefundOnGenerationFailure bool `envconfig:"REFUND_ON_GENERATION_FAILURE" default:"true"`

	// Rate limiting (whole-API, per client IP)
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	// Auth
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h"`
	JWTSecret      string
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// MockGeneration reports whether the deterministic local generator should be
// used instead of the external API.
func (c *Config) MockGeneration() bool {
	return strings.EqualFold(c.GenerationMode, "mock") || c.GenerationAPIKey == ""
}

// LoadConfig loads configuration from environment variables and secret files.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.JWTSecret, loadErr = ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	// The generation key is optional: without it the server runs in mock mode.
	cfg.GenerationAPIKey, _ = ReadSecret("generation_api_key")

	return &cfg, nil
}

// ReadSecret reads a secret from the standard Docker Secrets path, falling
// back to the <NAME>_FILE environment variable when set.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	if override := os.Getenv(strings.ToUpper(secretName) + "_FILE"); override != "" {
		filePath = override
	}
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
