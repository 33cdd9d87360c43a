package config

import (
	"fmt"
	"os"
	"time"

	"github.com/anonto42/usf-event/backend/pkg/logger"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "supersecretjwtkey"

type Config struct {
	Port                    string
	Env                     string
	MetricsPort             string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	SessionTTL              time.Duration
	SessionCookie           string
	FirebaseCredentialsPath string
	AWSRegion               string
	S3Bucket                string
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		PostgresUrl:             getEnv("POSTGRES_URL", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "usfevent"),
		JWTSecret:               getEnv("JWT_SECRET", DefaultJWTSecret),
		SessionTTL:              getEnvDuration("SESSION_TTL", 72*time.Hour),
		SessionCookie:           getEnv("SESSION_COOKIE", "session"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:                getEnv("S3_BUCKET_NAME", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.PostgresUrl == "" {
		return fmt.Errorf("POSTGRES_URL is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction uses the same ENV mapping as the logger.
func (c *Config) IsProduction() bool {
	return logger.IsProduction(c.Env)
}

// MediaEnabled reports whether uploads have somewhere to go.
func (c *Config) MediaEnabled() bool {
	return c.S3Bucket != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}
