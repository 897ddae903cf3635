// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every knob the API server and the mail worker read at startup.
// The activation token parameters are deliberately configuration rather than
// constants so deployments can tune the exposure window of leaked links.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASS,required"`
	DBName     string `env:"DB_NAME,required"`

	// SecretKey signs activation tokens. Rotating it invalidates every
	// outstanding activation link at once.
	SecretKey string `env:"SECRET_KEY,required"`

	// FrontendURL is the base of the activation links put into emails.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	// TokenBucket is the quantization of the activation token timestamp,
	// TokenMaxAge the number of buckets a token stays valid for.
	TokenBucket time.Duration `env:"ACTIVATION_TOKEN_BUCKET" envDefault:"24h"`
	TokenMaxAge int64         `env:"ACTIVATION_TOKEN_MAX_AGE" envDefault:"3"`

	KeyPairPath string `env:"KEY_PAIR_PATH" envDefault:"keypair.bin"`

	MailgunDomain string `env:"MAILGUN_DOMAIN" envDefault:"mail.allnutrition.dev"`
	MailgunAPIKey string `env:"MAILGUN_API_KEY"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	WorkerConcurrency int `env:"WORKER_CONCURRENCY" envDefault:"10"`
}

// New parses the configuration from the current environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.TokenBucket <= 0 {
		return nil, fmt.Errorf("activation token bucket must be positive, got %s", cfg.TokenBucket)
	}
	if cfg.TokenMaxAge <= 0 {
		return nil, fmt.Errorf("activation token max age must be positive, got %d", cfg.TokenMaxAge)
	}

	return cfg, nil
}

// DatabaseDSN assembles the postgres connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}
