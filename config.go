package variantkit

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the client configuration. All fields except APIKey and AppID
// have sensible defaults.
type Config struct {
	// APIKey authenticates every request via the x-api-key header.
	APIKey string `env:"VARIANTKIT_API_KEY"`

	// AppID scopes all endpoints to one application.
	AppID string `env:"VARIANTKIT_APP_ID"`

	// BaseURL is the API base, without the app id path prefix.
	BaseURL string `env:"VARIANTKIT_BASE_URL" envDefault:"https://api.variantlab.io/v1"`

	// TTL governs snapshot staleness: reads within TTL of the last fetch are
	// served from cache without a network call.
	TTL time.Duration `env:"VARIANTKIT_TTL" envDefault:"1h"`

	// Environment is a free-form deployment tag ("production", "staging").
	Environment string `env:"VARIANTKIT_ENVIRONMENT" envDefault:"production"`

	// ClientTag is stamped on assignments and log entries.
	ClientTag string `env:"VARIANTKIT_CLIENT_TAG" envDefault:"go"`
}

// Validate fails fast on incomplete configuration.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.AppID == "" {
		errs = append(errs, ErrMissingAppID)
	}
	if c.TTL <= 0 {
		errs = append(errs, ErrInvalidTTL)
	}
	return errors.Join(errs...)
}

// ConfigFromEnv builds a Config from environment variables, loading a .env
// file first when one exists.
func ConfigFromEnv() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
