package variantkit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantlab/variantkit"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := variantkit.Config{APIKey: "k", AppID: "app", TTL: time.Hour}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*variantkit.Config)
		wantErr error
	}{
		{"missing api key", func(c *variantkit.Config) { c.APIKey = "" }, variantkit.ErrMissingAPIKey},
		{"missing app id", func(c *variantkit.Config) { c.AppID = "" }, variantkit.ErrMissingAppID},
		{"zero ttl", func(c *variantkit.Config) { c.TTL = 0 }, variantkit.ErrInvalidTTL},
		{"negative ttl", func(c *variantkit.Config) { c.TTL = -time.Second }, variantkit.ErrInvalidTTL},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateJoinsAllErrors(t *testing.T) {
	t.Parallel()

	err := variantkit.Config{}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, variantkit.ErrMissingAPIKey)
	assert.ErrorIs(t, err, variantkit.ErrMissingAppID)
	assert.ErrorIs(t, err, variantkit.ErrInvalidTTL)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("VARIANTKIT_API_KEY", "env-key")
	t.Setenv("VARIANTKIT_APP_ID", "env-app")
	t.Setenv("VARIANTKIT_TTL", "30m")

	cfg, err := variantkit.ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "env-app", cfg.AppID)
	assert.Equal(t, 30*time.Minute, cfg.TTL)
	assert.Equal(t, "https://api.variantlab.io/v1", cfg.BaseURL)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "go", cfg.ClientTag)
	assert.NoError(t, cfg.Validate())
}
