package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o", cfg.ChatModel)
	assert.Equal(t, 1536, cfg.Dimensions)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-large"),
			WithChatModel("gpt-3.5-turbo"),
		)

		assert.Equal(t, "text-embedding-3-large", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-3.5-turbo", cfg.ChatModel)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://localhost:11434"),
			WithAPIKey("sk-test"),
			WithDimensions(768),
			WithTemperature(0.2),
			WithRetry(5, time.Second),
			WithRequestsPerSecond(3),
		)

		assert.Equal(t, "http://localhost:11434", cfg.Host)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 768, cfg.Dimensions)
		assert.Equal(t, 0.2, cfg.Temperature)
		assert.Equal(t, 5, cfg.MaxRetries)
		assert.Equal(t, time.Second, cfg.RetryDelay)
		assert.Equal(t, 3.0, cfg.RequestsPerSecond)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "https://api.openai.com/v1", "https://api.openai.com/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.Host)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return NewConfig(WithAPIKey("sk-test"), WithHost("http://localhost:8080"))
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:8080/v1", cfg.Host, "should also normalize")
	})

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing host", func(c *Config) { c.Host = "" }, "Host"},
		{"missing api key", func(c *Config) { c.APIKey = "" }, "APIKey"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing chat model", func(c *Config) { c.ChatModel = "" }, "ChatModel"},
		{"zero dimensions", func(c *Config) { c.Dimensions = 0 }, "Dimensions"},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, "MaxRetries"},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }, "RetryDelay"},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }, "RequestsPerSecond"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
