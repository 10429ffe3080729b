// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

const DefaultHost = "https://api.openai.com/v1"

// Config holds configuration for AI service providers.
type Config struct {
	// Host is the base URL for the OpenAI-compatible API.
	// Example: "https://api.openai.com/v1"
	Host string

	// APIKey is the bearer token sent with each request.
	APIKey string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small"
	EmbeddingModel string

	// ChatModel is the model identifier to use for answer composition.
	// Example: "gpt-4o", "gpt-3.5-turbo"
	ChatModel string

	// Dimensions is the expected length of every embedding.
	// Default: 1536
	Dimensions int

	// Temperature is the sampling temperature for chat completions.
	Temperature float64

	// MaxRetries is the number of attempts made for each hosted call.
	// Default: 3
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff between attempts.
	// Default: 500ms
	RetryDelay time.Duration

	// RequestsPerSecond caps outgoing requests. Zero disables the limit.
	RequestsPerSecond float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the API base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithDimensions sets the expected embedding length.
func WithDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dim
	}
}

// WithTemperature sets the chat sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithRetry sets the attempt count and base backoff delay.
func WithRetry(maxRetries int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithRequestsPerSecond caps outgoing request rate.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// DefaultConfig returns a Config with defaults for the hosted OpenAI API.
// The API key is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultHost,
		EmbeddingModel: "text-embedding-3-small",
		ChatModel:      "gpt-4o",
		Dimensions:     1536,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithChatModel("gpt-3.5-turbo"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.Dimensions <= 0 {
		return errors.New("ai config: Dimensions must be greater than 0")
	}
	if c.MaxRetries <= 0 {
		return errors.New("ai config: MaxRetries must be greater than 0")
	}
	if c.RetryDelay < 0 {
		return errors.New("ai config: RetryDelay cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	return nil
}
