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


package openai

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/poiesic/storefront/ai"
	"golang.org/x/time/rate"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// The embedder and chat model share one request rate limiter.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	chat     *ChatModel
	logger   *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	limiter := newLimiter(config)

	embedder, err := newEmbedder(config, limiter)
	if err != nil {
		return nil, err
	}

	chat, err := newChatModel(config, limiter)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		chat:     chat,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// ChatModel returns the chat completion service.
func (p *Provider) ChatModel() ai.ChatModel {
	return p.chat
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

// newLimiter returns nil when no rate limit is configured.
func newLimiter(config *ai.Config) *rate.Limiter {
	if config.RequestsPerSecond <= 0 {
		return nil
	}
	burst := int(config.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

// classify marks client errors as permanent so they are not retried. Request
// timeouts (408) and rate limiting (429) stay retryable, as do server errors
// and transport failures.
func classify(err error) error {
	if err == nil {
		return nil
	}
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	status, _ := strconv.Atoi(m[1])
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return ai.Permanent(err)
	}
	return err
}
