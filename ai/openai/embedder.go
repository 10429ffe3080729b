package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	config   *ai.Config
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config, limiter *rate.Limiter) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		config:   config,
		limiter:  limiter,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, newLimiter(config))
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ai.ErrEmptyText
	}
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ai.ErrEmptyText
		}
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	return e.embed(ctx, texts)
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	attempts, err := ai.BackoffFromConfig(e.config).Retry(ctx, func() error {
		if err := waitLimiter(ctx, e.limiter); err != nil {
			return ai.Permanent(err)
		}
		var callErr error
		vectors, callErr = e.embedder.EmbedDocuments(ctx, texts)
		return classify(callErr)
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "attempts", attempts, "err", err)
		return nil, &ai.RequestError{Op: "embed", Model: e.config.EmbeddingModel, Attempts: attempts, Err: err}
	}

	if len(vectors) != len(texts) {
		err := fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(vectors))
		return nil, &ai.RequestError{Op: "embed", Model: e.config.EmbeddingModel, Attempts: attempts, Err: err}
	}
	for i, vector := range vectors {
		if err := core.ValidateEmbedding(vector, e.config.Dimensions); err != nil {
			e.logger.Warn("provider returned malformed embedding", "index", i, "length", len(vector))
			return nil, &ai.RequestError{Op: "embed", Model: e.config.EmbeddingModel, Attempts: attempts, Err: err}
		}
	}
	return vectors, nil
}
