package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/storefront/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client  llms.Model
	config  *ai.Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
func newChatModel(config *ai.Config, limiter *rate.Limiter) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client:  client,
		config:  config,
		limiter: limiter,
		logger:  slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config, newLimiter(config))
}

// Complete sends the messages and returns the content of the first choice.
func (m *ChatModel) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.MessageContent{
			Role:  messageType(msg.Role),
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	var response *llms.ContentResponse
	attempts, err := ai.BackoffFromConfig(m.config).Retry(ctx, func() error {
		if err := waitLimiter(ctx, m.limiter); err != nil {
			return ai.Permanent(err)
		}
		var callErr error
		response, callErr = m.client.GenerateContent(ctx, content, llms.WithTemperature(m.config.Temperature))
		return classify(callErr)
	})
	if err != nil {
		m.logger.Error("failed to generate content", "attempts", attempts, "err", err)
		return "", &ai.RequestError{Op: "chat", Model: m.config.ChatModel, Attempts: attempts, Err: err}
	}

	if response == nil || len(response.Choices) < 1 {
		m.logger.Warn("no choices returned from model")
		return "", &ai.RequestError{Op: "chat", Model: m.config.ChatModel, Attempts: attempts, Err: ai.ErrEmptyReply}
	}

	m.logger.Debug("chat completion received", "choices", len(response.Choices))
	return response.Choices[0].Content, nil
}

func messageType(role ai.Role) llms.ChatMessageType {
	switch role {
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
