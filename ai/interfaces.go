package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single, non-empty text string.
	// The returned vector has exactly the configured number of dimensions.
	// Provider or transport failures are reported as *RequestError.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a chat completion request.
type Message struct {
	Role    Role
	Content string
}

// ChatModel produces a free-text reply for a sequence of chat messages.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete sends the messages to the hosted chat model and returns the text
	// of the first choice. Failures are reported as *RequestError.
	Complete(ctx context.Context, messages []Message) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and ChatModel instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ChatModel returns the chat completion service.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
