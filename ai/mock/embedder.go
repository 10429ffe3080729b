package mock

import (
	"context"
	"encoding/binary"
	"math"
	"strings"
	"sync"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of generated vectors. Default: core.EmbeddingDimensions.
	Dimensions int

	mu        sync.Mutex
	callCount int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockEmbedder().
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dimensions: core.EmbeddingDimensions}
}

// EmbedText generates a deterministic bag-of-words embedding.
// Texts sharing words produce vectors that are close under L2 distance.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.EmbedTextFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ai.ErrEmptyText
	}
	return HashVector(text, m.Dimensions), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.EmbedTextsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ai.ErrEmptyText
		}
		vectors[i] = HashVector(text, m.Dimensions)
	}
	return vectors, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// HashVector builds a unit-length feature-hashed vector from the words in text.
// Each lowercased word is hashed with BLAKE2b into one of dim buckets.
func HashVector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = core.EmbeddingDimensions
	}
	vector := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}-")
		if word == "" {
			continue
		}
		h, _ := blake2b.New(8, nil)
		h.Write([]byte(word))
		bucket := binary.LittleEndian.Uint64(h.Sum(nil)) % uint64(dim)
		vector[bucket]++
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}
