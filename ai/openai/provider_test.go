package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves the embeddings and chat completions endpoints.
type fakeOpenAI struct {
	dimensions    int
	failFirst     int32 // number of initial requests answered with failStatus
	failStatus    int   // defaults to 500
	requests      atomic.Int32
	mu            sync.Mutex
	lastChatInput []map[string]any
}

func (f *fakeOpenAI) chatInput() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastChatInput
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.requests.Add(1)
	if n <= f.failFirst {
		w.Header().Set("Content-Type", "application/json")
		status := f.failStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"request rejected","type":"server_error"}}`))
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/v1/embeddings":
		inputs, _ := body["input"].([]any)
		data := make([]map[string]any, len(inputs))
		for i := range inputs {
			vector := make([]float32, f.dimensions)
			for j := range vector {
				vector[j] = 0.01
			}
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": vector}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  body["model"],
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	case "/v1/chat/completions":
		if msgs, ok := body["messages"].([]any); ok {
			f.mu.Lock()
			f.lastChatInput = nil
			for _, m := range msgs {
				if mm, ok := m.(map[string]any); ok {
					f.lastChatInput = append(f.lastChatInput, mm)
				}
			}
			f.mu.Unlock()
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Try the Trail Runner."},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestConfig(url string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(url),
		ai.WithAPIKey("sk-test"),
		ai.WithRetry(3, time.Millisecond),
	)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	provider, err := NewProvider(ai.NewConfig())
	require.Error(t, err, "missing api key must be rejected")
	assert.Nil(t, provider)
}

func TestEmbedder_EmbedText(t *testing.T) {
	fake := &fakeOpenAI{dimensions: core.EmbeddingDimensions}
	server := httptest.NewServer(fake)
	defer server.Close()

	provider, err := NewProvider(newTestConfig(server.URL))
	require.NoError(t, err)
	defer provider.Close()

	vector, err := provider.Embedder().EmbedText(context.Background(), "running shoes")
	require.NoError(t, err)
	assert.Len(t, vector, core.EmbeddingDimensions)
}

func TestEmbedder_EmptyText(t *testing.T) {
	fake := &fakeOpenAI{dimensions: core.EmbeddingDimensions}
	server := httptest.NewServer(fake)
	defer server.Close()

	embedder, err := NewEmbedder(newTestConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "  ")
	assert.ErrorIs(t, err, ai.ErrEmptyText)
	assert.Equal(t, int32(0), fake.requests.Load(), "no request should be sent")
}

func TestEmbedder_RetriesTransientFailure(t *testing.T) {
	fake := &fakeOpenAI{dimensions: core.EmbeddingDimensions, failFirst: 2}
	server := httptest.NewServer(fake)
	defer server.Close()

	embedder, err := NewEmbedder(newTestConfig(server.URL))
	require.NoError(t, err)

	vector, err := embedder.EmbedText(context.Background(), "running shoes")
	require.NoError(t, err)
	assert.Len(t, vector, core.EmbeddingDimensions)
	assert.Equal(t, int32(3), fake.requests.Load())
}

func TestEmbedder_PersistentFailure(t *testing.T) {
	fake := &fakeOpenAI{dimensions: core.EmbeddingDimensions, failFirst: 100}
	server := httptest.NewServer(fake)
	defer server.Close()

	embedder, err := NewEmbedder(newTestConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "running shoes")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrRequestFailed)

	var reqErr *ai.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "embed", reqErr.Op)
	assert.Equal(t, 3, reqErr.Attempts)
}

func TestEmbedder_ClientErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		status   int
		attempts int
	}{
		{http.StatusUnauthorized, 1},
		{http.StatusBadRequest, 1},
		{http.StatusNotFound, 1},
		{http.StatusTooManyRequests, 3},
		{http.StatusServiceUnavailable, 3},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			fake := &fakeOpenAI{dimensions: core.EmbeddingDimensions, failFirst: 100, failStatus: tt.status}
			server := httptest.NewServer(fake)
			defer server.Close()

			embedder, err := NewEmbedder(newTestConfig(server.URL))
			require.NoError(t, err)

			_, err = embedder.EmbedText(context.Background(), "running shoes")
			assert.ErrorIs(t, err, ai.ErrRequestFailed)

			var reqErr *ai.RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.attempts, reqErr.Attempts)
			assert.Equal(t, int32(tt.attempts), fake.requests.Load())
		})
	}
}

func TestChatModel_UnauthorizedIsNotRetried(t *testing.T) {
	fake := &fakeOpenAI{dimensions: core.EmbeddingDimensions, failFirst: 100, failStatus: http.StatusUnauthorized}
	server := httptest.NewServer(fake)
	defer server.Close()

	provider, err := NewProvider(newTestConfig(server.URL))
	require.NoError(t, err)

	_, err = provider.ChatModel().Complete(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ai.ErrRequestFailed)
	assert.Equal(t, int32(1), fake.requests.Load())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	transient := errors.New("API returned unexpected status code: 500: boom")
	assert.Equal(t, transient, classify(transient))

	rejected := errors.New("API returned unexpected status code: 401: Incorrect API key provided")
	_, err := ai.Backoff{Attempts: 3, Delay: time.Millisecond}.Retry(context.Background(), func() error {
		return classify(rejected)
	})
	assert.Equal(t, rejected, err)

	network := errors.New("dial tcp: connection refused")
	assert.Equal(t, network, classify(network))
}

func TestEmbedder_WrongDimensions(t *testing.T) {
	fake := &fakeOpenAI{dimensions: 3}
	server := httptest.NewServer(fake)
	defer server.Close()

	embedder, err := NewEmbedder(newTestConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "running shoes")
	assert.ErrorIs(t, err, ai.ErrRequestFailed)
	assert.ErrorIs(t, err, core.ErrInvalidEmbedding)
}

func TestChatModel_Complete(t *testing.T) {
	fake := &fakeOpenAI{dimensions: core.EmbeddingDimensions}
	server := httptest.NewServer(fake)
	defer server.Close()

	provider, err := NewProvider(newTestConfig(server.URL))
	require.NoError(t, err)

	reply, err := provider.ChatModel().Complete(context.Background(), []ai.Message{
		{Role: ai.RoleSystem, Content: "You sell sporting goods."},
		{Role: ai.RoleUser, Content: "What shoes should I buy?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Try the Trail Runner.", reply)

	input := fake.chatInput()
	require.Len(t, input, 2)
	assert.Equal(t, "system", input[0]["role"])
	assert.Equal(t, "user", input[1]["role"])
}

func TestChatModel_Failure(t *testing.T) {
	fake := &fakeOpenAI{failFirst: 100}
	server := httptest.NewServer(fake)
	defer server.Close()

	chat, err := NewChatModel(newTestConfig(server.URL))
	require.NoError(t, err)

	_, err = chat.Complete(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ai.ErrRequestFailed)
}

func TestMessageType(t *testing.T) {
	assert.Equal(t, "system", string(messageType(ai.RoleSystem)))
	assert.Equal(t, "ai", string(messageType(ai.RoleAssistant)))
	assert.Equal(t, "human", string(messageType(ai.RoleUser)))
}
