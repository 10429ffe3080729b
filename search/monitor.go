package search

import (
	"log/slog"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
)

// QueryMonitor provides hooks to observe the query pipeline.
// Implement this interface to trace intermediate steps of a question.
type QueryMonitor interface {
	Start(question string)
	AfterEmbedding(vector []float32)
	AfterNearestNeighbors(matches []*core.ProductMatch)
	AfterPrompt(messages []ai.Message)
	Finish(answer *Answer)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                               {}
func (n *noopMonitor) AfterEmbedding(_ []float32)                   {}
func (n *noopMonitor) AfterNearestNeighbors(_ []*core.ProductMatch) {}
func (n *noopMonitor) AfterPrompt(_ []ai.Message)                   {}
func (n *noopMonitor) Finish(_ *Answer)                             {}

// LogMonitor writes each pipeline stage to a logger at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ QueryMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) Start(question string) {
	m.Logger.Debug("question received", "question", question)
}

func (m *LogMonitor) AfterEmbedding(vector []float32) {
	m.Logger.Debug("question embedded", "dimensions", len(vector))
}

func (m *LogMonitor) AfterNearestNeighbors(matches []*core.ProductMatch) {
	for i, match := range matches {
		m.Logger.Debug("neighbor", "rank", i+1, "sku", match.Product.SKU, "name", match.Product.Name, "score", match.Score)
	}
}

func (m *LogMonitor) AfterPrompt(messages []ai.Message) {
	m.Logger.Debug("prompt built", "messages", len(messages))
}

func (m *LogMonitor) Finish(answer *Answer) {
	m.Logger.Debug("reply generated", "sku", answer.Product.SKU, "chars", len(answer.Reply))
}
