package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// DefaultNeighbors is the number of nearest products retrieved per question.
const DefaultNeighbors = 3

// Answer is the result of one question through the query pipeline.
type Answer struct {
	Question string
	// Product is the nearest match the reply was grounded on.
	Product *core.Product
	// Matches holds every retrieved neighbor, closest first.
	Matches []*core.ProductMatch
	Reply   string
}

// Searcher answers shopper questions by retrieving the nearest products and
// asking a chat model to reply using them.
type Searcher struct {
	index     storage.ProductIndex
	embedder  ai.Embedder
	chat      ai.ChatModel
	neighbors int
	monitor   QueryMonitor
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithNeighbors sets how many products are retrieved per question.
// Default is DefaultNeighbors.
func WithNeighbors(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return ErrInvalidNeighbors
		}
		s.neighbors = k
		return nil
	}
}

// WithMonitor observes each stage of the query pipeline.
func WithMonitor(monitor QueryMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index storage.ProductIndex, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		index:     index,
		embedder:  provider.Embedder(),
		chat:      provider.ChatModel(),
		neighbors: DefaultNeighbors,
		monitor:   &noopMonitor{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")
	return s, nil
}

// FindSimilar embeds the question and returns up to k nearest products, closest first.
// An embedding failure is returned as-is and matches ai.ErrRequestFailed.
func (s *Searcher) FindSimilar(ctx context.Context, question string, k int) ([]*core.ProductMatch, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if k < 1 {
		return nil, ErrInvalidNeighbors
	}

	s.monitor.Start(question)
	vector, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		s.logger.Error("error generating embedding for question", "err", err)
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	s.monitor.AfterEmbedding(vector)

	matches, err := s.index.SearchKNN(ctx, vector, k)
	if err != nil {
		s.logger.Error("error querying nearest products", "err", err)
		return nil, fmt.Errorf("searching index: %w", err)
	}
	s.monitor.AfterNearestNeighbors(matches)
	return matches, nil
}

// Answer runs the full query pipeline: embed, retrieve the nearest products,
// prompt the chat model with the closest one and return its reply.
// Returns ErrNoMatchFound when the index yields no products.
func (s *Searcher) Answer(ctx context.Context, question string) (*Answer, error) {
	matches, err := s.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	top := matches[0].Product
	return s.complete(ctx, question, matches, BuildAnswerPrompt(question, top))
}

// AnswerCustomer answers with the personalised assistant prompt, using the
// customer's profile, the two closest products and any earlier turns of the
// conversation. profile may be nil for anonymous shoppers.
func (s *Searcher) AnswerCustomer(ctx context.Context, profile *core.CustomerProfile, question string, history ...*core.ConversationTurn) (*Answer, error) {
	matches, err := s.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	var next *core.Product
	if len(matches) > 1 {
		next = matches[1].Product
	}
	messages := BuildCustomerPrompt(profile, question, matches[0].Product, next, history)
	return s.complete(ctx, question, matches, messages)
}

// MatchText runs a full-text match of the query's significant words against
// product descriptions. Returns ErrNoMatchFound when nothing matches.
func (s *Searcher) MatchText(ctx context.Context, query string, limit int) ([]*core.ProductMatch, error) {
	terms := tokenizeAndFilter(query)
	if len(terms) == 0 {
		return nil, ErrEmptyQuestion
	}
	if limit < 1 {
		limit = s.neighbors
	}
	matches, err := s.index.SearchText(ctx, strings.Join(terms, " "), limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoMatchFound
	}
	return matches, nil
}

func (s *Searcher) retrieve(ctx context.Context, question string) ([]*core.ProductMatch, error) {
	matches, err := s.FindSimilar(ctx, question, s.neighbors)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		s.logger.Info("no products matched question")
		return nil, ErrNoMatchFound
	}
	return matches, nil
}

func (s *Searcher) complete(ctx context.Context, question string, matches []*core.ProductMatch, messages []ai.Message) (*Answer, error) {
	s.monitor.AfterPrompt(messages)
	reply, err := s.chat.Complete(ctx, messages)
	if err != nil {
		s.logger.Error("error completing chat", "err", err)
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	answer := &Answer{
		Question: strings.TrimSpace(question),
		Product:  matches[0].Product,
		Matches:  matches,
		Reply:    reply,
	}
	s.monitor.Finish(answer)
	return answer, nil
}
