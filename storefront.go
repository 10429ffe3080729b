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

package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/ai/openai"
	"github.com/poiesic/storefront/config"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/ingestion"
	"github.com/poiesic/storefront/reembed"
	"github.com/poiesic/storefront/search"
	"github.com/poiesic/storefront/storage"
	"github.com/poiesic/storefront/storage/badger"
	"github.com/poiesic/storefront/storage/cassandra"
	"github.com/poiesic/storefront/storage/opensearch"
	"github.com/poiesic/storefront/storage/redis"
)

// ErrAIUnavailable is returned by operations that need the AI provider when
// the Assistant was opened WithoutAI.
var ErrAIUnavailable = errors.New("assistant opened without an AI provider")

// Assistant owns every connection the storefront needs: the product index,
// the profile and conversation stores and the AI provider.
type Assistant struct {
	cfg           *config.Config
	index         storage.ProductIndex
	profiles      storage.ProfileStore
	conversations storage.ConversationStore
	provider      ai.AIProvider
	searcher      *search.Searcher

	// schema holds the Cassandra store when one is open so InitSchema can
	// create its keyspace.
	schema *cassandra.Store

	// closers run in reverse order of acquisition.
	closers []func() error
	logger  *slog.Logger
}

// Option configures an Assistant.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	noAI     bool
	logger   *slog.Logger
}

// WithProvider uses the given AI provider instead of connecting to the
// configured OpenAI endpoint. The Assistant takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithoutAI skips the AI provider. Storage operations keep working; asking,
// conversing and ingesting return ErrAIUnavailable.
func WithoutAI() Option {
	return func(o *options) {
		o.noAI = true
	}
}

// WithLogger sets the logger used by the Assistant and the pipelines it creates.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New connects every backend selected by cfg. On failure anything already
// opened is closed before the error is returned.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &options{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Assistant{
		cfg:    cfg,
		logger: logger.With("component", "assistant"),
	}
	if err := a.open(ctx, options); err != nil {
		a.Close()
		return nil, err
	}
	a.logger.Info("assistant ready",
		"index", cfg.Storefront.IndexBackend,
		"profiles", cfg.Storefront.ProfileBackend,
		"conversations", cfg.Storefront.ConversationBackend,
		"ai", a.provider != nil)
	return a, nil
}

func (a *Assistant) open(ctx context.Context, o *options) error {
	s := a.cfg.Storefront

	var local *badger.Backend
	if usesBackend(s, config.BackendBadger) {
		backend, err := badger.OpenBackend(s.DataDir, s.DataDir == config.MemoryDataDir)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, backend.Close)
		local = backend
	}

	var cache *redis.Store
	if s.ProfileBackend == config.BackendRedis || s.ConversationBackend == config.BackendRedis {
		store, err := redis.Open(ctx, redis.Config{
			URI:        a.cfg.Redis.URI,
			SessionTTL: a.cfg.Redis.SessionTTL,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		cache = store
	}

	if s.ProfileBackend == config.BackendCassandra || s.ConversationBackend == config.BackendCassandra {
		hosts, err := a.cfg.Cassandra.Hosts()
		if err != nil {
			return err
		}
		store, err := cassandra.Open(cassandra.Config{
			Hosts:             hosts,
			Port:              a.cfg.Cassandra.Port,
			Username:          a.cfg.Cassandra.User,
			Password:          a.cfg.Cassandra.Pwd,
			CACertFile:        a.cfg.SSL.CertFile,
			LocalDC:           a.cfg.Cassandra.LocalDC,
			Keyspace:          a.cfg.Cassandra.Keyspace,
			ReplicationFactor: a.cfg.Cassandra.Replication,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)
		a.schema = store
	}

	switch s.ProfileBackend {
	case config.BackendRedis:
		a.profiles = cache
	case config.BackendCassandra:
		a.profiles = a.schema
	case config.BackendBadger:
		a.profiles = badger.NewProfileStore(local)
	}

	switch s.ConversationBackend {
	case config.BackendRedis:
		a.conversations = cache
	case config.BackendCassandra:
		a.conversations = a.schema
	case config.BackendBadger:
		conversations, err := badger.NewConversationStore(local)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, conversations.Close)
		a.conversations = conversations
	}

	switch s.IndexBackend {
	case config.BackendOpenSearch:
		index, err := opensearch.NewProductIndex(ctx, opensearch.Config{
			URI:        a.cfg.OpenSearch.URI,
			Username:   a.cfg.OpenSearch.Username,
			Password:   a.cfg.OpenSearch.Password,
			Index:      a.cfg.OpenSearch.Index,
			Variant:    a.cfg.SchemaVariant(),
			CACertFile: a.cfg.SSL.CertFile,
			Insecure:   a.cfg.OpenSearch.Insecure,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, index.Close)
		a.index = index
	case config.BackendBadger:
		a.index = badger.NewProductIndex(local)
	}

	if o.noAI {
		return nil
	}
	provider := o.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(a.cfg.AIConfig())
		if err != nil {
			return err
		}
	}
	a.closers = append(a.closers, provider.Close)
	a.provider = provider

	searchOpts := []search.Option{
		search.WithNeighbors(s.Neighbors),
		search.WithLogger(a.logger),
	}
	// Debug logging traces every stage of the query pipeline.
	if a.logger.Enabled(ctx, slog.LevelDebug) {
		searchOpts = append(searchOpts, search.WithMonitor(&search.LogMonitor{Logger: a.logger}))
	}
	searcher, err := search.NewSearcher(a.index, provider, searchOpts...)
	if err != nil {
		return err
	}
	a.searcher = searcher
	return nil
}

// Close releases everything the Assistant opened, newest first. It returns
// the first error encountered but always attempts every close.
func (a *Assistant) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("error closing resource", "err", err)
			if first == nil {
				first = err
			}
		}
	}
	a.closers = nil
	return first
}

// Index returns the product index.
func (a *Assistant) Index() storage.ProductIndex {
	return a.index
}

// Profiles returns the customer profile store.
func (a *Assistant) Profiles() storage.ProfileStore {
	return a.profiles
}

// Conversations returns the conversation history store.
func (a *Assistant) Conversations() storage.ConversationStore {
	return a.conversations
}

// Searcher returns the query pipeline, or nil when opened WithoutAI.
func (a *Assistant) Searcher() *search.Searcher {
	return a.searcher
}

// InitSchema creates the product index and, when Cassandra is in use, its
// keyspace and tables. Existing schema is left untouched.
func (a *Assistant) InitSchema(ctx context.Context) error {
	if err := a.index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("creating product index: %w", err)
	}
	if a.schema != nil {
		if err := a.schema.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("creating cassandra schema: %w", err)
		}
	}
	return nil
}

// NewIngestionPipeline creates a pipeline that fills the product index using
// the configured worker pool size. Options override the configured defaults.
func (a *Assistant) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	if a.provider == nil {
		return nil, ErrAIUnavailable
	}
	defaults := []ingestion.Option{
		ingestion.WithPoolSize(a.cfg.Storefront.PoolSize),
		ingestion.WithLogger(a.logger),
	}
	return ingestion.NewPipeline(a.index, a.provider.Embedder(), append(defaults, opts...)...)
}

// NewReembedder creates a run that recomputes every indexed product's
// embedding with the configured embedding model.
func (a *Assistant) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if a.provider == nil {
		return nil, ErrAIUnavailable
	}
	return reembed.NewReembedder(a.index, a.provider.Embedder(), cfg, progress)
}

// NewSearcher creates an additional query pipeline with its own options.
func (a *Assistant) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	if a.provider == nil {
		return nil, ErrAIUnavailable
	}
	return search.NewSearcher(a.index, a.provider, opts...)
}

// Ask answers a one-off question without personalisation or history.
func (a *Assistant) Ask(ctx context.Context, question string) (*search.Answer, error) {
	if a.searcher == nil {
		return nil, ErrAIUnavailable
	}
	return a.searcher.Answer(ctx, question)
}

// Converse answers a customer's message. When userID is set the stored
// profile personalises the prompt, the most recent turns are replayed as
// history and the new turn is recorded. Unknown users are served anonymously.
func (a *Assistant) Converse(ctx context.Context, userID, message string) (*search.Answer, error) {
	if a.searcher == nil {
		return nil, ErrAIUnavailable
	}

	var profile *core.CustomerProfile
	var history []*core.ConversationTurn
	if userID != "" {
		p, err := a.profiles.GetProfile(ctx, userID)
		switch {
		case err == nil:
			profile = p
		case errors.Is(err, storage.ErrNotFound):
			a.logger.Debug("no profile for user, answering anonymously", "user", userID)
		default:
			return nil, fmt.Errorf("loading profile: %w", err)
		}

		history, err = a.conversations.ListTurns(ctx, userID, a.cfg.Storefront.HistoryTurns)
		if err != nil {
			return nil, fmt.Errorf("loading conversation history: %w", err)
		}
	}

	answer, err := a.searcher.AnswerCustomer(ctx, profile, message, history...)
	if err != nil {
		return nil, err
	}

	if userID != "" {
		turn := &core.ConversationTurn{
			UserID:    userID,
			Timestamp: time.Now().UTC(),
			Message:   message,
			Response:  answer.Reply,
		}
		// Recording is best effort once the reply exists.
		if err := a.conversations.AppendTurn(ctx, turn); err != nil {
			a.logger.Warn("failed to record conversation turn", "user", userID, "err", err)
		}
	}
	return answer, nil
}

func usesBackend(s config.StorefrontConfig, backend string) bool {
	return s.IndexBackend == backend || s.ProfileBackend == backend || s.ConversationBackend == backend
}
