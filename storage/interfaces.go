package storage

import (
	"context"

	"github.com/poiesic/storefront/core"
)

// ProductIndex stores products with their embeddings and answers nearest-neighbor queries.
// Implementations must be safe for concurrent use.
type ProductIndex interface {
	// EnsureIndex creates the index and its vector mapping if it does not exist.
	// Calling it on an existing index is a no-op.
	EnsureIndex(ctx context.Context) error

	// Upsert writes a product keyed by its SKU, replacing any existing document.
	// The product must carry a valid embedding.
	Upsert(ctx context.Context, product *core.Product) error

	// GetProduct retrieves a product by SKU.
	// Returns ErrNotFound if the SKU is not indexed.
	GetProduct(ctx context.Context, sku string) (*core.Product, error)

	// Count returns the number of indexed products.
	Count(ctx context.Context) (int, error)

	// ListProducts returns up to limit products whose SKU sorts after the
	// given one, in SKU order. An empty after starts from the first product.
	ListProducts(ctx context.Context, after string, limit int) ([]*core.Product, error)

	// SearchKNN returns up to k products closest to vector, closest first.
	SearchKNN(ctx context.Context, vector []float32, k int) ([]*core.ProductMatch, error)

	// SearchText returns up to limit products whose description matches query.
	SearchText(ctx context.Context, query string, limit int) ([]*core.ProductMatch, error)

	// Close releases the underlying client.
	Close() error
}

// ProfileStore persists customer profiles as whole records.
type ProfileStore interface {
	// PutProfile stores the profile, replacing any existing record for the same user.
	PutProfile(ctx context.Context, profile *core.CustomerProfile) error

	// GetProfile retrieves a profile by user ID.
	// Returns ErrNotFound if no profile exists.
	GetProfile(ctx context.Context, userID string) (*core.CustomerProfile, error)

	// Close releases the underlying client.
	Close() error
}

// ConversationStore keeps an append-only log of conversation turns per user.
type ConversationStore interface {
	// AppendTurn records one turn.
	AppendTurn(ctx context.Context, turn *core.ConversationTurn) error

	// ListTurns returns the user's turns ordered oldest to newest.
	// When limit > 0 only the most recent limit turns are returned.
	ListTurns(ctx context.Context, userID string, limit int) ([]*core.ConversationTurn, error)

	// Close releases the underlying client.
	Close() error
}
