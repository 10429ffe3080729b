package core

import (
	"strings"
	"time"
)

// EmbeddingDimensions is the length of every product and query embedding.
// It must match the dimension configured on the search index.
const EmbeddingDimensions = 1536

// Product is a catalog entry enriched with a semantic embedding during ingestion.
// The SKU is unique and is used as the document key in the search index.
type Product struct {
	SKU         string
	Name        string
	Category    string
	Description string // page_content in the nested document variant
	Price       float64
	Tags        []string
	Embedding   []float32 // populated by the ingestion pipeline
}

// EmbeddingText returns the text the embedding is computed from.
func (p *Product) EmbeddingText() string {
	return strings.TrimSpace(p.Description)
}

// ProductMatch is a single hit from a similarity or full-text search.
// For vector searches a higher Score means a closer match.
type ProductMatch struct {
	Product *Product
	Score   float32
}

// CustomerProfile is a customer record owned by the profile store.
// Writes always replace the whole record.
type CustomerProfile struct {
	UserID           string   `json:"user_id,omitempty"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	PastTransactions []string `json:"past_transactions"`
}

// ConversationTurn is one question/answer exchange with a customer.
// Turns are append-only and keyed by (UserID, Timestamp).
type ConversationTurn struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
}
