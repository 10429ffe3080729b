package reembed

import "errors"

var (
	// ErrIndexRequired is returned when a product index is not provided.
	ErrIndexRequired = errors.New("product index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrZeroVector is recorded for products whose embedding cannot be normalized.
	ErrZeroVector = errors.New("embedding has zero magnitude")

	// ErrCountMismatch is returned when the embedder answers a batch with the
	// wrong number of vectors.
	ErrCountMismatch = errors.New("embedding count mismatch")
)
