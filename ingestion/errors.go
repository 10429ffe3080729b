package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexRequired is returned when a product index is not provided.
	ErrIndexRequired = errors.New("product index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)

// Stage names the step of the pipeline at which a record failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StageEmbed    Stage = "embed"
	StageIndex    Stage = "index"
)

// StageError wraps a record failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
