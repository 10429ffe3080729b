package ingestion

import (
	"errors"
	"slices"

	"github.com/poiesic/storefront/core"
)

// Failure describes one record that was not indexed.
type Failure struct {
	// Position is the record's index in the input batch.
	Position int
	SKU      string
	Stage    Stage
	Err      error
}

// Report summarizes an ingestion run.
type Report struct {
	Total    int
	Indexed  int
	Failures []Failure
}

// Failed returns the number of records that were skipped.
func (r *Report) Failed() int {
	return len(r.Failures)
}

func (r *Report) addFailure(position int, product *core.Product, err error) {
	f := Failure{Position: position, SKU: skuOf(product), Err: err}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		f.Stage = stageErr.Stage
	}
	r.Failures = append(r.Failures, f)
}

func (r *Report) sortFailures() {
	slices.SortFunc(r.Failures, func(a, b Failure) int {
		return a.Position - b.Position
	})
}
