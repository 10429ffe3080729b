// Package reembed recomputes the embedding of every product already in the
// index, for example after switching embedding models.
//
// Products are read in SKU order in batches, embedded with one request per
// batch, validated and written back. Products that fail are reported and
// skipped; the run continues with the next batch.
package reembed
