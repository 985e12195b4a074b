// Package index provides vector index implementations and a factory for creating them.
//
// An Index is an external (or embedded) document store supporting exact-key
// lookup, insert, delete, and approximate k-NN vector search. The embedding
// store translates domain operations into these calls.
package index

import (
	"context"

	"github.com/hyperjump/kioku/internal/models"
)

// Index defines the backing vector store contract.
type Index interface {
	// Exists reports whether the index has been created.
	Exists(ctx context.Context) (bool, error)
	// Create creates the index with a schema binding the vector field to the
	// configured dimension and a cosine-similarity metric. Creating an index
	// that already exists is not an error.
	Create(ctx context.Context) error
	// Put writes a document under its id, overwriting any previous version.
	Put(ctx context.Context, doc *models.EmbeddingDocument) error
	// Get returns the document with the given id, or models.ErrNotFound.
	Get(ctx context.Context, id string) (*models.EmbeddingDocument, error)
	// Delete removes a document and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteAll removes every document and returns the number removed.
	DeleteAll(ctx context.Context) (int64, error)
	// KNNSearch returns up to k hits ordered by descending similarity score,
	// considering at least numCandidates candidates for recall.
	KNNSearch(ctx context.Context, vector []float32, k, numCandidates int) ([]*Hit, error)
	// Count returns the number of documents in the index.
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Hit is a single k-NN search hit. Score is the index-reported cosine
// similarity; implementations must propagate the genuine value, never a
// placeholder, because result ordering downstream depends on it.
type Hit struct {
	Document *models.EmbeddingDocument
	Score    float64
}
