// Package store provides the embedding store: document lifecycle and
// similarity queries on top of a backing vector index.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/index"
	"github.com/hyperjump/kioku/internal/models"
)

// minCandidates is the floor for the k-NN candidate pool. Over-sampling
// beyond topK improves recall against an approximate index.
const minCandidates = 100

// EmbeddingStore owns the document schema and index lifecycle, translating
// domain operations into vector index calls.
type EmbeddingStore struct {
	index      index.Index
	candidates int
	logger     *zap.Logger
}

// NewEmbeddingStore creates a store over the given index. candidates sets the
// minimum k-NN candidate pool; values below the default floor are raised to it.
func NewEmbeddingStore(idx index.Index, candidates int, logger *zap.Logger) *EmbeddingStore {
	if candidates < minCandidates {
		candidates = minCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingStore{
		index:      idx,
		candidates: candidates,
		logger:     logger,
	}
}

// InitializeIndex checks index existence and creates it when absent. It is
// idempotent and safe to call on every process start; a concurrent racer
// winning the creation is not an error.
func (s *EmbeddingStore) InitializeIndex(ctx context.Context) error {
	exists, err := s.index.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		s.logger.Debug("index already exists")
		return nil
	}
	if err := s.index.Create(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.logger.Info("index created")
	return nil
}

// Index writes a new document and returns its id, assigning one when absent.
// CreatedAt is set here; the document is read-only afterwards.
func (s *EmbeddingStore) Index(ctx context.Context, doc *models.EmbeddingDocument) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if err := s.index.Put(ctx, doc); err != nil {
		if errors.Is(err, models.ErrIndexWriteFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", models.ErrIndexWriteFailed, err)
	}
	s.logger.Debug("document indexed", zap.String("id", doc.ID))
	return doc.ID, nil
}

// Get returns the document with the given id, or models.ErrNotFound.
func (s *EmbeddingStore) Get(ctx context.Context, id string) (*models.EmbeddingDocument, error) {
	return s.index.Get(ctx, id)
}

// Delete removes a single document, reporting whether it existed.
func (s *EmbeddingStore) Delete(ctx context.Context, id string) (bool, error) {
	return s.index.Delete(ctx, id)
}

// DeleteAll removes every document and returns the number removed; zero is a
// valid outcome, not an error.
func (s *EmbeddingStore) DeleteAll(ctx context.Context) (int64, error) {
	count, err := s.index.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("all documents deleted", zap.Int64("count", count))
	return count, nil
}

// SearchBySimilarity returns at most topK hits ordered by descending score.
// The candidate pool is max(candidates, topK) to improve recall; topK of zero
// yields an empty result without touching the index.
func (s *EmbeddingStore) SearchBySimilarity(ctx context.Context, vector []float32, topK int) ([]*index.Hit, error) {
	if topK == 0 {
		return nil, nil
	}
	numCandidates := s.candidates
	if topK > numCandidates {
		numCandidates = topK
	}
	return s.index.KNNSearch(ctx, vector, topK, numCandidates)
}

// Count returns the number of documents in the index.
func (s *EmbeddingStore) Count(ctx context.Context) (int64, error) {
	return s.index.Count(ctx)
}
