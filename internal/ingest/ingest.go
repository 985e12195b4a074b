// Package ingest provides the ingestion service: validated create, delete,
// and bulk-delete of embedding documents.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/store"
)

// Service composes the embedding provider and the embedding store. Per
// document the lifecycle is absent -> indexed -> absent: if the store write
// fails after a successful embed, the document does not exist and the caller
// retries from Create. Concurrent creates are independent; each call shares
// no mutable state with the others.
type Service struct {
	embedder embedding.Embedder
	store    *store.EmbeddingStore
	logger   *zap.Logger
}

// NewService creates an ingestion service with the given dependencies.
func NewService(embedder embedding.Embedder, st *store.EmbeddingStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embedder: embedder,
		store:    st,
		logger:   logger,
	}
}

// Create validates the text, embeds it, and indexes the resulting document.
// Validation runs before any outbound call. Absent metadata is stored as
// omitted, never treated as an error.
func (s *Service) Create(ctx context.Context, req *models.EmbedRequest) (*models.EmbeddingDocument, error) {
	return s.CreateWithID(ctx, "", req)
}

// CreateWithID is Create with a caller-chosen id (empty = assigned by the
// store). File ingestion uses it so the same path always maps to the same document.
func (s *Service) CreateWithID(ctx context.Context, id string, req *models.EmbedRequest) (*models.EmbeddingDocument, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	doc := &models.EmbeddingDocument{
		ID:       id,
		Text:     req.Text,
		Vector:   vector,
		Metadata: req.Metadata,
	}
	assigned, err := s.store.Index(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("document created", zap.String("id", assigned))
	return doc, nil
}

// Delete removes a single document. A false result means nothing existed to
// delete, mapped to not-found at the API boundary.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// DeleteAll removes every document and returns the number removed.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.store.DeleteAll(ctx)
}
