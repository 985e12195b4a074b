// Package search provides the similarity-search service.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/store"
)

// Service embeds a query and asks the embedding store for nearest neighbors.
type Service struct {
	embedder embedding.Embedder
	store    *store.EmbeddingStore
	logger   *zap.Logger
}

// NewService creates a search service with the given dependencies.
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

// Search validates the query, embeds it, and returns ranked results. Results
// keep the store's order (descending similarity) and its genuine scores; no
// local re-sorting happens, so the metric is defined entirely by the index.
func (s *Service) Search(ctx context.Context, query *models.SearchQuery) ([]*models.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if query.TopK == 0 {
		return []*models.SearchResult{}, nil
	}

	vector, err := s.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.SearchBySimilarity(ctx, vector, query.TopK)
	if err != nil {
		return nil, err
	}

	results := make([]*models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, &models.SearchResult{
			ID:       hit.Document.ID,
			Text:     hit.Document.Text,
			Score:    hit.Score,
			Metadata: hit.Document.Metadata,
		})
	}
	s.logger.Debug("search completed", zap.Int("results", len(results)), zap.Int("top_k", query.TopK))
	return results, nil
}
