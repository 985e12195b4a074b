package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
)

func (s *Server) handleCreateEmbedding(w http.ResponseWriter, r *http.Request) {
	var req models.EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doc, err := s.ingestion.Create(r.Context(), &req)
	if err != nil {
		s.respondFailure(w, err, "create embedding failed")
		return
	}
	s.respondJSON(w, http.StatusOK, &models.EmbedResponse{
		ID:        doc.ID,
		Embedding: doc.Vector,
		Text:      doc.Text,
	})
}

func (s *Server) handleGetEmbedding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err, "get embedding failed")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteEmbedding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	found, err := s.ingestion.Delete(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err, "delete embedding failed")
		return
	}
	if !found {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllEmbeddings(w http.ResponseWriter, r *http.Request) {
	count, err := s.ingestion.DeleteAll(r.Context())
	if err != nil {
		s.respondFailure(w, err, "delete all embeddings failed")
		return
	}
	s.respondJSON(w, http.StatusOK, &models.DeleteAllResponse{DeletedCount: count})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	results, err := s.searcher.Search(r.Context(), &query)
	if err != nil {
		s.respondFailure(w, err, "search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.respondFailure(w, err, "status: count documents failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": count})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondFailure maps a failure kind to an HTTP status. Dependency failures
// surface as 5xx with a diagnostic payload, never as a bare success.
func (s *Server) respondFailure(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrProviderUnavailable), errors.Is(err, models.ErrEmptyResult):
		s.logger.Error(logMsg, zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error(logMsg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
