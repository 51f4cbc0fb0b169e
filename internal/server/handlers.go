package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/stockwise/internal/models"
)

type contextRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = s.config.Search.DefaultLimit
	}
	if s.config.Search.MaxLimit > 0 && req.MaxResults > s.config.Search.MaxLimit {
		req.MaxResults = s.config.Search.MaxLimit
	}
	text := s.engine.RelevantContext(r.Context(), req.Query, req.MaxResults)
	s.respondJSON(w, http.StatusOK, map[string]string{"query": req.Query, "context": text})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.analytics.Get(r.Context())
	if err != nil {
		s.logger.Error("analytics failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleAnalyticsRefresh(w http.ResponseWriter, r *http.Request) {
	a, err := s.analytics.ForceRefresh(r.Context())
	if err != nil {
		s.logger.Error("analytics refresh failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleAnalyticsInvalidate(w http.ResponseWriter, r *http.Request) {
	s.analytics.Invalidate(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Regenerate(r.Context())
	resp := map[string]interface{}{"status": "regenerated", "documents": n}
	if err != nil {
		resp["warning"] = err.Error()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEmbeddingsInvalidate(w http.ResponseWriter, r *http.Request) {
	s.store.Invalidate(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.ID == "" {
		s.respondError(w, http.StatusBadRequest, "product with id is required")
		return
	}
	if err := s.store.UpdateProduct(r.Context(), p); err != nil {
		s.logger.Error("update product failed", zap.String("id", p.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.analytics.Invalidate(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{"id": p.ID, "status": "updated"})
}

func (s *Server) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	var sup models.Supplier
	if err := json.NewDecoder(r.Body).Decode(&sup); err != nil || sup.ID == "" {
		s.respondError(w, http.StatusBadRequest, "supplier with id is required")
		return
	}
	if err := s.store.UpdateSupplier(r.Context(), sup); err != nil {
		s.logger.Error("update supplier failed", zap.String("id", sup.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.analytics.Invalidate(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{"id": sup.ID, "status": "updated"})
}

func (s *Server) handleRefreshSales(w http.ResponseWriter, r *http.Request) {
	if err := s.store.UpdateSales(r.Context()); err != nil {
		s.logger.Error("refresh sales failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.analytics.Invalidate(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.store.RemoveDocument(r.Context(), id); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.analytics.Invalidate(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"documents":      s.store.Len(),
		"state":          s.store.State().String(),
		"schema_version": s.store.Stamp(),
		"config": map[string]interface{}{
			"embedding_provider":   s.config.Embedding.Provider,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"remote_embeddings":    s.config.Embedding.RemoteEnabled(),
			"analytics_ttl":        s.analytics.TTL().String(),
			"database_path":        s.config.Storage.DatabasePath,
			"cache_path":           s.config.Storage.CachePath,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
