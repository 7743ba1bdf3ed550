package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/ragdag/internal/graph"
	"github.com/hyperjump/ragdag/internal/models"
	"github.com/hyperjump/ragdag/internal/storage"
)

// apiVersion is reported by the health endpoint.
const apiVersion = "1.0.0"

type addRequest struct {
	Path    string `json:"path,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

type askRequest struct {
	Question string `json:"question"`
	Domain   string `json:"domain,omitempty"`
}

type linkRequest struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	EdgeType string `json:"edge_type,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

type relateRequest struct {
	Domain    string   `json:"domain,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": apiVersion})
}

// handleAdd ingests either a filesystem path or inline content.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" && req.Content == "" {
		s.respondError(w, http.StatusBadRequest, "path or content required")
		return
	}

	var (
		report *models.IngestReport
		err    error
	)
	if req.Path != "" {
		report, err = s.indexer.AddPath(r.Context(), req.Path, req.Domain)
	} else {
		report, err = s.indexer.AddText(r.Context(), req.Title, req.Content, req.Domain)
	}
	if err != nil {
		s.logger.Error("add failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", query.Query),
		zap.String("mode", query.Mode))
	results, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "question required")
		return
	}
	result, err := s.asker.Ask(r.Context(), req.Question, req.Domain)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	stats, err := s.graph.Stats(r.URL.Query().Get("domain"))
	if err != nil {
		s.logger.Error("graph stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "*")
	neighbors, err := s.graph.Neighbors(node)
	if err != nil {
		s.logger.Error("neighbors failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if neighbors == nil {
		neighbors = []models.Neighbor{}
	}
	s.respondJSON(w, http.StatusOK, neighbors)
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "*")
	steps, err := s.graph.Trace(node)
	if err != nil {
		s.logger.Error("trace failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, steps)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EdgeType == "" {
		req.EdgeType = graph.EdgeReferences
	}
	if err := s.graph.Link(req.Source, req.Target, req.EdgeType, req.Metadata); err != nil {
		s.logger.Error("link failed", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRelate(w http.ResponseWriter, r *http.Request) {
	var req relateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	threshold := s.config.Edges.RelateThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	report, err := s.graph.Relate(req.Domain, threshold)
	if err != nil {
		s.logger.Error("relate failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.graph.Stats("")
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"domains":   stats.Domains,
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
		"edges":     stats.Edges,
		"config": map[string]any{
			"store_dir":          s.config.StoreDir,
			"chunk_strategy":     s.config.General.ChunkStrategy,
			"chunk_size":         s.config.General.ChunkSize,
			"chunk_overlap":      s.config.General.ChunkOverlap,
			"embedding_provider": s.config.Embedding.Provider,
			"embedding_model":    s.config.Embedding.Model,
			"keyword_backend":    s.config.Search.KeywordBackend,
		},
	}
	if diskBytes, err := storage.DiskUsageBytes(s.config.StoreDir); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
