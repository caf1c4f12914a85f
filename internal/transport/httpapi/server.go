// Package httpapi exposes the product search pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hervens/productsearch/internal/domain/product"
	"github.com/hervens/productsearch/internal/domain/query"
	"github.com/hervens/productsearch/internal/usecase/searchapi"
)

// Pipeline runs extraction and retrieval for one user query.
type Pipeline interface {
	Run(ctx context.Context, userQuery string, useVector bool, limit int) (searchapi.Result, error)
}

// HealthCheck reports the availability of one dependency.
type HealthCheck func(ctx context.Context) error

// Limits bounds the per-request result count.
type Limits struct {
	Default int
	Max     int
}

// Server holds the HTTP handlers.
type Server struct {
	pipeline Pipeline
	limits   Limits
	checks   map[string]HealthCheck
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	pipeline Pipeline,
	limits Limits,
	checks map[string]HealthCheck,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: pipeline,
		limits:   limits,
		checks:   checks,
		logger:   logger,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/search", s.handleSearchGet)
	r.Post("/api/search", s.handleSearchPost)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// searchGetResponse is the lightweight envelope of GET /search, exposing the
// raw extraction next to the results.
type searchGetResponse struct {
	Success      bool                  `json:"success"`
	Error        string                `json:"error,omitempty"`
	ParsedOutput *query.ExtractedQuery `json:"parsed_output,omitempty"`
	Results      []product.Product     `json:"results"`
}

// handleSearchGet handles GET /search?query=...&limit=...
func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	userQuery := r.URL.Query().Get("query")
	if userQuery == "" {
		writeJSON(w, http.StatusBadRequest, searchGetResponse{
			Success: false,
			Error:   "query parameter is required",
			Results: []product.Product{},
		})
		return
	}
	limit := s.parseLimit(r.URL.Query().Get("limit"))

	res, err := s.pipeline.Run(r.Context(), userQuery, true, limit)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", userQuery), zap.Error(err))
		writeJSON(w, http.StatusOK, searchGetResponse{
			Success: false,
			Error:   "search failed",
			Results: []product.Product{},
		})
		return
	}

	writeJSON(w, http.StatusOK, searchGetResponse{
		Success:      true,
		ParsedOutput: &res.Extracted,
		Results:      nonNil(res.Products),
	})
}

// searchPostRequest is the request body of POST /api/search.
type searchPostRequest struct {
	Query           string `json:"query"`
	UseVectorSearch *bool  `json:"use_vector_search"`
	Limit           int    `json:"limit"`
}

// searchPostResponse is the full envelope of POST /api/search.
type searchPostResponse struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	Query            string            `json:"query"`
	ResultsCount     int               `json:"results_count"`
	Results          []product.Product `json:"results"`
	FiltersExtracted *query.Filters    `json:"filters_extracted,omitempty"`
}

// handleSearchPost handles POST /api/search.
func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, searchPostResponse{
			Success: false,
			Message: "invalid request body: " + err.Error(),
			Results: []product.Product{},
		})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, searchPostResponse{
			Success: false,
			Message: "query is required",
			Results: []product.Product{},
		})
		return
	}

	limit := s.clampLimit(req.Limit)
	useVector := req.UseVectorSearch == nil || *req.UseVectorSearch

	res, err := s.pipeline.Run(r.Context(), req.Query, useVector, limit)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", req.Query), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, searchPostResponse{
			Success: false,
			Message: "internal error",
			Query:   req.Query,
			Results: []product.Product{},
		})
		return
	}

	message := "No products found. Try a different search."
	if len(res.Products) > 0 {
		message = "Search completed. " + strconv.Itoa(len(res.Products)) + " product(s) found."
	}
	if res.Extracted.Confidence < query.LowConfidenceAdvisory {
		message += " The query was understood with low confidence; consider rephrasing."
	}

	writeJSON(w, http.StatusOK, searchPostResponse{
		Success:          len(res.Products) > 0,
		Message:          message,
		Query:            req.Query,
		ResultsCount:     len(res.Products),
		Results:          nonNil(res.Products),
		FiltersExtracted: &res.Extracted.Filters,
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			checks[name] = "unavailable"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

func (s *Server) parseLimit(raw string) int {
	if raw == "" {
		return s.limits.Default
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return s.limits.Default
	}
	return s.clampLimit(n)
}

func (s *Server) clampLimit(n int) int {
	if n <= 0 {
		return s.limits.Default
	}
	if n > s.limits.Max {
		return s.limits.Max
	}
	return n
}

func nonNil(results []product.Product) []product.Product {
	if results == nil {
		return []product.Product{}
	}
	return results
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
