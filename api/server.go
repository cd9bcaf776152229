// Package api - Thin HTTP layer over the calculation lifecycle.
// The API is ONLY responsible for: input ingestion, record creation and
// enqueueing, output serialization. The API NEVER performs cost logic.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"customs-cost/core/lifecycle"
	"customs-cost/core/types"
	"customs-cost/internal/errors"
)

// Enqueuer pushes calculation ids to the work queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, id string) error
}

// QueueStats reports the number of ids waiting in the queue. The Redis
// queue implements it; simpler Enqueuers may not.
type QueueStats interface {
	Depth(ctx context.Context) (int64, error)
}

// StatusReader reads the worker-published status of a calculation without
// loading the full record.
type StatusReader interface {
	Status(ctx context.Context, id string) (types.CalculationStatus, error)
}

// ProductSource supplies product data for a marketplace article id.
type ProductSource interface {
	Fetch(ctx context.Context, articleID string) (types.ProductPhysical, types.ProductContext, error)
}

// History lists recently updated calculation records.
type History interface {
	ListRecent(ctx context.Context, limit int) ([]types.CalculationRecord, error)
}

// Server is the API server.
type Server struct {
	manager  *lifecycle.Manager
	jobs     Enqueuer
	products ProductSource
	history  History
	mux      *http.ServeMux
	version  string
}

// NewServer creates a new API server. products and history are optional;
// without them article intake and the history listing are disabled.
func NewServer(version string, manager *lifecycle.Manager, jobs Enqueuer, products ProductSource, history History) *Server {
	s := &Server{
		manager:  manager,
		jobs:     jobs,
		products: products,
		history:  history,
		mux:      http.NewServeMux(),
		version:  version,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /calculations", s.handleCreate)
	s.mux.HandleFunc("POST /calculations/{id}/detailed", s.handleRequestDetailed)
	s.mux.HandleFunc("GET /calculations", s.handleList)
	s.mux.HandleFunc("GET /calculations/{id}", s.handleGet)
	s.mux.HandleFunc("GET /calculations/{id}/status", s.handleStatus)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// CreateRequest is the body of POST /calculations. With an article id the
// marketplace card supplies the product data; explicitly set fields
// override the fetched values.
type CreateRequest struct {
	ArticleID string                `json:"article_id,omitempty"`
	Product   types.ProductPhysical `json:"product"`
	Context   types.ProductContext  `json:"context"`
}

// DetailedRequest is the body of POST /calculations/{id}/detailed.
// Zero-valued fields keep the express-phase inputs.
type DetailedRequest struct {
	UnitWeightKg     float64 `json:"unit_weight_kg,omitempty"`
	UnitVolumeM3     float64 `json:"unit_volume_m3,omitempty"`
	RetailPriceMinor int64   `json:"retail_price_minor,omitempty"`
	PurchasePriceCNY float64 `json:"purchase_price_cny,omitempty"`
}

// handleCreate handles POST /calculations.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	product, pctx := req.Product, req.Context
	if req.ArticleID != "" {
		if s.products == nil {
			s.writeDomainError(w, errors.Validation("article lookup is not configured"))
			return
		}
		fetched, fetchedCtx, err := s.products.Fetch(ctx, req.ArticleID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		product = mergePhysical(fetched, req.Product)
		pctx = mergeContext(fetchedCtx, req.Context)
	}

	rec, err := s.manager.CreateExpress(ctx, product, pctx)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.jobs.Enqueue(ctx, rec.ID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, rec, http.StatusAccepted)
}

// handleRequestDetailed handles POST /calculations/{id}/detailed.
func (s *Server) handleRequestDetailed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req DetailedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	refined := types.ProductPhysical{
		UnitWeightKg:     req.UnitWeightKg,
		UnitVolumeM3:     req.UnitVolumeM3,
		RetailPriceMinor: req.RetailPriceMinor,
	}
	rec, err := s.manager.RequestDetailed(ctx, id, refined, req.PurchasePriceCNY)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.jobs.Enqueue(ctx, rec.ID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, rec, http.StatusAccepted)
}

// mergePhysical overlays explicitly supplied fields on the fetched card.
func mergePhysical(fetched, override types.ProductPhysical) types.ProductPhysical {
	if override.UnitWeightKg > 0 {
		fetched.UnitWeightKg = override.UnitWeightKg
	}
	if override.UnitVolumeM3 > 0 {
		fetched.UnitVolumeM3 = override.UnitVolumeM3
	}
	if override.RetailPriceMinor > 0 {
		fetched.RetailPriceMinor = override.RetailPriceMinor
	}
	return fetched
}

func mergeContext(fetched, override types.ProductContext) types.ProductContext {
	if override.Name != "" {
		fetched.Name = override.Name
	}
	if override.Description != "" {
		fetched.Description = override.Description
	}
	if override.Brand != "" {
		fetched.Brand = override.Brand
	}
	return fetched
}

// handleGet handles GET /calculations/{id}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, rec, http.StatusOK)
}

// handleList handles GET /calculations. The optional limit query bounds
// the listing; the store applies its default otherwise.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, "NOT_SUPPORTED", "history listing is not configured", http.StatusNotImplemented)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := s.history.ListRecent(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if recs == nil {
		recs = []types.CalculationRecord{}
	}
	s.writeJSON(w, map[string]interface{}{
		"calculations": recs,
		"count":        len(recs),
	}, http.StatusOK)
}

// handleStatus handles GET /calculations/{id}/status. The queue's
// published status key answers without touching the store; an expired or
// missing key falls back to the record.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if sr, ok := s.jobs.(StatusReader); ok {
		status, err := sr.Status(ctx, id)
		if err == nil && status != "" {
			s.writeJSON(w, map[string]string{"id": id, "status": string(status)}, http.StatusOK)
			return
		}
	}

	rec, err := s.manager.Get(ctx, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"id": id, "status": string(rec.Status)}, http.StatusOK)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if qs, ok := s.jobs.(QueueStats); ok {
		if depth, err := qs.Depth(r.Context()); err == nil {
			body["queue_depth"] = depth
		}
	}
	s.writeJSON(w, body, http.StatusOK)
}

// handleVersion handles GET /version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "customs-cost",
		"api_version": "v1",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}, status)
}

// writeDomainError maps typed domain errors to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(errors.TypeInternal)
	switch {
	case errors.IsType(err, errors.TypeNotFound):
		status = http.StatusNotFound
		code = string(errors.TypeNotFound)
	case errors.IsType(err, errors.TypeValidation):
		status = http.StatusUnprocessableEntity
		code = string(errors.TypeValidation)
	case errors.IsType(err, errors.TypeQueue):
		status = http.StatusServiceUnavailable
		code = string(errors.TypeQueue)
	}
	s.writeError(w, code, err.Error(), status)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
