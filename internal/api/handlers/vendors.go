package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/dto"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/application/service"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/vendor"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

// VendorsHandler handles vendor comparison, registry, and duplicate
// detection requests.
type VendorsHandler struct {
	*Base
	matchConfig vendor.MatchConfig
	dedupe      *service.DedupeService
}

// NewVendorsHandler creates a new vendors handler. matchConfig carries the
// configured similarity floor and alias table.
func NewVendorsHandler(repo storage.Repository, matchConfig vendor.MatchConfig, dedupe *service.DedupeService) *VendorsHandler {
	return &VendorsHandler{
		Base:        NewBase(repo),
		matchConfig: matchConfig,
		dedupe:      dedupe,
	}
}

// Compare handles POST /api/vendors/compare - classifies how two vendor
// names match.
func (h *VendorsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req dto.CompareVendorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	cfg := h.requestConfig(req.MinSimilarity, req.Strict)
	result := vendor.CompareVendors(req.Name, req.Reference, &cfg)

	h.WriteJSON(w, http.StatusOK, dto.CompareVendorsResponse{
		Name:      req.Name,
		Reference: req.Reference,
		Result:    result,
	})
}

// BestMatch handles POST /api/vendors/best-match - picks the best candidate
// for a vendor name.
func (h *VendorsHandler) BestMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.BestVendorMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	cfg := h.requestConfig(req.MinSimilarity, false)
	best := vendor.FindBestVendorMatch(req.Name, req.Candidates, &cfg)

	response := dto.BestVendorMatchResponse{Name: req.Name}
	if best != nil {
		response.Found = true
		response.Candidate = req.Candidates[best.Index]
		response.Index = best.Index
		response.Result = &best.Result
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Create handles POST /api/vendors - registers or updates a vendor.
func (h *VendorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	if req.UserID == "" || req.Name == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user_id and name are required"))
		return
	}

	firstDate, err := dto.ParseDate(req.FirstTransactionDate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}
	lastDate, err := dto.ParseDate(req.LastTransactionDate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	v := &storage.Vendor{
		ID:                   req.ID,
		UserID:               req.UserID,
		Name:                 req.Name,
		TransactionCount:     req.TransactionCount,
		TotalAmount:          req.TotalAmount,
		FirstTransactionDate: firstDate,
		LastTransactionDate:  lastDate,
	}

	if err := h.repo.SaveVendor(r.Context(), v); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	// The registry changed; the cached analysis is stale
	h.dedupe.Invalidate(req.UserID)

	h.WriteJSON(w, http.StatusCreated, v)
}

// List handles GET /api/vendors?user_id= - lists a user's vendors.
func (h *VendorsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user_id is required"))
		return
	}

	vendors, err := h.repo.ListVendors(r.Context(), userID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, vendors)
}

// Get handles GET /api/vendors/{id} - returns a single vendor.
func (h *VendorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, err := h.repo.GetVendor(r.Context(), id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if v == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("vendor"))
		return
	}

	h.WriteJSON(w, http.StatusOK, v)
}

// Duplicates handles GET /api/vendors/duplicates?user_id=&force= - runs the
// duplicate analysis over a user's registry.
func (h *VendorsHandler) Duplicates(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user_id is required"))
		return
	}
	force := ParseBoolParam(r, "force", false)

	analysis, err := h.dedupe.Analyze(r.Context(), userID, force)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, analysis)
}

// Clusters handles GET /api/vendors/duplicates/clusters?user_id= - groups
// duplicate suggestions into reviewable clusters.
func (h *VendorsHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user_id is required"))
		return
	}

	analysis, err := h.dedupe.Analyze(r.Context(), userID, ParseBoolParam(r, "force", false))
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ClustersResponse{
		UserID:   userID,
		Clusters: analysis.Clusters,
		Count:    len(analysis.Clusters),
	})
}

func (h *VendorsHandler) requestConfig(minSimilarity int, strict bool) vendor.MatchConfig {
	cfg := h.matchConfig
	if minSimilarity > 0 {
		cfg.MinSimilarity = minSimilarity
	}
	if strict {
		cfg.StrictMode = true
	}
	return cfg
}
