package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/dto"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/matching"
)

// MatchesHandler finds ledger transactions matching extracted records.
type MatchesHandler struct {
	*Base
	service *matching.Service
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(service *matching.Service) *MatchesHandler {
	return &MatchesHandler{
		Base:    NewBase(nil),
		service: service,
	}
}

// Find handles POST /api/matches - ranks ledger candidates for an
// extracted transaction.
func (h *MatchesHandler) Find(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	if req.UserID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user_id is required"))
		return
	}

	date, err := dto.ParseDate(req.TransactionDate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	criteria := matching.MatchingCriteria{
		VendorName:      req.VendorName,
		Amount:          req.Amount,
		Currency:        req.Currency,
		TransactionDate: date,
	}
	opts := matching.MatchOptions{
		MinConfidence: req.MinConfidence,
		MaxResults:    req.MaxResults,
	}

	result := h.service.FindMatchingTransactions(r.Context(), criteria, req.UserID, opts)
	if !result.Success {
		h.WriteJSON(w, http.StatusBadGateway, result)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
