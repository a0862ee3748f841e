package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/dto"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/confidence"
)

// ExtractionsHandler grades extracted transactions.
type ExtractionsHandler struct {
	*Base
}

// NewExtractionsHandler creates a new extractions handler.
func NewExtractionsHandler() *ExtractionsHandler {
	return &ExtractionsHandler{Base: NewBase(nil)}
}

// Score handles POST /api/extractions/score - grades extraction completeness.
func (h *ExtractionsHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	date, err := dto.ParseDate(req.TransactionDate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	extraction := &confidence.ExtractedTransaction{
		VendorName:      req.VendorName,
		VendorID:        req.VendorID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		TransactionDate: date,
		Description:     req.Description,
		OrderID:         req.OrderID,
	}

	breakdown := confidence.CalculateConfidenceScore(extraction)

	// Reconcile the classifier's status against the score; default to
	// ready_to_import so the low-confidence floor is the only gate.
	classifierStatus := confidence.Status(req.Status)
	if classifierStatus == "" {
		classifierStatus = confidence.StatusReadyToImport
	}
	status := confidence.DetermineStatusFromConfidence(breakdown.TotalScore, classifierStatus)

	h.WriteJSON(w, http.StatusOK, dto.ScoreExtractionResponse{
		Breakdown: breakdown,
		Status:    status,
	})
}
