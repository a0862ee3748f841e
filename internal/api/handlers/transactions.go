package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/dto"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/matching"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

// TransactionsHandler manages ledger transactions.
type TransactionsHandler struct {
	*Base
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.Repository) *TransactionsHandler {
	return &TransactionsHandler{Base: NewBase(repo)}
}

// Create handles POST /api/transactions - adds a transaction to a user's
// ledger.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	if req.UserID == "" || req.Description == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user_id and description are required"))
		return
	}

	date, err := dto.ParseDate(req.Date)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}
	if date == nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("date is required"))
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	tx := &matching.LedgerTransaction{
		ID:                req.ID,
		UserID:            req.UserID,
		Amount:            req.Amount,
		Currency:          currency,
		Date:              *date,
		Description:       req.Description,
		VendorName:        req.VendorName,
		PaymentMethodName: req.PaymentMethodName,
	}

	if err := h.repo.SaveTransaction(r.Context(), tx); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, tx)
}

// Get handles GET /api/transactions/{id} - returns a single ledger
// transaction.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tx, err := h.repo.GetTransaction(r.Context(), id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if tx == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		return
	}

	h.WriteJSON(w, http.StatusOK, tx)
}
