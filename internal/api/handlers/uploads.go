package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/dto"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/upload"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

// UploadsHandler guards and records statement uploads.
type UploadsHandler struct {
	*Base
	detector *upload.Detector
}

// NewUploadsHandler creates a new uploads handler.
func NewUploadsHandler(repo storage.Repository, detector *upload.Detector) *UploadsHandler {
	return &UploadsHandler{
		Base:     NewBase(repo),
		detector: detector,
	}
}

// Check handles POST /api/uploads/check - vets an upload for duplicates
// without recording anything.
func (h *UploadsHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	params, apiErr := h.checkParams(req)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}

	result, err := h.detector.CheckForDuplicates(r.Context(), params)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.CheckUploadResponse{
		CheckResult: result,
		Message:     upload.DuplicateMessage(result),
	})
}

// Record handles POST /api/uploads - records an upload after re-running the
// duplicate check. A blocking file-hash duplicate returns 409 unless the
// request carries force.
func (h *UploadsHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	if req.Filename == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("filename is required"))
		return
	}

	params, apiErr := h.checkParams(dto.CheckUploadRequest{
		UserID:          req.UserID,
		FileHash:        req.FileHash,
		PaymentMethodID: req.PaymentMethodID,
		PeriodStart:     req.PeriodStart,
		PeriodEnd:       req.PeriodEnd,
	})
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}

	result, err := h.detector.CheckForDuplicates(r.Context(), params)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if !result.CanProceed && !req.Force {
		h.WriteJSON(w, http.StatusConflict, dto.CheckUploadResponse{
			CheckResult: result,
			Message:     upload.DuplicateMessage(result),
		})
		return
	}

	up := &storage.StatementUpload{
		UserID:                req.UserID,
		Filename:              req.Filename,
		FileHash:              req.FileHash,
		PaymentMethodID:       req.PaymentMethodID,
		StatementPeriodStart:  params.PeriodStart,
		StatementPeriodEnd:    params.PeriodEnd,
		Status:                req.Status,
		TransactionsExtracted: req.TransactionsExtracted,
		TransactionsMatched:   req.TransactionsMatched,
	}

	if err := h.repo.RecordUpload(r.Context(), up); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, up)
}

// List handles GET /api/uploads?user_id= - lists a user's uploads, newest
// first.
func (h *UploadsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("user_id is required"))
		return
	}
	limit := ParseIntParam(r, "limit", 50)

	uploads, err := h.repo.ListUploads(r.Context(), userID, limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, uploads)
}

func (h *UploadsHandler) checkParams(req dto.CheckUploadRequest) (upload.CheckParams, *dto.APIError) {
	if req.UserID == "" || req.FileHash == "" {
		err := dto.ValidationError("user_id and file_hash are required")
		return upload.CheckParams{}, &err
	}

	periodStart, err := dto.ParseDate(req.PeriodStart)
	if err != nil {
		apiErr := dto.BadRequestError(err.Error())
		return upload.CheckParams{}, &apiErr
	}
	periodEnd, err := dto.ParseDate(req.PeriodEnd)
	if err != nil {
		apiErr := dto.BadRequestError(err.Error())
		return upload.CheckParams{}, &apiErr
	}

	return upload.CheckParams{
		UserID:          req.UserID,
		FileHash:        req.FileHash,
		PaymentMethodID: req.PaymentMethodID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
	}, nil
}
