package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/dto"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/upload"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

func newUploadsHandler(repo *storage.MockRepository) *UploadsHandler {
	return NewUploadsHandler(repo, upload.NewDetector(repo))
}

func timePtr(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return &parsed
}

func TestUploadsCheck_Validation(t *testing.T) {
	handler := newUploadsHandler(storage.NewMockRepository())

	rec := postJSON(t, handler.Check, "/api/uploads/check", dto.CheckUploadRequest{UserID: "user-1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadsCheck_BadPeriodDate(t *testing.T) {
	handler := newUploadsHandler(storage.NewMockRepository())

	rec := postJSON(t, handler.Check, "/api/uploads/check", dto.CheckUploadRequest{
		UserID:      "user-1",
		FileHash:    "abc123",
		PeriodStart: "June 1st",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadsCheck_StoreFailure(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.FindByFileHashErr = errors.New("db down")
	handler := newUploadsHandler(repo)

	rec := postJSON(t, handler.Check, "/api/uploads/check", dto.CheckUploadRequest{
		UserID:   "user-1",
		FileHash: "abc123",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUploadsCheck_PeriodOverlapWarns(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.AddUpload(storage.StatementUpload{
		ID:                   "up1",
		UserID:               "user-1",
		Filename:             "june.pdf",
		FileHash:             "other-hash",
		PaymentMethodID:      "card-1",
		StatementPeriodStart: timePtr(t, "2024-06-01"),
		StatementPeriodEnd:   timePtr(t, "2024-06-30"),
	})
	handler := newUploadsHandler(repo)

	rec := postJSON(t, handler.Check, "/api/uploads/check", dto.CheckUploadRequest{
		UserID:          "user-1",
		FileHash:        "new-hash",
		PaymentMethodID: "card-1",
		PeriodStart:     "2024-06-15",
		PeriodEnd:       "2024-07-14",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var response dto.CheckUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.HasDuplicate)
	assert.True(t, response.CanProceed)
	require.Len(t, response.Duplicates, 1)
	assert.Equal(t, upload.DuplicatePeriodOverlap, response.Duplicates[0].Type)
	assert.Contains(t, response.Message, "already uploaded a statement for this period")
}

func TestUploadsRecord_RequiresFilename(t *testing.T) {
	handler := newUploadsHandler(storage.NewMockRepository())

	rec := postJSON(t, handler.Record, "/api/uploads", dto.RecordUploadRequest{
		UserID:   "user-1",
		FileHash: "abc123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadsRecord_StoreFailure(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.RecordUploadErr = errors.New("disk full")
	handler := newUploadsHandler(repo)

	rec := postJSON(t, handler.Record, "/api/uploads", dto.RecordUploadRequest{
		UserID:   "user-1",
		Filename: "june.pdf",
		FileHash: "abc123",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUploadsList(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.AddUpload(storage.StatementUpload{ID: "up1", UserID: "user-1", Filename: "june.pdf", FileHash: "h1"})
	repo.AddUpload(storage.StatementUpload{ID: "up2", UserID: "user-2", Filename: "july.pdf", FileHash: "h2"})
	handler := newUploadsHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/uploads?user_id=user-1", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var uploads []storage.StatementUpload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploads))
	require.Len(t, uploads, 1)
	assert.Equal(t, "up1", uploads[0].ID)
}

func TestUploadsList_RequiresUserID(t *testing.T) {
	handler := newUploadsHandler(storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadsCheck_InvalidBody(t *testing.T) {
	handler := newUploadsHandler(storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/check", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	handler.Check(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
