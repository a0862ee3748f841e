package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api/dto"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/application/service"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/matching"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/config"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MockRepository) {
	t.Helper()

	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	matchService := matching.NewService(repo, matching.DefaultConfig())
	dedupeService := service.NewDedupeService(config.DedupeConfig{}, repo, logger)

	return NewServer(DefaultConfig(), repo, matchService, dedupeService, logger), repo
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
}

func TestScoreExtraction(t *testing.T) {
	server, _ := newTestServer(t)

	amount := 5.90
	rec := doJSON(t, server, http.MethodPost, "/api/extractions/score", dto.ScoreExtractionRequest{
		VendorName:      "Starbucks",
		Amount:          &amount,
		TransactionDate: "2024-06-15",
		OrderID:         "ORD-1001",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var response dto.ScoreExtractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 100, response.Breakdown.TotalScore)
	assert.Equal(t, "high", string(response.Breakdown.Level))
	assert.Equal(t, "ready_to_import", string(response.Status))
}

func TestScoreExtraction_LowConfidenceForcesReview(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/extractions/score", dto.ScoreExtractionRequest{
		VendorName: "Starbucks",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var response dto.ScoreExtractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "pending_review", string(response.Status))
}

func TestScoreExtraction_BadDate(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/extractions/score", dto.ScoreExtractionRequest{
		TransactionDate: "June 15th",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindMatches(t *testing.T) {
	server, repo := newTestServer(t)

	date := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	repo.AddTransaction(matching.LedgerTransaction{
		ID:          "tx1",
		UserID:      "user-1",
		Amount:      5.90,
		Currency:    "USD",
		Date:        date,
		Description: "STARBUCKS #1234 SEATTLE",
	})

	amount := 5.90
	rec := doJSON(t, server, http.MethodPost, "/api/matches", dto.MatchRequest{
		UserID:          "user-1",
		VendorName:      "Starbucks",
		Amount:          &amount,
		TransactionDate: "2024-06-15",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var result matching.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "tx1", result.Matches[0].Transaction.ID)
	assert.Equal(t, 100, result.Matches[0].Confidence)
}

func TestFindMatches_RequiresUserID(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/matches", dto.MatchRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindMatches_RepositoryFailure(t *testing.T) {
	server, repo := newTestServer(t)
	repo.FindCandidatesErr = errors.New("db unavailable")

	rec := doJSON(t, server, http.MethodPost, "/api/matches", dto.MatchRequest{UserID: "user-1"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var result matching.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestCompareVendors(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/vendors/compare", dto.CompareVendorsRequest{
		Name:      "SBUX",
		Reference: "Starbucks",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var response dto.CompareVendorsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Result.IsMatch)
	assert.Equal(t, "alias", string(response.Result.MatchType))
	assert.Equal(t, 25, response.Result.Score)
}

func TestBestVendorMatch(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/vendors/best-match", dto.BestVendorMatchRequest{
		Name:       "Starbucks",
		Candidates: []string{"Microsoft", "Starbucks", "Apple"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var response dto.BestVendorMatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Found)
	assert.Equal(t, "Starbucks", response.Candidate)
	assert.Equal(t, 1, response.Index)
}

func TestBestVendorMatch_NoCandidates(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/vendors/best-match", dto.BestVendorMatchRequest{
		Name: "Starbucks",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var response dto.BestVendorMatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.False(t, response.Found)
	assert.Nil(t, response.Result)
}

func TestVendorRegistryAndDuplicates(t *testing.T) {
	server, repo := newTestServer(t)

	repo.AddVendor(storage.Vendor{ID: "v1", UserID: "user-1", Name: "Starbucks", TransactionCount: 50})
	repo.AddVendor(storage.Vendor{ID: "v2", UserID: "user-1", Name: "starbucks", TransactionCount: 3})

	rec := doJSON(t, server, http.MethodGet, "/api/vendors/duplicates?user_id=user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var analysis service.DedupeAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, 2, analysis.VendorCount)
	require.Len(t, analysis.Suggestions, 1)
	assert.Equal(t, "v1", analysis.Suggestions[0].TargetVendor.ID)
}

func TestVendorDuplicates_RequiresUserID(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/vendors/duplicates", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateVendor_InvalidatesDuplicateCache(t *testing.T) {
	server, repo := newTestServer(t)
	repo.AddVendor(storage.Vendor{ID: "v1", UserID: "user-1", Name: "Starbucks", TransactionCount: 50})

	// Prime the cache
	first := doJSON(t, server, http.MethodGet, "/api/vendors/duplicates?user_id=user-1", nil)
	require.Equal(t, http.StatusOK, first.Code)

	// Register a duplicate vendor
	created := doJSON(t, server, http.MethodPost, "/api/vendors", dto.CreateVendorRequest{
		UserID: "user-1",
		Name:   "starbucks",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	// The new vendor shows up without force
	second := doJSON(t, server, http.MethodGet, "/api/vendors/duplicates?user_id=user-1", nil)
	require.Equal(t, http.StatusOK, second.Code)
	var analysis service.DedupeAnalysis
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &analysis))
	assert.Equal(t, 2, analysis.VendorCount)
	assert.Len(t, analysis.Suggestions, 1)
}

func TestUploadCheckAndRecord(t *testing.T) {
	server, _ := newTestServer(t)

	// First upload: clean
	check := doJSON(t, server, http.MethodPost, "/api/uploads/check", dto.CheckUploadRequest{
		UserID:   "user-1",
		FileHash: "abc123",
	})
	require.Equal(t, http.StatusOK, check.Code)
	var checkResponse dto.CheckUploadResponse
	require.NoError(t, json.Unmarshal(check.Body.Bytes(), &checkResponse))
	assert.False(t, checkResponse.HasDuplicate)
	assert.True(t, checkResponse.CanProceed)

	record := doJSON(t, server, http.MethodPost, "/api/uploads", dto.RecordUploadRequest{
		UserID:   "user-1",
		Filename: "june.pdf",
		FileHash: "abc123",
	})
	require.Equal(t, http.StatusCreated, record.Code)

	// Same file again: blocked
	conflict := doJSON(t, server, http.MethodPost, "/api/uploads", dto.RecordUploadRequest{
		UserID:   "user-1",
		Filename: "june.pdf",
		FileHash: "abc123",
	})
	require.Equal(t, http.StatusConflict, conflict.Code)
	var conflictResponse dto.CheckUploadResponse
	require.NoError(t, json.Unmarshal(conflict.Body.Bytes(), &conflictResponse))
	assert.False(t, conflictResponse.CanProceed)
	assert.Contains(t, conflictResponse.Message, "already been uploaded")

	// Forced re-processing is allowed
	forced := doJSON(t, server, http.MethodPost, "/api/uploads", dto.RecordUploadRequest{
		UserID:   "user-1",
		Filename: "june.pdf",
		FileHash: "abc123",
		Force:    true,
	})
	assert.Equal(t, http.StatusCreated, forced.Code)
}

func TestCreateAndGetTransaction(t *testing.T) {
	server, _ := newTestServer(t)

	created := doJSON(t, server, http.MethodPost, "/api/transactions", dto.CreateTransactionRequest{
		UserID:      "user-1",
		Amount:      42.50,
		Date:        "2024-06-15",
		Description: "STARBUCKS #1234",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var tx matching.LedgerTransaction
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &tx))
	require.NotEmpty(t, tx.ID)
	assert.Equal(t, "USD", tx.Currency)

	got := doJSON(t, server, http.MethodGet, "/api/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusOK, got.Code)

	missing := doJSON(t, server, http.MethodGet, "/api/transactions/nope", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
