package dto

import (
	"time"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/confidence"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/upload"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/vendor"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ScoreExtractionResponse is the graded extraction with the reconciled
// review status.
type ScoreExtractionResponse struct {
	Breakdown confidence.Breakdown `json:"breakdown"`
	Status    confidence.Status    `json:"status"`
}

// CompareVendorsResponse wraps a vendor comparison result.
type CompareVendorsResponse struct {
	Name      string             `json:"name"`
	Reference string             `json:"reference"`
	Result    vendor.MatchResult `json:"result"`
}

// BestVendorMatchResponse reports the winning candidate, if any.
type BestVendorMatchResponse struct {
	Name      string              `json:"name"`
	Found     bool                `json:"found"`
	Candidate string              `json:"candidate,omitempty"`
	Index     int                 `json:"index,omitempty"`
	Result    *vendor.MatchResult `json:"result,omitempty"`
}

// ClustersResponse groups duplicate suggestions into reviewable clusters.
type ClustersResponse struct {
	UserID   string              `json:"user_id"`
	Clusters map[string][]string `json:"clusters"`
	Count    int                 `json:"count"`
}

// CheckUploadResponse is the duplicate check outcome plus a display
// message.
type CheckUploadResponse struct {
	upload.CheckResult
	Message string `json:"message,omitempty"`
}
