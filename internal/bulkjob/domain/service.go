package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/freightaudit/internal/reconcile"
)

var (
	ErrJobNotFound     = errors.New("bulk_job_not_found")
	ErrItemNotFound    = errors.New("bulk_job_item_not_found")
	ErrItemJobMismatch = errors.New("item_does_not_belong_to_job")
	ErrInvalidJobType  = errors.New("invalid_job_type")
	ErrNoFiles         = errors.New("no_files_submitted")
	ErrInvalidFile     = errors.New("invalid_file")
	ErrFileTooLarge    = errors.New("file_too_large")
	ErrInvalidDecision = errors.New("invalid_review_decision")
)

// FileUpload is one decoded file from an upload batch.
type FileUpload struct {
	Name     string
	MimeType string
	Size     int64
	Bytes    []byte
}

// SubmitRequest is one upload batch. JourneyIDs is advisory only: documents
// are always matched against the full journey set, never restricted to the
// caller's selection.
type SubmitRequest struct {
	JobType    JobType
	JourneyIDs []string
	Files      []FileUpload
}

// Summary aggregates item outcomes for a batch.
type Summary struct {
	TotalFiles  int `json:"total_files"`
	Matched     int `json:"matched"`
	NeedsReview int `json:"needs_review"`
	Skipped     int `json:"skipped"`
}

// ItemResult is the per-file outcome returned from a batch submission.
type ItemResult struct {
	ItemID               string         `json:"item_id"`
	FileName             string         `json:"file_name"`
	FileURL              string         `json:"file_url,omitempty"`
	MatchStatus          MatchStatus    `json:"match_status"`
	MatchScore           int            `json:"match_score"`
	ExtractionConfidence float64        `json:"extraction_confidence"`
	MatchReason          string         `json:"match_reason"`
	JourneyID            string         `json:"journey_id,omitempty"`
	ExtractedData        map[string]any `json:"extracted_data,omitempty"`
}

// SubmitResponse summarizes one processed batch. It is always returned, even
// when every file failed.
type SubmitResponse struct {
	JobID   string       `json:"job_id"`
	Summary Summary      `json:"summary"`
	Items   []ItemResult `json:"items"`
}

// JourneySummary is the matched journey's identifying fields for item views.
type JourneySummary struct {
	ID            string `json:"id"`
	JourneyNumber string `json:"journey_number"`
	LoadID        string `json:"load_id"`
	VehicleNumber string `json:"vehicle_number"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	EPODStatus    string `json:"epod_status"`
}

// ItemView carries everything a reconciliation screen needs for one item.
type ItemView struct {
	ItemResult
	Journey      *JourneySummary      `json:"journey,omitempty"`
	Charges      reconcile.Comparison `json:"charges"`
	ReviewStatus ReviewStatus         `json:"review_status"`
	CreatedAt    time.Time            `json:"created_at"`
}

// JobDetail is the full read model for one job.
type JobDetail struct {
	Job   BulkJob    `json:"job"`
	Items []ItemView `json:"items"`
}

// ChargeDecision is a reviewer's verdict on one charge line.
type ChargeDecision struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// ReviewRequest records one human decision against an item.
type ReviewRequest struct {
	JobID           string
	ItemID          string
	ChargeDecisions map[string]ChargeDecision
	OverallDecision ReviewDecision
	Comments        string
	ReviewedBy      string
}

// ReviewResponse returns the created audit record and the item's updated
// review status.
type ReviewResponse struct {
	Action       ReviewAction `json:"action"`
	ItemID       string       `json:"item_id"`
	ReviewStatus ReviewStatus `json:"review_status"`
}

// Service owns the bulk-job lifecycle: batch submission, job reads, and
// review recording.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
	GetJob(ctx context.Context, jobID string) (JobDetail, error)
	ListJobs(ctx context.Context) ([]BulkJob, error)
	SubmitReview(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
}
