// Package domain contains persistence models for bulk document jobs, the
// per-file items they track, and the append-only review history.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// JobType distinguishes what kind of documents a batch carries.
type JobType string

const (
	JobTypePOD     JobType = "pod"
	JobTypeInvoice JobType = "invoice"
)

// JobStatus represents lifecycle states for a bulk job. A job moves from
// processing to completed exactly once and never reopens.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
)

// MatchStatus is the terminal classification of one file's match outcome,
// set once by the matcher and never revisited.
type MatchStatus string

const (
	MatchStatusMatched     MatchStatus = "matched"
	MatchStatusNeedsReview MatchStatus = "needs_review"
	MatchStatusSkipped     MatchStatus = "skipped"
)

// ReviewStatus is the orthogonal human-review track layered on top of the
// match classification.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending_review"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// ReviewDecision is a reviewer's overall verdict on an item.
type ReviewDecision string

const (
	ReviewDecisionAccepted ReviewDecision = "accepted"
	ReviewDecisionRejected ReviewDecision = "rejected"
	ReviewDecisionPending  ReviewDecision = "pending"
)

// BulkJob is one upload batch. Invariant once completed:
// ProcessedFiles = MatchedFiles + NeedsReviewFiles + FailedFiles.
type BulkJob struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	JobType          JobType      `gorm:"type:text;not null" json:"job_type"`
	TotalFiles       int          `gorm:"not null;default:0" json:"total_files"`
	ProcessedFiles   int          `gorm:"not null;default:0" json:"processed_files"`
	MatchedFiles     int          `gorm:"not null;default:0" json:"matched_files"`
	NeedsReviewFiles int          `gorm:"not null;default:0" json:"needs_review_files"`
	FailedFiles      int          `gorm:"not null;default:0" json:"failed_files"`
	Status           JobStatus    `gorm:"type:text;not null" json:"status"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CompletedAt      *time.Time   `gorm:"" json:"completed_at,omitempty"`
}

// TableName sets the database table name.
func (BulkJob) TableName() string { return "bulk_jobs" }

// BulkJobItem is one uploaded file within a job. MatchScore is the fixed
// 0/50/100 outcome classification; ExtractionConfidence is the OCR engine's
// own score and is stored separately so the two signals never conflate.
type BulkJobItem struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	BulkJobID            snowflake.ID      `gorm:"not null;index" json:"bulk_job_id"`
	FileName             string            `gorm:"type:text;not null" json:"file_name"`
	FileURL              string            `gorm:"type:text" json:"file_url"`
	JourneyID            *snowflake.ID     `gorm:"index" json:"journey_id,omitempty"`
	ExtractedData        datatypes.JSONMap `gorm:"type:jsonb" json:"extracted_data"`
	MatchStatus          MatchStatus       `gorm:"type:text;not null" json:"match_status"`
	MatchScore           int               `gorm:"not null;default:0" json:"match_score"`
	ExtractionConfidence float64           `gorm:"not null;default:0" json:"extraction_confidence"`
	MatchReason          string            `gorm:"type:text" json:"match_reason"`
	ReviewStatus         ReviewStatus      `gorm:"type:text;not null;default:pending_review" json:"review_status"`
	CreatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (BulkJobItem) TableName() string { return "bulk_job_items" }

// ReviewAction is an immutable audit record of one human decision. A
// correction appends a new action rather than mutating history.
type ReviewAction struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	BulkJobItemID   snowflake.ID      `gorm:"not null;index" json:"bulk_job_item_id"`
	Action          ReviewDecision    `gorm:"type:text;not null" json:"action"`
	ChargeDecisions datatypes.JSONMap `gorm:"type:jsonb" json:"charge_decisions"`
	Comments        string            `gorm:"type:text" json:"comments"`
	ReviewedBy      string            `gorm:"type:text" json:"reviewed_by"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ReviewAction) TableName() string { return "review_actions" }
