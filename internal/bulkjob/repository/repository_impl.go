package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bulkjobdomain "github.com/smallbiznis/freightaudit/internal/bulkjob/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() bulkjobdomain.Repository {
	return &repo{}
}

func (r *repo) InsertJob(ctx context.Context, db *gorm.DB, job *bulkjobdomain.BulkJob) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bulk_jobs (
			id, job_type, total_files, processed_files, matched_files,
			needs_review_files, failed_files, status, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.JobType,
		job.TotalFiles,
		job.ProcessedFiles,
		job.MatchedFiles,
		job.NeedsReviewFiles,
		job.FailedFiles,
		job.Status,
		job.CreatedAt,
		job.CompletedAt,
	).Error
}

func (r *repo) FindJobByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bulkjobdomain.BulkJob, error) {
	var job bulkjobdomain.BulkJob
	err := db.WithContext(ctx).Raw(
		`SELECT id, job_type, total_files, processed_files, matched_files,
		 needs_review_files, failed_files, status, created_at, completed_at
		 FROM bulk_jobs WHERE id = ?`,
		id,
	).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *repo) ListJobs(ctx context.Context, db *gorm.DB, limit int) ([]bulkjobdomain.BulkJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []bulkjobdomain.BulkJob
	err := db.WithContext(ctx).Raw(
		`SELECT id, job_type, total_files, processed_files, matched_files,
		 needs_review_files, failed_files, status, created_at, completed_at
		 FROM bulk_jobs ORDER BY created_at DESC LIMIT ?`,
		limit,
	).Scan(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) FinalizeJob(ctx context.Context, db *gorm.DB, id snowflake.ID, processed, matched, needsReview, failed int, completedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bulk_jobs SET
			processed_files = ?, matched_files = ?, needs_review_files = ?,
			failed_files = ?, status = ?, completed_at = ?
		 WHERE id = ?`,
		processed,
		matched,
		needsReview,
		failed,
		bulkjobdomain.JobStatusCompleted,
		completedAt,
		id,
	).Error
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *bulkjobdomain.BulkJobItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bulk_job_items (
			id, bulk_job_id, file_name, file_url, journey_id, extracted_data,
			match_status, match_score, extraction_confidence, match_reason,
			review_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.BulkJobID,
		item.FileName,
		item.FileURL,
		item.JourneyID,
		item.ExtractedData,
		item.MatchStatus,
		item.MatchScore,
		item.ExtractionConfidence,
		item.MatchReason,
		item.ReviewStatus,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) FindItemByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bulkjobdomain.BulkJobItem, error) {
	var item bulkjobdomain.BulkJobItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, bulk_job_id, file_name, file_url, journey_id, extracted_data,
		 match_status, match_score, extraction_confidence, match_reason,
		 review_status, created_at, updated_at
		 FROM bulk_job_items WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListItemsByJobID(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]bulkjobdomain.BulkJobItem, error) {
	var items []bulkjobdomain.BulkJobItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, bulk_job_id, file_name, file_url, journey_id, extracted_data,
		 match_status, match_score, extraction_confidence, match_reason,
		 review_status, created_at, updated_at
		 FROM bulk_job_items WHERE bulk_job_id = ?
		 ORDER BY created_at ASC, id ASC`,
		jobID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateItemReviewStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status bulkjobdomain.ReviewStatus, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bulk_job_items SET review_status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	).Error
}

func (r *repo) InsertReviewAction(ctx context.Context, db *gorm.DB, action *bulkjobdomain.ReviewAction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO review_actions (
			id, bulk_job_item_id, action, charge_decisions, comments,
			reviewed_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		action.ID,
		action.BulkJobItemID,
		action.Action,
		action.ChargeDecisions,
		action.Comments,
		action.ReviewedBy,
		action.CreatedAt,
	).Error
}

func (r *repo) ListReviewActionsByItemID(ctx context.Context, db *gorm.DB, itemID snowflake.ID) ([]bulkjobdomain.ReviewAction, error) {
	var actions []bulkjobdomain.ReviewAction
	err := db.WithContext(ctx).Raw(
		`SELECT id, bulk_job_item_id, action, charge_decisions, comments,
		 reviewed_by, created_at
		 FROM review_actions WHERE bulk_job_item_id = ?
		 ORDER BY created_at ASC, id ASC`,
		itemID,
	).Scan(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}
