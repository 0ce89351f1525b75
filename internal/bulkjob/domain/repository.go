package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertJob(ctx context.Context, db *gorm.DB, job *BulkJob) error
	FindJobByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BulkJob, error)
	ListJobs(ctx context.Context, db *gorm.DB, limit int) ([]BulkJob, error)
	// FinalizeJob writes the reduced counters and flips the job to completed.
	// Called exactly once per job, after every file's pipeline has resolved.
	FinalizeJob(ctx context.Context, db *gorm.DB, id snowflake.ID, processed, matched, needsReview, failed int, completedAt time.Time) error

	InsertItem(ctx context.Context, db *gorm.DB, item *BulkJobItem) error
	FindItemByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BulkJobItem, error)
	ListItemsByJobID(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]BulkJobItem, error)
	UpdateItemReviewStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ReviewStatus, updatedAt time.Time) error

	InsertReviewAction(ctx context.Context, db *gorm.DB, action *ReviewAction) error
	ListReviewActionsByItemID(ctx context.Context, db *gorm.DB, itemID snowflake.ID) ([]ReviewAction, error)
}
