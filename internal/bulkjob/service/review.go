package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	bulkjobdomain "github.com/smallbiznis/freightaudit/internal/bulkjob/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmitReview records one human decision: an immutable ReviewAction is
// appended and the item's review status re-derived, in one transaction.
// Resubmitting the same decision is harmless; each submission is a new audit
// entry.
func (s *Service) SubmitReview(ctx context.Context, req bulkjobdomain.ReviewRequest) (bulkjobdomain.ReviewResponse, error) {
	itemID, err := snowflake.ParseString(req.ItemID)
	if err != nil {
		return bulkjobdomain.ReviewResponse{}, bulkjobdomain.ErrItemNotFound
	}

	decision := req.OverallDecision
	if decision == "" {
		decision = bulkjobdomain.ReviewDecisionPending
	}
	switch decision {
	case bulkjobdomain.ReviewDecisionAccepted, bulkjobdomain.ReviewDecisionRejected, bulkjobdomain.ReviewDecisionPending:
	default:
		return bulkjobdomain.ReviewResponse{}, bulkjobdomain.ErrInvalidDecision
	}
	for _, cd := range req.ChargeDecisions {
		switch cd.Status {
		case "accepted", "rejected", "pending":
		default:
			return bulkjobdomain.ReviewResponse{}, bulkjobdomain.ErrInvalidDecision
		}
	}

	item, err := s.repo.FindItemByID(ctx, s.db, itemID)
	if err != nil {
		return bulkjobdomain.ReviewResponse{}, err
	}
	if item == nil {
		return bulkjobdomain.ReviewResponse{}, bulkjobdomain.ErrItemNotFound
	}
	if req.JobID != "" {
		jobID, err := snowflake.ParseString(req.JobID)
		if err != nil || item.BulkJobID != jobID {
			return bulkjobdomain.ReviewResponse{}, bulkjobdomain.ErrItemNotFound
		}
	}

	now := s.clock.Now()
	action := bulkjobdomain.ReviewAction{
		ID:              s.genID.Generate(),
		BulkJobItemID:   item.ID,
		Action:          decision,
		ChargeDecisions: chargeDecisionsJSON(req.ChargeDecisions),
		Comments:        req.Comments,
		ReviewedBy:      req.ReviewedBy,
		CreatedAt:       now,
	}

	status := item.ReviewStatus
	switch decision {
	case bulkjobdomain.ReviewDecisionAccepted:
		status = bulkjobdomain.ReviewStatusApproved
	case bulkjobdomain.ReviewDecisionRejected:
		status = bulkjobdomain.ReviewStatusRejected
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertReviewAction(ctx, tx, &action); err != nil {
			return err
		}
		if status != item.ReviewStatus {
			return s.repo.UpdateItemReviewStatus(ctx, tx, item.ID, status, now)
		}
		return nil
	})
	if err != nil {
		return bulkjobdomain.ReviewResponse{}, err
	}

	s.log.Info("review recorded",
		zap.String("item_id", item.ID.String()),
		zap.String("decision", string(decision)),
		zap.String("reviewed_by", req.ReviewedBy),
	)
	if s.metrics != nil {
		s.metrics.RecordReviewDecision(ctx, string(decision))
	}

	return bulkjobdomain.ReviewResponse{
		Action:       action,
		ItemID:       item.ID.String(),
		ReviewStatus: status,
	}, nil
}

func chargeDecisionsJSON(decisions map[string]bulkjobdomain.ChargeDecision) datatypes.JSONMap {
	if len(decisions) == 0 {
		return datatypes.JSONMap{}
	}
	out := make(datatypes.JSONMap, len(decisions))
	for chargeType, cd := range decisions {
		entry := map[string]any{"status": cd.Status}
		if cd.Comment != "" {
			entry["comment"] = cd.Comment
		}
		out[chargeType] = entry
	}
	return out
}
