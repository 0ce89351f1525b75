package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	bulkjobdomain "github.com/smallbiznis/freightaudit/internal/bulkjob/domain"
	"github.com/smallbiznis/freightaudit/internal/extraction"
	journeydomain "github.com/smallbiznis/freightaudit/internal/journey/domain"
	"github.com/smallbiznis/freightaudit/internal/reconcile"
)

// GetJob assembles the reconciliation read model for one job: every item
// with its matched journey summary, the charge comparison recomputed from
// the stored extraction snapshot, and the current review status.
func (s *Service) GetJob(ctx context.Context, jobID string) (bulkjobdomain.JobDetail, error) {
	id, err := snowflake.ParseString(jobID)
	if err != nil {
		return bulkjobdomain.JobDetail{}, bulkjobdomain.ErrJobNotFound
	}

	job, err := s.repo.FindJobByID(ctx, s.db, id)
	if err != nil {
		return bulkjobdomain.JobDetail{}, err
	}
	if job == nil {
		return bulkjobdomain.JobDetail{}, bulkjobdomain.ErrJobNotFound
	}

	items, err := s.repo.ListItemsByJobID(ctx, s.db, id)
	if err != nil {
		return bulkjobdomain.JobDetail{}, err
	}

	detail := bulkjobdomain.JobDetail{Job: *job, Items: make([]bulkjobdomain.ItemView, 0, len(items))}
	for _, item := range items {
		view, err := s.itemView(ctx, item)
		if err != nil {
			return bulkjobdomain.JobDetail{}, err
		}
		detail.Items = append(detail.Items, view)
	}
	return detail, nil
}

// ListJobs returns recent jobs, newest first.
func (s *Service) ListJobs(ctx context.Context) ([]bulkjobdomain.BulkJob, error) {
	return s.repo.ListJobs(ctx, s.db, 50)
}

func (s *Service) itemView(ctx context.Context, item bulkjobdomain.BulkJobItem) (bulkjobdomain.ItemView, error) {
	view := bulkjobdomain.ItemView{
		ItemResult:   itemResult(item),
		ReviewStatus: item.ReviewStatus,
		CreatedAt:    item.CreatedAt,
	}

	doc := extraction.FromFields(map[string]any(item.ExtractedData))

	var proforma *journeydomain.Proforma
	if item.JourneyID != nil {
		journey, err := s.journeyRepo.FindByID(ctx, s.db, *item.JourneyID)
		if err != nil {
			return bulkjobdomain.ItemView{}, err
		}
		if journey != nil {
			view.Journey = &bulkjobdomain.JourneySummary{
				ID:            journey.ID.String(),
				JourneyNumber: journey.JourneyNumber,
				LoadID:        journey.LoadID,
				VehicleNumber: journey.VehicleNumber,
				Origin:        journey.Origin,
				Destination:   journey.Destination,
				EPODStatus:    string(journey.EPODStatus),
			}
			proforma, err = s.journeyRepo.FindProformaByJourneyID(ctx, s.db, journey.ID)
			if err != nil {
				return bulkjobdomain.ItemView{}, err
			}
		}
	}

	view.Charges = reconcile.Reconcile(proforma, doc)

	decisions, err := s.latestChargeDecisions(ctx, item.ID)
	if err != nil {
		return bulkjobdomain.ItemView{}, err
	}
	view.Charges.ApplyDecisions(decisions)

	return view, nil
}

// latestChargeDecisions folds the most recent review action's per-charge
// verdicts into decision statuses. History is append-only, so the last
// action is authoritative.
func (s *Service) latestChargeDecisions(ctx context.Context, itemID snowflake.ID) (map[string]reconcile.DecisionStatus, error) {
	actions, err := s.repo.ListReviewActionsByItemID(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, nil
	}

	last := actions[len(actions)-1]
	decisions := make(map[string]reconcile.DecisionStatus, len(last.ChargeDecisions))
	for chargeType, raw := range last.ChargeDecisions {
		switch v := raw.(type) {
		case string:
			decisions[chargeType] = reconcile.DecisionStatus(v)
		case map[string]any:
			if status, ok := v["status"].(string); ok {
				decisions[chargeType] = reconcile.DecisionStatus(status)
			}
		}
	}
	return decisions, nil
}
