package service

import (
	"context"
	"errors"
	"testing"

	bulkjobdomain "github.com/smallbiznis/freightaudit/internal/bulkjob/domain"
	"github.com/smallbiznis/freightaudit/internal/extraction"
	journeydomain "github.com/smallbiznis/freightaudit/internal/journey/domain"
	"github.com/smallbiznis/freightaudit/internal/reconcile"
)

func submitOneInvoice(t *testing.T, f *fixture) (jobID, itemID string) {
	t.Helper()
	resp, err := f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypeInvoice,
		Files:   []bulkjobdomain.FileUpload{{Name: "inv.pdf", Bytes: []byte("invoice")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return resp.JobID, resp.Items[0].ItemID
}

func reviewFixture(t *testing.T) *fixture {
	parser := &parserStub{
		docs: map[string]extraction.Document{
			"invoice": extraction.FromFields(map[string]any{
				"journeyNumber": "LR-7",
				"baseFreight":   43000.0,
			}),
		},
	}
	f := setupService(t, parser)
	f.seedJourney(t, "LR-7", "", &journeydomain.Proforma{BaseFreight: 40000, TotalAmount: 43000})
	return f
}

func TestReviewAcceptThenReject(t *testing.T) {
	f := reviewFixture(t)
	jobID, itemID := submitOneInvoice(t, f)

	accepted, err := f.svc.SubmitReview(context.Background(), bulkjobdomain.ReviewRequest{
		JobID:           jobID,
		ItemID:          itemID,
		OverallDecision: bulkjobdomain.ReviewDecisionAccepted,
		ReviewedBy:      "ops@example.com",
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.ReviewStatus != bulkjobdomain.ReviewStatusApproved {
		t.Fatalf("status after accept = %s", accepted.ReviewStatus)
	}

	// A correction appends a second action; the first stays untouched.
	rejected, err := f.svc.SubmitReview(context.Background(), bulkjobdomain.ReviewRequest{
		JobID:           jobID,
		ItemID:          itemID,
		OverallDecision: bulkjobdomain.ReviewDecisionRejected,
		Comments:        "variance not acceptable",
		ReviewedBy:      "ops@example.com",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.ReviewStatus != bulkjobdomain.ReviewStatusRejected {
		t.Fatalf("status after reject = %s", rejected.ReviewStatus)
	}

	var actions []bulkjobdomain.ReviewAction
	if err := f.db.Order("created_at asc, id asc").Find(&actions).Error; err != nil {
		t.Fatalf("load actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("actions = %d, want 2 (history is append-only)", len(actions))
	}
	if actions[0].Action != bulkjobdomain.ReviewDecisionAccepted || actions[1].Action != bulkjobdomain.ReviewDecisionRejected {
		t.Fatalf("action order = %s, %s", actions[0].Action, actions[1].Action)
	}
}

func TestReviewChargeDecisionsShowUpInView(t *testing.T) {
	f := reviewFixture(t)
	jobID, itemID := submitOneInvoice(t, f)

	_, err := f.svc.SubmitReview(context.Background(), bulkjobdomain.ReviewRequest{
		JobID:  jobID,
		ItemID: itemID,
		ChargeDecisions: map[string]bulkjobdomain.ChargeDecision{
			reconcile.ChargeBaseFreight: {Status: "rejected", Comment: "overbilled"},
		},
		OverallDecision: bulkjobdomain.ReviewDecisionPending,
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}

	detail, err := f.svc.GetJob(context.Background(), jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	item := detail.Items[0]
	// Overall decision stayed pending, so the review track is untouched.
	if item.ReviewStatus != bulkjobdomain.ReviewStatusPending {
		t.Fatalf("review status = %s, want pending_review", item.ReviewStatus)
	}

	for _, line := range item.Charges.Lines {
		switch line.ChargeType {
		case reconcile.ChargeBaseFreight:
			if line.DecisionStatus != reconcile.DecisionRejected {
				t.Fatalf("base freight decision = %s", line.DecisionStatus)
			}
		default:
			if line.DecisionStatus != reconcile.DecisionPending {
				t.Fatalf("%s decision = %s, want pending", line.ChargeType, line.DecisionStatus)
			}
		}
	}
}

func TestReviewValidation(t *testing.T) {
	f := reviewFixture(t)
	jobID, itemID := submitOneInvoice(t, f)

	_, err := f.svc.SubmitReview(context.Background(), bulkjobdomain.ReviewRequest{
		JobID:           jobID,
		ItemID:          itemID,
		OverallDecision: "maybe",
	})
	if !errors.Is(err, bulkjobdomain.ErrInvalidDecision) {
		t.Fatalf("err = %v, want ErrInvalidDecision", err)
	}

	_, err = f.svc.SubmitReview(context.Background(), bulkjobdomain.ReviewRequest{
		JobID:  jobID,
		ItemID: itemID,
		ChargeDecisions: map[string]bulkjobdomain.ChargeDecision{
			reconcile.ChargeBaseFreight: {Status: "shrug"},
		},
	})
	if !errors.Is(err, bulkjobdomain.ErrInvalidDecision) {
		t.Fatalf("err = %v, want ErrInvalidDecision for charge status", err)
	}

	_, err = f.svc.SubmitReview(context.Background(), bulkjobdomain.ReviewRequest{
		ItemID: "garbage",
	})
	if !errors.Is(err, bulkjobdomain.ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}

	// Item exists but belongs to another job.
	otherJob := f.node.Generate().String()
	_, err = f.svc.SubmitReview(context.Background(), bulkjobdomain.ReviewRequest{
		JobID:  otherJob,
		ItemID: itemID,
	})
	if !errors.Is(err, bulkjobdomain.ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound for job mismatch", err)
	}
}
