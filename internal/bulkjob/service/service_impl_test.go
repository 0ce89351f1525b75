package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	bulkjobdomain "github.com/smallbiznis/freightaudit/internal/bulkjob/domain"
	bulkjobrepo "github.com/smallbiznis/freightaudit/internal/bulkjob/repository"
	"github.com/smallbiznis/freightaudit/internal/clock"
	"github.com/smallbiznis/freightaudit/internal/config"
	"github.com/smallbiznis/freightaudit/internal/docstore"
	"github.com/smallbiznis/freightaudit/internal/extraction"
	journeydomain "github.com/smallbiznis/freightaudit/internal/journey/domain"
	journeyrepo "github.com/smallbiznis/freightaudit/internal/journey/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// parserStub resolves extraction results by file content.
type parserStub struct {
	docs map[string]extraction.Document
	errs map[string]error
}

func (p *parserStub) Parse(_ context.Context, input extraction.ParseInput) (extraction.Document, error) {
	key := string(input.FileBytes)
	if err, ok := p.errs[key]; ok {
		return extraction.Document{}, err
	}
	if doc, ok := p.docs[key]; ok {
		return doc, nil
	}
	return extraction.FromFields(map[string]any{}), nil
}

// failingStore rejects every upload.
type failingStore struct {
	err error
}

func (s *failingStore) Put(context.Context, string, []byte, string) (string, error) {
	return "", s.err
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&journeydomain.Journey{},
		&journeydomain.Proforma{},
		&bulkjobdomain.BulkJob{},
		&bulkjobdomain.BulkJobItem{},
		&bulkjobdomain.ReviewAction{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	svc     bulkjobdomain.Service
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	store   *docstore.Memory
	journey journeydomain.Repository
}

func setupService(t *testing.T, parser extraction.Parser) *fixture {
	t.Helper()
	node := mustNode(t)
	db := openTestDB(t)
	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	store := docstore.NewMemory()
	jrepo := journeyrepo.Provide()

	svc := NewService(ServiceParam{
		Cfg:         config.Config{PipelineWorkers: 3, MaxFileSizeBytes: 1 << 20},
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        bulkjobrepo.Provide(),
		JourneyRepo: jrepo,
		Parser:      parser,
		Store:       store,
	})

	return &fixture{svc: svc, db: db, node: node, clock: fake, store: store, journey: jrepo}
}

func (f *fixture) seedJourney(t *testing.T, journeyNumber, loadID string, proforma *journeydomain.Proforma) journeydomain.Journey {
	t.Helper()
	j := journeydomain.Journey{
		ID:            f.node.Generate(),
		JourneyNumber: journeyNumber,
		LoadID:        loadID,
		EPODStatus:    journeydomain.EPODStatusPending,
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}
	if err := f.db.Create(&j).Error; err != nil {
		t.Fatalf("seed journey: %v", err)
	}
	if proforma != nil {
		proforma.ID = f.node.Generate()
		proforma.JourneyID = j.ID
		proforma.CreatedAt = f.clock.Now()
		if err := f.db.Create(proforma).Error; err != nil {
			t.Fatalf("seed proforma: %v", err)
		}
	}
	return j
}

func TestSubmitMixedBatch(t *testing.T) {
	parser := &parserStub{
		docs: map[string]extraction.Document{
			"matched-file": extraction.FromFields(map[string]any{
				"journeyNumber": "lr 2025 7713",
				"confidence":    0.93,
			}),
			"review-file": extraction.FromFields(map[string]any{
				"loadId": "LCU-0098",
			}),
		},
		errs: map[string]error{
			"broken-file": errors.New("provider timeout"),
		},
	}
	f := setupService(t, parser)
	f.seedJourney(t, "LR-2025-7713", "LCU-0098", nil)

	resp, err := f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypePOD,
		Files: []bulkjobdomain.FileUpload{
			{Name: "pod-1.pdf", MimeType: "application/pdf", Bytes: []byte("matched-file")},
			{Name: "pod-2.pdf", MimeType: "application/pdf", Bytes: []byte("review-file")},
			{Name: "pod-3.pdf", MimeType: "application/pdf", Bytes: []byte("broken-file")},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if resp.Summary.Matched != 1 || resp.Summary.NeedsReview != 1 || resp.Summary.Skipped != 1 {
		t.Fatalf("summary = %+v", resp.Summary)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(resp.Items))
	}

	// Item order mirrors file order.
	if resp.Items[0].MatchStatus != bulkjobdomain.MatchStatusMatched {
		t.Fatalf("item 0 status = %s (%s)", resp.Items[0].MatchStatus, resp.Items[0].MatchReason)
	}
	if resp.Items[0].MatchScore != 100 || resp.Items[0].ExtractionConfidence != 0.93 {
		t.Fatalf("item 0 score/confidence = %d/%v", resp.Items[0].MatchScore, resp.Items[0].ExtractionConfidence)
	}
	if resp.Items[1].MatchStatus != bulkjobdomain.MatchStatusNeedsReview {
		t.Fatalf("item 1 status = %s", resp.Items[1].MatchStatus)
	}
	if resp.Items[2].MatchStatus != bulkjobdomain.MatchStatusSkipped {
		t.Fatalf("item 2 status = %s", resp.Items[2].MatchStatus)
	}
	if !strings.Contains(resp.Items[2].MatchReason, "field extraction failed") {
		t.Fatalf("item 2 reason = %q", resp.Items[2].MatchReason)
	}

	// All three files were uploaded before extraction ran.
	if f.store.Len() != 3 {
		t.Fatalf("stored files = %d, want 3", f.store.Len())
	}

	var job bulkjobdomain.BulkJob
	if err := f.db.First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != bulkjobdomain.JobStatusCompleted {
		t.Fatalf("job status = %s", job.Status)
	}
	if job.ProcessedFiles != job.MatchedFiles+job.NeedsReviewFiles+job.FailedFiles {
		t.Fatalf("counter invariant violated: %+v", job)
	}
	if job.ProcessedFiles != 3 || job.MatchedFiles != 1 || job.NeedsReviewFiles != 1 || job.FailedFiles != 1 {
		t.Fatalf("counters = %+v", job)
	}
	if job.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
}

func TestSubmitAttachesDocumentToJourney(t *testing.T) {
	parser := &parserStub{
		docs: map[string]extraction.Document{
			"pod": extraction.FromFields(map[string]any{"journeyNumber": "LR-1"}),
		},
	}
	f := setupService(t, parser)
	j := f.seedJourney(t, "LR-1", "", nil)

	resp, err := f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypePOD,
		Files:   []bulkjobdomain.FileUpload{{Name: "pod.pdf", Bytes: []byte("pod")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Items[0].JourneyID != j.ID.String() {
		t.Fatalf("journey id = %s, want %s", resp.Items[0].JourneyID, j.ID)
	}

	reloaded, err := f.journey.FindByID(context.Background(), f.db, j.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload journey: %v", err)
	}
	if reloaded.DocumentID == nil || reloaded.DocumentID.String() != resp.Items[0].ItemID {
		t.Fatalf("expected document back-reference on journey")
	}
}

func TestSubmitValidation(t *testing.T) {
	f := setupService(t, &parserStub{})

	_, err := f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: "wayward",
		Files:   []bulkjobdomain.FileUpload{{Name: "a.pdf", Bytes: []byte("x")}},
	})
	if !errors.Is(err, bulkjobdomain.ErrInvalidJobType) {
		t.Fatalf("err = %v, want ErrInvalidJobType", err)
	}

	_, err = f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{JobType: bulkjobdomain.JobTypeInvoice})
	if !errors.Is(err, bulkjobdomain.ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}

	_, err = f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypeInvoice,
		Files:   []bulkjobdomain.FileUpload{{Name: "", Bytes: []byte("x")}},
	})
	if !errors.Is(err, bulkjobdomain.ErrInvalidFile) {
		t.Fatalf("err = %v, want ErrInvalidFile", err)
	}

	big := make([]byte, (1<<20)+1)
	_, err = f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypeInvoice,
		Files:   []bulkjobdomain.FileUpload{{Name: "big.pdf", Bytes: big}},
	})
	if !errors.Is(err, bulkjobdomain.ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}

	// A rejected batch must not leave a job behind.
	var count int64
	if err := f.db.Model(&bulkjobdomain.BulkJob{}).Count(&count).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no jobs after rejected batches, got %d", count)
	}
}

func TestGetJobComputesCharges(t *testing.T) {
	parser := &parserStub{
		docs: map[string]extraction.Document{
			"invoice": extraction.FromFields(map[string]any{
				"journeyNumber": "LR-7",
				"baseFreight":   43000.0,
				"totalAmount":   49500.0,
			}),
		},
	}
	f := setupService(t, parser)
	f.seedJourney(t, "LR-7", "", &journeydomain.Proforma{
		BaseFreight: 40000,
		TotalAmount: 47727.03,
		Category:    journeydomain.ProformaCategoryOpen,
	})

	resp, err := f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypeInvoice,
		Files:   []bulkjobdomain.FileUpload{{Name: "inv.pdf", Bytes: []byte("invoice")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	detail, err := f.svc.GetJob(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("items = %d", len(detail.Items))
	}

	item := detail.Items[0]
	if item.Journey == nil || item.Journey.JourneyNumber != "LR-7" {
		t.Fatalf("journey summary missing: %+v", item.Journey)
	}
	if item.ReviewStatus != bulkjobdomain.ReviewStatusPending {
		t.Fatalf("review status = %s", item.ReviewStatus)
	}

	var base *float64
	for _, line := range item.Charges.Lines {
		if line.ChargeType == "Base Freight" {
			base = line.Variance
		}
	}
	if base == nil || *base != 3000.0 {
		t.Fatalf("base freight variance = %v, want 3000", base)
	}
}

func TestSubmitUploadFailureContained(t *testing.T) {
	parser := &parserStub{
		docs: map[string]extraction.Document{
			"pod": extraction.FromFields(map[string]any{"journeyNumber": "LR-1"}),
		},
	}
	node := mustNode(t)
	db := openTestDB(t)
	svc := NewService(ServiceParam{
		Cfg:         config.Config{PipelineWorkers: 1},
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
		Repo:        bulkjobrepo.Provide(),
		JourneyRepo: journeyrepo.Provide(),
		Parser:      parser,
		Store:       &failingStore{err: errors.New("bucket unreachable")},
	})

	resp, err := svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypePOD,
		Files:   []bulkjobdomain.FileUpload{{Name: "pod.pdf", Bytes: []byte("pod")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if resp.Summary.Skipped != 1 || resp.Summary.Matched != 0 {
		t.Fatalf("summary = %+v", resp.Summary)
	}
	item := resp.Items[0]
	if item.MatchStatus != bulkjobdomain.MatchStatusSkipped || item.MatchScore != 0 {
		t.Fatalf("item = %s/%d, want skipped/0", item.MatchStatus, item.MatchScore)
	}
	if !strings.Contains(item.MatchReason, "upload failed") {
		t.Fatalf("reason = %q, want upload failure preserved", item.MatchReason)
	}
	if item.JourneyID != "" || item.FileURL != "" {
		t.Fatalf("skipped item must not reference a journey or file: %+v", item)
	}

	// The batch still finalizes.
	var job bulkjobdomain.BulkJob
	if err := db.First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != bulkjobdomain.JobStatusCompleted || job.FailedFiles != 1 {
		t.Fatalf("job = %+v, want completed with one failed file", job)
	}
}

// insertFailRepo fails item writes and delegates everything else.
type insertFailRepo struct {
	bulkjobdomain.Repository
	err error
}

func (r *insertFailRepo) InsertItem(context.Context, *gorm.DB, *bulkjobdomain.BulkJobItem) error {
	return r.err
}

func TestSubmitItemPersistFailureDropsJourneyRef(t *testing.T) {
	parser := &parserStub{
		docs: map[string]extraction.Document{
			"pod": extraction.FromFields(map[string]any{"journeyNumber": "LR-1"}),
		},
	}
	node := mustNode(t)
	db := openTestDB(t)
	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	j := journeydomain.Journey{
		ID:            node.Generate(),
		JourneyNumber: "LR-1",
		EPODStatus:    journeydomain.EPODStatusPending,
		CreatedAt:     fake.Now(),
		UpdatedAt:     fake.Now(),
	}
	if err := db.Create(&j).Error; err != nil {
		t.Fatalf("seed journey: %v", err)
	}

	svc := NewService(ServiceParam{
		Cfg:         config.Config{PipelineWorkers: 1},
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        &insertFailRepo{Repository: bulkjobrepo.Provide(), err: errors.New("disk full")},
		JourneyRepo: journeyrepo.Provide(),
		Parser:      parser,
		Store:       docstore.NewMemory(),
	})

	resp, err := svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypePOD,
		Files:   []bulkjobdomain.FileUpload{{Name: "pod.pdf", Bytes: []byte("pod")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	item := resp.Items[0]
	if item.MatchStatus != bulkjobdomain.MatchStatusSkipped {
		t.Fatalf("item status = %s, want skipped", item.MatchStatus)
	}
	if !strings.Contains(item.MatchReason, "persisting item failed") {
		t.Fatalf("reason = %q", item.MatchReason)
	}
	// The row was never written, so the response must not claim a match.
	if item.JourneyID != "" {
		t.Fatalf("journey id = %q, want empty on a skipped item", item.JourneyID)
	}
}

func TestSubmitEmptyExtractionSkipped(t *testing.T) {
	// Parser succeeds but yields no fields at all.
	f := setupService(t, &parserStub{})

	resp, err := f.svc.Submit(context.Background(), bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobTypePOD,
		Files:   []bulkjobdomain.FileUpload{{Name: "blank.pdf", Bytes: []byte("blank")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	item := resp.Items[0]
	if item.MatchStatus != bulkjobdomain.MatchStatusSkipped || item.MatchScore != 0 {
		t.Fatalf("item = %s/%d, want skipped/0", item.MatchStatus, item.MatchScore)
	}
	if resp.Summary.Skipped != 1 {
		t.Fatalf("summary = %+v", resp.Summary)
	}
	// The file itself was stored; only matching was impossible.
	if f.store.Len() != 1 {
		t.Fatalf("stored files = %d, want 1", f.store.Len())
	}
}

func TestGetJobNotFound(t *testing.T) {
	f := setupService(t, &parserStub{})

	if _, err := f.svc.GetJob(context.Background(), "not-a-snowflake"); !errors.Is(err, bulkjobdomain.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
	if _, err := f.svc.GetJob(context.Background(), f.node.Generate().String()); !errors.Is(err, bulkjobdomain.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound for unknown id", err)
	}
}
