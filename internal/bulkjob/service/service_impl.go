package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	bulkjobdomain "github.com/smallbiznis/freightaudit/internal/bulkjob/domain"
	"github.com/smallbiznis/freightaudit/internal/clock"
	"github.com/smallbiznis/freightaudit/internal/config"
	"github.com/smallbiznis/freightaudit/internal/docstore"
	"github.com/smallbiznis/freightaudit/internal/extraction"
	journeydomain "github.com/smallbiznis/freightaudit/internal/journey/domain"
	"github.com/smallbiznis/freightaudit/internal/matching"
	obsmetrics "github.com/smallbiznis/freightaudit/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock

	repo        bulkjobdomain.Repository
	journeyRepo journeydomain.Repository
	parser      extraction.Parser
	store       docstore.Store
	metrics     *obsmetrics.Metrics

	workers     int
	maxFileSize int64
}

type ServiceParam struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock

	Repo        bulkjobdomain.Repository
	JourneyRepo journeydomain.Repository
	Parser      extraction.Parser
	Store       docstore.Store
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) bulkjobdomain.Service {
	workers := p.Cfg.PipelineWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		db:  p.DB,
		log: p.Log.Named("bulkjob.service"),

		genID: p.GenID,
		clock: p.Clock,

		repo:        p.Repo,
		journeyRepo: p.JourneyRepo,
		parser:      p.Parser,
		store:       p.Store,
		metrics:     p.Metrics,

		workers:     workers,
		maxFileSize: p.Cfg.MaxFileSizeBytes,
	}
}

// itemOutcome is what each file's pipeline hands back to the batch reducer.
type itemOutcome struct {
	item   bulkjobdomain.BulkJobItem
	stored bool
}

// Submit runs the batch pipeline: validate, create the job, fetch the
// journey snapshot once, process every file on a bounded worker pool, then
// reduce outcomes into the job counters and finalize. Per-file failures are
// contained; the batch always returns a summary.
func (s *Service) Submit(ctx context.Context, req bulkjobdomain.SubmitRequest) (bulkjobdomain.SubmitResponse, error) {
	if err := s.validateSubmit(req); err != nil {
		return bulkjobdomain.SubmitResponse{}, err
	}

	now := s.clock.Now()
	job := &bulkjobdomain.BulkJob{
		ID:         s.genID.Generate(),
		JobType:    req.JobType,
		TotalFiles: len(req.Files),
		Status:     bulkjobdomain.JobStatusProcessing,
		CreatedAt:  now,
	}
	if err := s.repo.InsertJob(ctx, s.db, job); err != nil {
		return bulkjobdomain.SubmitResponse{}, err
	}

	// One journey snapshot per batch: every file matches against the same
	// candidate set, and the advisory journey IDs in the request never
	// constrain it.
	journeys, err := s.journeyRepo.ListForMatching(ctx, s.db)
	if err != nil {
		return bulkjobdomain.SubmitResponse{}, err
	}
	index := matching.NewIndex(journeys)
	for _, dup := range index.DuplicateJourneyNumbers() {
		s.log.Warn("duplicate journey number among matching candidates; earliest journey wins",
			zap.String("journey_number", dup),
			zap.String("job_id", job.ID.String()),
		)
	}

	outcomes := make([]itemOutcome, len(req.Files))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i := range req.Files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.processFile(ctx, job, index, req.Files[i])
		}(i)
	}
	wg.Wait()

	return s.finalize(ctx, job, outcomes)
}

func (s *Service) validateSubmit(req bulkjobdomain.SubmitRequest) error {
	switch req.JobType {
	case bulkjobdomain.JobTypePOD, bulkjobdomain.JobTypeInvoice:
	default:
		return bulkjobdomain.ErrInvalidJobType
	}
	if len(req.Files) == 0 {
		return bulkjobdomain.ErrNoFiles
	}
	for _, f := range req.Files {
		if f.Name == "" || len(f.Bytes) == 0 {
			return bulkjobdomain.ErrInvalidFile
		}
		if s.maxFileSize > 0 && int64(len(f.Bytes)) > s.maxFileSize {
			return bulkjobdomain.ErrFileTooLarge
		}
	}
	return nil
}

// processFile is one file's pipeline: store bytes, extract fields, match.
// Storage and extraction failures degrade the item to skipped with the
// underlying message preserved; nothing here fails the batch.
func (s *Service) processFile(ctx context.Context, job *bulkjobdomain.BulkJob, index *matching.Index, file bulkjobdomain.FileUpload) itemOutcome {
	now := s.clock.Now()
	item := bulkjobdomain.BulkJobItem{
		ID:           s.genID.Generate(),
		BulkJobID:    job.ID,
		FileName:     file.Name,
		MatchStatus:  bulkjobdomain.MatchStatusSkipped,
		MatchScore:   matching.ScoreSkipped,
		ReviewStatus: bulkjobdomain.ReviewStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	url, err := s.store.Put(ctx, s.objectKey(job, file), file.Bytes, file.MimeType)
	if err != nil {
		item.MatchReason = fmt.Sprintf("upload failed: %v", err)
		s.log.Warn("document upload failed",
			zap.String("job_id", job.ID.String()),
			zap.String("file_name", file.Name),
			zap.Error(err),
		)
		return s.persistItem(ctx, job, item, nil)
	}
	item.FileURL = url

	doc, err := s.parser.Parse(ctx, extraction.ParseInput{
		FileBytes:    file.Bytes,
		ContentType:  file.MimeType,
		DocumentType: string(job.JobType),
	})
	if err != nil {
		item.MatchReason = fmt.Sprintf("field extraction failed: %v", err)
		if s.metrics != nil {
			s.metrics.RecordExtractionFailure(ctx, string(job.JobType))
		}
		s.log.Warn("field extraction failed",
			zap.String("job_id", job.ID.String()),
			zap.String("file_name", file.Name),
			zap.Error(err),
		)
		return s.persistItem(ctx, job, item, nil)
	}

	item.ExtractedData = datatypes.JSONMap(doc.Fields)
	item.ExtractionConfidence = doc.Confidence

	result := index.Match(doc)
	item.MatchStatus = bulkjobdomain.MatchStatus(result.Outcome)
	item.MatchScore = result.Score
	item.MatchReason = result.Reason

	var matched *journeydomain.Journey
	if result.Outcome == matching.OutcomeMatched {
		id := result.Journey.ID
		item.JourneyID = &id
		matched = result.Journey
	}

	return s.persistItem(ctx, job, item, matched)
}

func (s *Service) persistItem(ctx context.Context, job *bulkjobdomain.BulkJob, item bulkjobdomain.BulkJobItem, matched *journeydomain.Journey) itemOutcome {
	if err := s.repo.InsertItem(ctx, s.db, &item); err != nil {
		s.log.Error("persisting bulk job item failed",
			zap.String("job_id", job.ID.String()),
			zap.String("file_name", item.FileName),
			zap.Error(err),
		)
		item.MatchStatus = bulkjobdomain.MatchStatusSkipped
		item.MatchScore = matching.ScoreSkipped
		item.MatchReason = fmt.Sprintf("persisting item failed: %v", err)
		// A skipped item must not report a journey reference.
		item.JourneyID = nil
		return itemOutcome{item: item}
	}

	if matched != nil {
		if err := s.journeyRepo.AttachDocument(ctx, s.db, matched.ID, item.ID); err != nil {
			// The match itself stands; only the back-reference is missing.
			s.log.Warn("attaching document to journey failed",
				zap.String("journey_id", matched.ID.String()),
				zap.String("item_id", item.ID.String()),
				zap.Error(err),
			)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordDocumentProcessed(ctx, string(job.JobType), string(item.MatchStatus))
	}
	return itemOutcome{item: item, stored: true}
}

func (s *Service) objectKey(job *bulkjobdomain.BulkJob, file bulkjobdomain.FileUpload) string {
	ext := filepath.Ext(file.Name)
	return fmt.Sprintf("bulk-jobs/%s/%s%s", job.ID.String(), uuid.NewString(), ext)
}

func (s *Service) finalize(ctx context.Context, job *bulkjobdomain.BulkJob, outcomes []itemOutcome) (bulkjobdomain.SubmitResponse, error) {
	var matched, needsReview, failed int
	items := make([]bulkjobdomain.ItemResult, 0, len(outcomes))
	for _, o := range outcomes {
		switch o.item.MatchStatus {
		case bulkjobdomain.MatchStatusMatched:
			matched++
		case bulkjobdomain.MatchStatusNeedsReview:
			needsReview++
		default:
			failed++
		}
		items = append(items, itemResult(o.item))
	}
	processed := len(outcomes)

	completedAt := s.clock.Now()
	if err := s.repo.FinalizeJob(ctx, s.db, job.ID, processed, matched, needsReview, failed, completedAt); err != nil {
		return bulkjobdomain.SubmitResponse{}, err
	}

	if matched+needsReview+failed != processed {
		s.log.Error("bulk job counters violate the processed invariant",
			zap.String("job_id", job.ID.String()),
			zap.Int("processed", processed),
			zap.Int("matched", matched),
			zap.Int("needs_review", needsReview),
			zap.Int("failed", failed),
		)
	}

	s.log.Info("bulk job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.JobType)),
		zap.Int("total_files", job.TotalFiles),
		zap.Int("matched", matched),
		zap.Int("needs_review", needsReview),
		zap.Int("skipped", failed),
	)

	return bulkjobdomain.SubmitResponse{
		JobID: job.ID.String(),
		Summary: bulkjobdomain.Summary{
			TotalFiles:  job.TotalFiles,
			Matched:     matched,
			NeedsReview: needsReview,
			Skipped:     failed,
		},
		Items: items,
	}, nil
}

func itemResult(item bulkjobdomain.BulkJobItem) bulkjobdomain.ItemResult {
	res := bulkjobdomain.ItemResult{
		ItemID:               item.ID.String(),
		FileName:             item.FileName,
		FileURL:              item.FileURL,
		MatchStatus:          item.MatchStatus,
		MatchScore:           item.MatchScore,
		ExtractionConfidence: item.ExtractionConfidence,
		MatchReason:          item.MatchReason,
		ExtractedData:        map[string]any(item.ExtractedData),
	}
	if item.JourneyID != nil {
		res.JourneyID = item.JourneyID.String()
	}
	return res
}
