package server

import (
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bulkjobdomain "github.com/smallbiznis/freightaudit/internal/bulkjob/domain"
)

type bulkJobFileRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type createBulkJobRequest struct {
	JobType    string               `json:"job_type"`
	JourneyIDs []string             `json:"journey_ids"`
	Files      []bulkJobFileRequest `json:"files"`
}

// CreateBulkJob accepts an upload batch either as multipart form data or as
// JSON with base64-encoded file contents, and runs it through the pipeline.
func (s *Server) CreateBulkJob(c *gin.Context) {
	req, err := s.bindSubmitRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.bulkJobSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) bindSubmitRequest(c *gin.Context) (bulkjobdomain.SubmitRequest, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		return s.bindMultipartSubmit(c)
	}
	return s.bindJSONSubmit(c)
}

func (s *Server) bindMultipartSubmit(c *gin.Context) (bulkjobdomain.SubmitRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return bulkjobdomain.SubmitRequest{}, invalidRequestError()
	}

	req := bulkjobdomain.SubmitRequest{
		JobType: bulkjobdomain.JobType(strings.ToLower(strings.TrimSpace(c.PostForm("job_type")))),
	}
	for _, raw := range form.Value["journey_ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.JourneyIDs = append(req.JourneyIDs, id)
			}
		}
	}

	for _, header := range form.File["files"] {
		upload, err := readUpload(header)
		if err != nil {
			return bulkjobdomain.SubmitRequest{}, err
		}
		req.Files = append(req.Files, upload)
	}
	return req, nil
}

func readUpload(header *multipart.FileHeader) (bulkjobdomain.FileUpload, error) {
	f, err := header.Open()
	if err != nil {
		return bulkjobdomain.FileUpload{}, invalidRequestError()
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return bulkjobdomain.FileUpload{}, invalidRequestError()
	}

	return bulkjobdomain.FileUpload{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     int64(len(data)),
		Bytes:    data,
	}, nil
}

func (s *Server) bindJSONSubmit(c *gin.Context) (bulkjobdomain.SubmitRequest, error) {
	var body createBulkJobRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return bulkjobdomain.SubmitRequest{}, invalidRequestError()
	}

	req := bulkjobdomain.SubmitRequest{
		JobType:    bulkjobdomain.JobType(strings.ToLower(strings.TrimSpace(body.JobType))),
		JourneyIDs: body.JourneyIDs,
	}
	for _, file := range body.Files {
		data, err := base64.StdEncoding.DecodeString(file.Data)
		if err != nil {
			return bulkjobdomain.SubmitRequest{}, newValidationError("files", "invalid_file", "file content must be base64 encoded")
		}
		req.Files = append(req.Files, bulkjobdomain.FileUpload{
			Name:     file.FileName,
			MimeType: file.ContentType,
			Size:     int64(len(data)),
			Bytes:    data,
		})
	}
	return req, nil
}

// ListBulkJobs returns recent jobs, newest first.
func (s *Server) ListBulkJobs(c *gin.Context) {
	jobs, err := s.bulkJobSvc.ListJobs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetBulkJobByID returns the reconciliation read model for one job.
func (s *Server) GetBulkJobByID(c *gin.Context) {
	detail, err := s.bulkJobSvc.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type submitReviewRequest struct {
	ItemID          string                                  `json:"item_id"`
	ChargeDecisions map[string]bulkjobdomain.ChargeDecision `json:"charge_decisions"`
	OverallDecision string                                  `json:"overall_decision"`
	Comments        string                                  `json:"comments"`
	ReviewedBy      string                                  `json:"reviewed_by"`
}

// SubmitReview records one human decision against a job item.
func (s *Server) SubmitReview(c *gin.Context) {
	var body submitReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(body.ItemID) == "" {
		AbortWithError(c, newValidationError("item_id", "invalid_request", "item_id is required"))
		return
	}

	resp, err := s.bulkJobSvc.SubmitReview(c.Request.Context(), bulkjobdomain.ReviewRequest{
		JobID:           c.Param("id"),
		ItemID:          strings.TrimSpace(body.ItemID),
		ChargeDecisions: body.ChargeDecisions,
		OverallDecision: bulkjobdomain.ReviewDecision(strings.ToLower(strings.TrimSpace(body.OverallDecision))),
		Comments:        body.Comments,
		ReviewedBy:      body.ReviewedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
