package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/freightaudit/pkg/db/pagination"
)

// ListJourneys pages through journeys with a keyset cursor so review screens
// can browse the matching candidates.
func (s *Server) ListJourneys(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if page.PageSize <= 0 {
		page.PageSize = 10
	}
	if page.PageSize > 250 {
		page.PageSize = 250
	}

	var cursor *pagination.Cursor
	if page.PageToken != "" {
		decoded, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			AbortWithError(c, newValidationError("page_token", "invalid_page_token", "page token is malformed"))
			return
		}
		cursor = decoded
	}

	journeys, err := s.journeyRepo.ListJourneys(c.Request.Context(), s.db, cursor, page.PageSize)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pageInfo := &pagination.PageInfo{}
	journeys, pageInfo.HasMore = pagination.TrimPage(journeys, page.PageSize)
	if pageInfo.HasMore && len(journeys) > 0 {
		last := journeys[len(journeys)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err == nil {
			pageInfo.NextPageToken = token
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"journeys":  journeys,
		"page_info": pageInfo,
	})
}
