package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/freightaudit/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	// ListForMatching returns every journey eligible for matching, ordered by
	// creation time so duplicate natural keys resolve deterministically to
	// the earliest row.
	ListForMatching(ctx context.Context, db *gorm.DB) ([]Journey, error)
	// ListJourneys pages through journeys with a keyset cursor. Returns up to
	// limit+1 rows so callers can detect whether more pages exist.
	ListJourneys(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]Journey, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Journey, error)
	FindProformaByJourneyID(ctx context.Context, db *gorm.DB, journeyID snowflake.ID) (*Proforma, error)
	// AttachDocument records the matched bulk-job item on the journey. The
	// only write this service performs against journeys.
	AttachDocument(ctx context.Context, db *gorm.DB, journeyID, itemID snowflake.ID) error
}
