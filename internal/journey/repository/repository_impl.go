package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	journeydomain "github.com/smallbiznis/freightaudit/internal/journey/domain"
	"github.com/smallbiznis/freightaudit/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() journeydomain.Repository {
	return &repo{}
}

func (r *repo) ListForMatching(ctx context.Context, db *gorm.DB) ([]journeydomain.Journey, error) {
	var journeys []journeydomain.Journey
	err := db.WithContext(ctx).Raw(
		`SELECT id, journey_number, load_id, vehicle_number, origin, destination,
		 epod_status, transporter_id, document_id, created_at, updated_at
		 FROM journeys ORDER BY created_at ASC, id ASC`,
	).Scan(&journeys).Error
	if err != nil {
		return nil, err
	}
	return journeys, nil
}

func (r *repo) ListJourneys(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]journeydomain.Journey, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT id, journey_number, load_id, vehicle_number, origin, destination,
	 epod_status, transporter_id, document_id, created_at, updated_at
	 FROM journeys`
	args := []any{}

	if cursor != nil && cursor.ID != "" {
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		afterCreatedAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		query += ` WHERE created_at > ? OR (created_at = ? AND id > ?)`
		args = append(args, afterCreatedAt, afterCreatedAt, afterID)
	}

	query += ` ORDER BY created_at ASC, id ASC LIMIT ?`
	args = append(args, limit+1)

	var journeys []journeydomain.Journey
	err := db.WithContext(ctx).Raw(query, args...).Scan(&journeys).Error
	if err != nil {
		return nil, err
	}
	return journeys, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*journeydomain.Journey, error) {
	var journey journeydomain.Journey
	err := db.WithContext(ctx).Raw(
		`SELECT id, journey_number, load_id, vehicle_number, origin, destination,
		 epod_status, transporter_id, document_id, created_at, updated_at
		 FROM journeys WHERE id = ?`,
		id,
	).Scan(&journey).Error
	if err != nil {
		return nil, err
	}
	if journey.ID == 0 {
		return nil, nil
	}
	return &journey, nil
}

func (r *repo) FindProformaByJourneyID(ctx context.Context, db *gorm.DB, journeyID snowflake.ID) (*journeydomain.Proforma, error) {
	var proforma journeydomain.Proforma
	err := db.WithContext(ctx).Raw(
		`SELECT id, journey_id, base_freight, toll_charge, unloading_charge,
		 other_charges, gst_amount, total_amount, category, created_at
		 FROM proformas WHERE journey_id = ?
		 ORDER BY created_at ASC
		 LIMIT 1`,
		journeyID,
	).Scan(&proforma).Error
	if err != nil {
		return nil, err
	}
	if proforma.ID == 0 {
		return nil, nil
	}
	return &proforma, nil
}

func (r *repo) AttachDocument(ctx context.Context, db *gorm.DB, journeyID, itemID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE journeys SET document_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		itemID,
		journeyID,
	).Error
}
