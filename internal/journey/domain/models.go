// Package domain contains persistence models for journeys and their
// contracted charge breakdowns. Both are owned by upstream journey planning;
// this service reads them and only ever writes the matched-document
// reference back onto a journey.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrJourneyNotFound = errors.New("journey_not_found")

// EPODStatus represents the electronic proof-of-delivery state of a journey.
type EPODStatus string

const (
	EPODStatusPending  EPODStatus = "pending"
	EPODStatusApproved EPODStatus = "approved"
	EPODStatusRejected EPODStatus = "rejected"
)

// ProformaCategory classifies a contracted charge breakdown.
type ProformaCategory string

const (
	ProformaCategoryOpen     ProformaCategory = "open"
	ProformaCategoryDisputed ProformaCategory = "disputed"
)

// Journey is one planned shipment. JourneyNumber (the LR number) is the
// primary matching key; LoadID (the LCU number) is the fallback.
type Journey struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	JourneyNumber string        `gorm:"type:text;not null;index" json:"journey_number"`
	LoadID        string        `gorm:"type:text;index" json:"load_id"`
	VehicleNumber string        `gorm:"type:text" json:"vehicle_number"`
	Origin        string        `gorm:"type:text" json:"origin"`
	Destination   string        `gorm:"type:text" json:"destination"`
	EPODStatus    EPODStatus    `gorm:"type:text;not null;default:pending" json:"epod_status"`
	TransporterID snowflake.ID  `gorm:"index" json:"transporter_id"`
	DocumentID    *snowflake.ID `gorm:"index" json:"document_id,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Journey) TableName() string { return "journeys" }

// Proforma is the contracted charge breakdown for exactly one journey,
// computed before the actual invoice arrives.
type Proforma struct {
	ID              snowflake.ID     `gorm:"primaryKey" json:"id"`
	JourneyID       snowflake.ID     `gorm:"not null;index" json:"journey_id"`
	BaseFreight     float64          `gorm:"not null;default:0" json:"base_freight"`
	TollCharge      float64          `gorm:"not null;default:0" json:"toll_charge"`
	UnloadingCharge float64          `gorm:"not null;default:0" json:"unloading_charge"`
	OtherCharges    float64          `gorm:"not null;default:0" json:"other_charges"`
	GSTAmount       float64          `gorm:"not null;default:0" json:"gst_amount"`
	TotalAmount     float64          `gorm:"not null;default:0" json:"total_amount"`
	Category        ProformaCategory `gorm:"type:text;not null;default:open" json:"category"`
	CreatedAt       time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Proforma) TableName() string { return "proformas" }
