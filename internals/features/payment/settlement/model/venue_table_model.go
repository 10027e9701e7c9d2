// file: internals/features/payment/settlement/model/venue_table_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VenueTableStatus string

const (
	VenueTableStatusAvailable VenueTableStatus = "available"
	VenueTableStatusHeld      VenueTableStatus = "held"
	VenueTableStatusSold      VenueTableStatus = "sold"
)

/* ================================
   MODEL: venue_tables
================================ */

type VenueTableModel struct {
	VenueTableID uuid.UUID `json:"venue_table_id" gorm:"column:venue_table_id;type:uuid;primaryKey"`

	VenueTableLabel  string           `json:"venue_table_label" gorm:"column:venue_table_label;not null"`
	VenueTableStatus VenueTableStatus `json:"venue_table_status" gorm:"column:venue_table_status;not null;default:'available'"`

	VenueTableCreatedAt time.Time `json:"venue_table_created_at" gorm:"column:venue_table_created_at;not null;autoCreateTime"`
	VenueTableUpdatedAt time.Time `json:"venue_table_updated_at" gorm:"column:venue_table_updated_at;not null;autoUpdateTime"`
}

func (VenueTableModel) TableName() string {
	return "venue_tables"
}

func (m *VenueTableModel) BeforeCreate(tx *gorm.DB) error {
	if m.VenueTableID == uuid.Nil {
		m.VenueTableID = uuid.New()
	}
	return nil
}
