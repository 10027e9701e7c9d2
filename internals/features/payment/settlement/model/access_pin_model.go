// file: internals/features/payment/settlement/model/access_pin_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
  access_pins = short door-entry credentials
  - One pin per booking; pin code carries a unique index, which is the
    authoritative guard against issuing the same code twice. The application
    level collision check in the issuer only cuts down on insert retries.
  - Read by the door check-in system; expires after valid_until.
*/

type AccessPinModel struct {
	AccessPinID uuid.UUID `json:"access_pin_id" gorm:"column:access_pin_id;type:uuid;primaryKey"`

	AccessPinBookingID uuid.UUID `json:"access_pin_booking_id" gorm:"column:access_pin_booking_id;type:uuid;uniqueIndex:uq_access_pins_booking_id;not null"`
	AccessPinCode      string    `json:"access_pin_code" gorm:"column:access_pin_code;uniqueIndex:uq_access_pins_code;not null"`

	AccessPinValidUntil time.Time `json:"access_pin_valid_until" gorm:"column:access_pin_valid_until;not null"`
	AccessPinUsed       bool      `json:"access_pin_used" gorm:"column:access_pin_used;not null;default:false"`

	AccessPinCreatedAt time.Time `json:"access_pin_created_at" gorm:"column:access_pin_created_at;not null;autoCreateTime"`
}

func (AccessPinModel) TableName() string {
	return "access_pins"
}

func (m *AccessPinModel) BeforeCreate(tx *gorm.DB) error {
	if m.AccessPinID == uuid.Nil {
		m.AccessPinID = uuid.New()
	}
	return nil
}
