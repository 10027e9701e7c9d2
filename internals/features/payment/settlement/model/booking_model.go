// file: internals/features/payment/settlement/model/booking_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   ENUM mirror (must match DB)
================================ */

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

/* ================================
   MODEL: bookings
================================ */

// BookingModel is a reserved table/ticket awaiting payment. Rows are created
// at reservation time; the settlement pipeline only ever moves
// pending → confirmed (cancellation is an out-of-band path).
type BookingModel struct {
	BookingID uuid.UUID `json:"booking_id" gorm:"column:booking_id;type:uuid;primaryKey"`

	BookingStatus BookingStatus `json:"booking_status" gorm:"column:booking_status;not null;default:'pending'"`

	// Nominal, minor units (cents). Integer only — no float money math.
	BookingAmountCents int64  `json:"booking_amount_cents" gorm:"column:booking_amount_cents;not null;default:0;check:booking_amount_cents>=0"`
	BookingCurrency    string `json:"booking_currency" gorm:"column:booking_currency;type:varchar(8);not null;default:'usd'"`

	// Resource + referral
	BookingTableID      *uuid.UUID `json:"booking_table_id" gorm:"column:booking_table_id;type:uuid"`
	BookingPromoterCode *string    `json:"booking_promoter_code" gorm:"column:booking_promoter_code"`

	// Customer contact
	BookingCustomerName  *string `json:"booking_customer_name" gorm:"column:booking_customer_name"`
	BookingCustomerEmail *string `json:"booking_customer_email" gorm:"column:booking_customer_email"`
	BookingCustomerPhone *string `json:"booking_customer_phone" gorm:"column:booking_customer_phone"`

	// Gateway references, stamped at settlement
	BookingCheckoutSessionID *string `json:"booking_checkout_session_id" gorm:"column:booking_checkout_session_id"`
	BookingPaymentIntentID   *string `json:"booking_payment_intent_id" gorm:"column:booking_payment_intent_id"`

	// Access credential, attached once on confirm
	BookingPinCode *string `json:"booking_pin_code" gorm:"column:booking_pin_code"`

	BookingConfirmedAt *time.Time `json:"booking_confirmed_at" gorm:"column:booking_confirmed_at"`
	BookingCreatedAt   time.Time  `json:"booking_created_at" gorm:"column:booking_created_at;not null;autoCreateTime"`
	BookingUpdatedAt   time.Time  `json:"booking_updated_at" gorm:"column:booking_updated_at;not null;autoUpdateTime"`
}

func (BookingModel) TableName() string {
	return "bookings"
}

func (m *BookingModel) BeforeCreate(tx *gorm.DB) error {
	if m.BookingID == uuid.Nil {
		m.BookingID = uuid.New()
	}
	return nil
}
