// file: internals/features/payment/commissions/model/commission_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommissionStatus string

const (
	CommissionStatusPaid CommissionStatus = "paid"
)

/*
  commissions = finalized, paid settlements. Write-once.
  The composite unique index on (promoter_id, booking_id) is the
  exactly-once-payout invariant: concurrent attribution and retry runs may both
  request a transfer (the gateway dedups by idempotency key), but only one
  insert lands here — the loser treats the duplicate key as "already paid".
*/

type CommissionModel struct {
	CommissionID uuid.UUID `json:"commission_id" gorm:"column:commission_id;type:uuid;primaryKey"`

	CommissionPromoterID uuid.UUID `json:"commission_promoter_id" gorm:"column:commission_promoter_id;type:uuid;uniqueIndex:uq_commissions_promoter_booking;not null"`
	CommissionBookingID  uuid.UUID `json:"commission_booking_id" gorm:"column:commission_booking_id;type:uuid;uniqueIndex:uq_commissions_promoter_booking;not null"`

	CommissionSaleAmountCents int64 `json:"commission_sale_amount_cents" gorm:"column:commission_sale_amount_cents;not null"`
	CommissionRateBps         int64 `json:"commission_rate_bps" gorm:"column:commission_rate_bps;not null"`
	CommissionAmountCents     int64 `json:"commission_amount_cents" gorm:"column:commission_amount_cents;not null"`

	CommissionStripeTransferID string           `json:"commission_stripe_transfer_id" gorm:"column:commission_stripe_transfer_id;not null"`
	CommissionStatus           CommissionStatus `json:"commission_status" gorm:"column:commission_status;not null;default:'paid'"`

	CommissionPaidAt    time.Time `json:"commission_paid_at" gorm:"column:commission_paid_at;not null"`
	CommissionCreatedAt time.Time `json:"commission_created_at" gorm:"column:commission_created_at;not null;autoCreateTime"`
}

func (CommissionModel) TableName() string {
	return "commissions"
}

func (m *CommissionModel) BeforeCreate(tx *gorm.DB) error {
	if m.CommissionID == uuid.Nil {
		m.CommissionID = uuid.New()
	}
	if m.CommissionPaidAt.IsZero() {
		m.CommissionPaidAt = time.Now().UTC()
	}
	return nil
}
