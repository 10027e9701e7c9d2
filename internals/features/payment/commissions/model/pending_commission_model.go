// file: internals/features/payment/commissions/model/pending_commission_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PendingCommissionStatus string

const (
	PendingCommissionStatusPending   PendingCommissionStatus = "pending"
	PendingCommissionStatusProcessed PendingCommissionStatus = "processed"
)

/*
  pending_commissions = deferred payouts waiting for a usable destination or a
  failed-transfer retry. The retry pass mutates these; terminal state is
  'processed', at which point a commissions row must exist for the pair.
  Unique (promoter_code, booking_id): a pair is queued at most once.
*/

type PendingCommissionModel struct {
	PendingCommissionID uuid.UUID `json:"pending_commission_id" gorm:"column:pending_commission_id;type:uuid;primaryKey"`

	PendingCommissionPromoterCode string    `json:"pending_commission_promoter_code" gorm:"column:pending_commission_promoter_code;uniqueIndex:uq_pending_commissions_pair;not null"`
	PendingCommissionBookingID    uuid.UUID `json:"pending_commission_booking_id" gorm:"column:pending_commission_booking_id;type:uuid;uniqueIndex:uq_pending_commissions_pair;not null"`

	PendingCommissionSaleAmountCents int64  `json:"pending_commission_sale_amount_cents" gorm:"column:pending_commission_sale_amount_cents;not null"`
	PendingCommissionAmountCents     int64  `json:"pending_commission_amount_cents" gorm:"column:pending_commission_amount_cents;not null"`
	PendingCommissionCurrency        string `json:"pending_commission_currency" gorm:"column:pending_commission_currency;type:varchar(8);not null;default:'usd'"`

	PendingCommissionStatus PendingCommissionStatus `json:"pending_commission_status" gorm:"column:pending_commission_status;not null;default:'pending'"`

	// Backoff state. After RetryCount reaches the cap the row stays 'pending'
	// but the selection guard stops picking it up — operator follow-up territory.
	PendingCommissionRetryCount  int        `json:"pending_commission_retry_count" gorm:"column:pending_commission_retry_count;not null;default:0"`
	PendingCommissionNextRetryAt *time.Time `json:"pending_commission_next_retry_at" gorm:"column:pending_commission_next_retry_at"`
	PendingCommissionLastError   *string    `json:"pending_commission_last_error" gorm:"column:pending_commission_last_error"`

	PendingCommissionProcessedAt *time.Time `json:"pending_commission_processed_at" gorm:"column:pending_commission_processed_at"`
	PendingCommissionCreatedAt   time.Time  `json:"pending_commission_created_at" gorm:"column:pending_commission_created_at;not null;autoCreateTime"`
	PendingCommissionUpdatedAt   time.Time  `json:"pending_commission_updated_at" gorm:"column:pending_commission_updated_at;not null;autoUpdateTime"`
}

func (PendingCommissionModel) TableName() string {
	return "pending_commissions"
}

func (m *PendingCommissionModel) BeforeCreate(tx *gorm.DB) error {
	if m.PendingCommissionID == uuid.Nil {
		m.PendingCommissionID = uuid.New()
	}
	return nil
}
