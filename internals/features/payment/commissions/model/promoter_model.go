// file: internals/features/payment/commissions/model/promoter_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   MODEL: promoters
================================ */

// PromoterModel is a referral partner. The commission rate is stored in basis
// points (1000 = 10%) so commission math stays on integers end to end.
type PromoterModel struct {
	PromoterID uuid.UUID `json:"promoter_id" gorm:"column:promoter_id;type:uuid;primaryKey"`

	PromoterName string `json:"promoter_name" gorm:"column:promoter_name;not null"`
	PromoterCode string `json:"promoter_code" gorm:"column:promoter_code;uniqueIndex:uq_promoters_code;not null"`

	PromoterCommissionRateBps int64 `json:"promoter_commission_rate_bps" gorm:"column:promoter_commission_rate_bps;not null;default:0;check:promoter_commission_rate_bps>=0 AND promoter_commission_rate_bps<=10000"`

	// Payout destination (Stripe Connect account). Connected=false or a missing
	// account id means transfers are deferred to pending_commissions.
	PromoterStripeAccountID *string `json:"promoter_stripe_account_id" gorm:"column:promoter_stripe_account_id"`
	PromoterStripeConnected bool    `json:"promoter_stripe_connected" gorm:"column:promoter_stripe_connected;not null;default:false"`

	// Cumulative totals, minor units; bumped atomically on every paid commission.
	PromoterTotalSalesCents      int64 `json:"promoter_total_sales_cents" gorm:"column:promoter_total_sales_cents;not null;default:0"`
	PromoterTotalCommissionCents int64 `json:"promoter_total_commission_cents" gorm:"column:promoter_total_commission_cents;not null;default:0"`

	PromoterCreatedAt time.Time `json:"promoter_created_at" gorm:"column:promoter_created_at;not null;autoCreateTime"`
	PromoterUpdatedAt time.Time `json:"promoter_updated_at" gorm:"column:promoter_updated_at;not null;autoUpdateTime"`
}

func (PromoterModel) TableName() string {
	return "promoters"
}

func (m *PromoterModel) BeforeCreate(tx *gorm.DB) error {
	if m.PromoterID == uuid.Nil {
		m.PromoterID = uuid.New()
	}
	return nil
}

// Payable reports whether an immediate transfer can be attempted.
func (m *PromoterModel) Payable() bool {
	return m.PromoterStripeConnected &&
		m.PromoterStripeAccountID != nil &&
		*m.PromoterStripeAccountID != ""
}

// CommissionRateFraction is for display only; money math uses basis points.
func (m *PromoterModel) CommissionRateFraction() float64 {
	return float64(m.PromoterCommissionRateBps) / 10000
}
