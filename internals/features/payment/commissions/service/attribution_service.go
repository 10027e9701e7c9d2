// file: internals/features/payment/commissions/service/attribution_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"soundfactory_backend/internals/features/payment/commissions/model"
)

/* =========================================================
   Commission Attribution
   Runs after a booking is confirmed. Whatever happens here —
   unknown promoter, unconnected account, gateway failure —
   the webhook must still be acknowledged: payouts are an
   eventually-consistent concern, never a reason to roll back
   a confirmation.
========================================================= */

type AttributionOutcome string

const (
	OutcomeNoPromoter  AttributionOutcome = "no_promoter"
	OutcomePaid        AttributionOutcome = "paid"
	OutcomeAlreadyPaid AttributionOutcome = "already_paid"
	OutcomeDeferred    AttributionOutcome = "deferred"
)

type AttributionResult struct {
	Outcome               AttributionOutcome `json:"outcome"`
	PromoterCode          string             `json:"promoter_code,omitempty"`
	CommissionAmountCents int64              `json:"commission_amount_cents,omitempty"`
	TransferID            string             `json:"transfer_id,omitempty"`
}

type AttributionService struct {
	DB        *gorm.DB
	Transfers TransferClient
}

func NewAttributionService(db *gorm.DB, transfers TransferClient) *AttributionService {
	return &AttributionService{DB: db, Transfers: transfers}
}

// transferKeys derives the gateway dedup keys for a (booking, promoter) pair.
// Both the webhook path and the retry pass use the same idempotency key, so
// even if both believe payment is owed, Stripe executes one real transfer.
func transferKeys(bookingID, promoterID uuid.UUID) (group, idemKey string) {
	group = fmt.Sprintf("BOOKING_%s", bookingID)
	idemKey = fmt.Sprintf("commission_%s_%s", bookingID, promoterID)
	return
}

// Attribute resolves the referring promoter for a confirmed booking and either
// pays the commission immediately or queues it for the retry pass.
func (s *AttributionService) Attribute(ctx context.Context, bookingID uuid.UUID, promoterCode string, saleAmountCents int64, currency string) (*AttributionResult, error) {
	code := strings.TrimSpace(promoterCode)
	if code == "" {
		return &AttributionResult{Outcome: OutcomeNoPromoter}, nil
	}

	var promoter model.PromoterModel
	if err := s.DB.WithContext(ctx).
		Where("promoter_code = ?", code).
		First(&promoter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No commission owed; the sale itself still settles.
			log.Printf("[INFO] promoter not found for code=%s (no commission)", code)
			return &AttributionResult{Outcome: OutcomeNoPromoter, PromoterCode: code}, nil
		}
		return nil, fmt.Errorf("resolve promoter %s: %w", code, err)
	}

	commissionCents := CommissionAmountCents(saleAmountCents, promoter.PromoterCommissionRateBps)

	// Exactly-once guard: a commissions row for the pair means this is a replay.
	paid, err := s.commissionExists(ctx, promoter.PromoterID, bookingID)
	if err != nil {
		return nil, err
	}
	if paid {
		log.Printf("[INFO] commission already paid: booking=%s promoter=%s", bookingID, code)
		return &AttributionResult{Outcome: OutcomeAlreadyPaid, PromoterCode: code, CommissionAmountCents: commissionCents}, nil
	}

	if !promoter.Payable() {
		if err := s.enqueuePending(ctx, code, bookingID, saleAmountCents, commissionCents, currency, nil); err != nil {
			return nil, err
		}
		log.Printf("🕓 commission pending (not connected): booking=%s promoter=%s amount=%d", bookingID, code, commissionCents)
		return &AttributionResult{Outcome: OutcomeDeferred, PromoterCode: code, CommissionAmountCents: commissionCents}, nil
	}

	group, idemKey := transferKeys(bookingID, promoter.PromoterID)
	transferID, err := s.Transfers.CreateTransfer(ctx, TransferRequest{
		AmountCents:          commissionCents,
		Currency:             currency,
		DestinationAccountID: *promoter.PromoterStripeAccountID,
		TransferGroup:        group,
		IdempotencyKey:       idemKey,
		Description:          fmt.Sprintf("Commission for booking %s", bookingID),
		Metadata: map[string]string{
			"booking_id":    bookingID.String(),
			"promoter_code": code,
		},
	})
	if err != nil {
		// Deferred-recoverable: capture in the queue, never fail the webhook.
		log.Printf("[ERROR] transfer failed: booking=%s promoter=%s err=%v", bookingID, code, err)
		msg := err.Error()
		if qerr := s.enqueuePending(ctx, code, bookingID, saleAmountCents, commissionCents, currency, &msg); qerr != nil {
			return nil, qerr
		}
		return &AttributionResult{Outcome: OutcomeDeferred, PromoterCode: code, CommissionAmountCents: commissionCents}, nil
	}

	newlyPaid, err := s.recordPaid(ctx, &promoter, bookingID, saleAmountCents, commissionCents, transferID)
	if err != nil {
		return nil, err
	}
	outcome := OutcomePaid
	if !newlyPaid {
		outcome = OutcomeAlreadyPaid
	}
	log.Printf("✅ commission %s: booking=%s promoter=%s amount=%d transfer=%s", outcome, bookingID, code, commissionCents, transferID)
	return &AttributionResult{
		Outcome:               outcome,
		PromoterCode:          code,
		CommissionAmountCents: commissionCents,
		TransferID:            transferID,
	}, nil
}

func (s *AttributionService) commissionExists(ctx context.Context, promoterID, bookingID uuid.UUID) (bool, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&model.CommissionModel{}).
		Where("commission_promoter_id = ? AND commission_booking_id = ?", promoterID, bookingID).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check existing commission: %w", err)
	}
	return n > 0, nil
}

// enqueuePending writes a deferred settlement row. A duplicate pair means the
// queue already holds it — benign, the retry pass will converge.
func (s *AttributionService) enqueuePending(ctx context.Context, promoterCode string, bookingID uuid.UUID, saleCents, commissionCents int64, currency string, lastError *string) error {
	if currency == "" {
		currency = "usd"
	}
	row := model.PendingCommissionModel{
		PendingCommissionPromoterCode:    promoterCode,
		PendingCommissionBookingID:       bookingID,
		PendingCommissionSaleAmountCents: saleCents,
		PendingCommissionAmountCents:     commissionCents,
		PendingCommissionCurrency:        currency,
		PendingCommissionStatus:          model.PendingCommissionStatusPending,
		PendingCommissionLastError:       lastError,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			log.Printf("[INFO] pending commission already queued: booking=%s promoter=%s", bookingID, promoterCode)
			return nil
		}
		return fmt.Errorf("enqueue pending commission: %w", err)
	}
	return nil
}

// recordPaid finalizes a successful transfer: write-once commissions row, an
// atomic bump of the promoter's cumulative stats, and closure of any active
// pending row for the pair — one transaction. If the unique (promoter,
// booking) insert loses a race the whole transaction rolls back; the other
// writer already settled the pair, so that is benign — but the pending row
// still has to be closed so the queue converges.
func (s *AttributionService) recordPaid(ctx context.Context, promoter *model.PromoterModel, bookingID uuid.UUID, saleCents, commissionCents int64, transferID string) (bool, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.CommissionModel{
			CommissionPromoterID:       promoter.PromoterID,
			CommissionBookingID:        bookingID,
			CommissionSaleAmountCents:  saleCents,
			CommissionRateBps:          promoter.PromoterCommissionRateBps,
			CommissionAmountCents:      commissionCents,
			CommissionStripeTransferID: transferID,
			CommissionStatus:           model.CommissionStatusPaid,
			CommissionPaidAt:           time.Now().UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert commission: %w", err)
		}

		if err := tx.Model(&model.PromoterModel{}).
			Where("promoter_id = ?", promoter.PromoterID).
			UpdateColumns(map[string]interface{}{
				"promoter_total_sales_cents":      gorm.Expr("promoter_total_sales_cents + ?", saleCents),
				"promoter_total_commission_cents": gorm.Expr("promoter_total_commission_cents + ?", commissionCents),
			}).Error; err != nil {
			return fmt.Errorf("increment promoter stats: %w", err)
		}

		return s.closePendingPair(tx, promoter.PromoterCode, bookingID)
	})
	if err != nil {
		if isDuplicateKey(err) {
			if cerr := s.closePendingPair(s.DB.WithContext(ctx), promoter.PromoterCode, bookingID); cerr != nil {
				return false, cerr
			}
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AttributionService) closePendingPair(db *gorm.DB, promoterCode string, bookingID uuid.UUID) error {
	now := time.Now().UTC()
	if err := db.Model(&model.PendingCommissionModel{}).
		Where("pending_commission_promoter_code = ? AND pending_commission_booking_id = ? AND pending_commission_status = ?",
			promoterCode, bookingID, model.PendingCommissionStatusPending).
		Updates(map[string]interface{}{
			"pending_commission_status":       model.PendingCommissionStatusProcessed,
			"pending_commission_processed_at": now,
		}).Error; err != nil {
		return fmt.Errorf("mark pending processed: %w", err)
	}
	return nil
}

// isDuplicateKey matches unique violations across drivers. TranslateError
// yields gorm.ErrDuplicatedKey on postgres and sqlite; the string check covers
// paths where translation is off.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
