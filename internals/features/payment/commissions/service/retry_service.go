// file: internals/features/payment/commissions/service/retry_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"soundfactory_backend/internals/features/payment/commissions/model"
)

/* =========================================================
   Retry Scheduler
   Invoked externally (cron / manual) — no timer in-process.
   Each pass is stateless and safely re-enterable; all state
   lives in pending_commissions.
========================================================= */

type RetryConfig struct {
	MaxRetries int // selection guard: retry_count < MaxRetries
	BatchSize  int // rows per pass, bounds gateway load
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 5, BatchSize: 15}
}

type RetrySummary struct {
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	RanAt     time.Time `json:"ran_at"`
}

type RetryService struct {
	DB          *gorm.DB
	Attribution *AttributionService
	Cfg         RetryConfig

	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

func NewRetryService(db *gorm.DB, attribution *AttributionService, cfg RetryConfig) *RetryService {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 15
	}
	return &RetryService{DB: db, Attribution: attribution, Cfg: cfg, Now: time.Now}
}

// RunPass picks up eligible pending commissions, oldest first, and re-attempts
// each one. Unconnected promoters are skipped untouched (not a failure, just
// not yet eligible); transfer failures back off exponentially until the cap,
// after which the row stays pending but is no longer selected.
func (s *RetryService) RunPass(ctx context.Context) (*RetrySummary, error) {
	now := s.Now().UTC()

	var rows []model.PendingCommissionModel
	if err := s.DB.WithContext(ctx).
		Where("pending_commission_status = ?", model.PendingCommissionStatusPending).
		Where("pending_commission_retry_count < ?", s.Cfg.MaxRetries).
		Where("pending_commission_next_retry_at IS NULL OR pending_commission_next_retry_at <= ?", now).
		Order("pending_commission_created_at ASC").
		Limit(s.Cfg.BatchSize).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select pending commissions: %w", err)
	}

	summary := &RetrySummary{Total: len(rows), RanAt: now}

	for i := range rows {
		row := &rows[i]

		// Explicit two-step read: pending row first, then the promoter's
		// current connection state.
		var promoter model.PromoterModel
		if err := s.DB.WithContext(ctx).
			Where("promoter_code = ?", row.PendingCommissionPromoterCode).
			First(&promoter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[WARN] pending commission %s references unknown promoter %s — skipped",
					row.PendingCommissionID, row.PendingCommissionPromoterCode)
				summary.Skipped++
				continue
			}
			return nil, fmt.Errorf("resolve promoter for pending %s: %w", row.PendingCommissionID, err)
		}
		if !promoter.Payable() {
			summary.Skipped++
			continue
		}

		// Replay convergence: if the pair was settled elsewhere (webhook race,
		// overlapping pass), just close the queue row.
		alreadyPaid, err := s.Attribution.commissionExists(ctx, promoter.PromoterID, row.PendingCommissionBookingID)
		if err != nil {
			return nil, err
		}
		if alreadyPaid {
			if err := s.markProcessed(ctx, row); err != nil {
				return nil, err
			}
			summary.Processed++
			continue
		}

		if err := s.attemptPayout(ctx, row, &promoter); err != nil {
			summary.Failed++
		} else {
			summary.Processed++
		}
	}

	log.Printf("🔁 retry pass done: total=%d processed=%d failed=%d skipped=%d",
		summary.Total, summary.Processed, summary.Failed, summary.Skipped)
	return summary, nil
}

func (s *RetryService) attemptPayout(ctx context.Context, row *model.PendingCommissionModel, promoter *model.PromoterModel) error {
	commissionCents := row.PendingCommissionAmountCents
	if commissionCents <= 0 {
		// Queued before the amount was computable (legacy rows) — recompute.
		commissionCents = CommissionAmountCents(row.PendingCommissionSaleAmountCents, promoter.PromoterCommissionRateBps)
	}

	group, idemKey := transferKeys(row.PendingCommissionBookingID, promoter.PromoterID)
	currency := row.PendingCommissionCurrency
	if currency == "" {
		currency = "usd"
	}
	transferID, err := s.Attribution.Transfers.CreateTransfer(ctx, TransferRequest{
		AmountCents:          commissionCents,
		Currency:             currency,
		DestinationAccountID: *promoter.PromoterStripeAccountID,
		TransferGroup:        group,
		IdempotencyKey:       idemKey,
		Description:          fmt.Sprintf("Retry commission for booking %s", row.PendingCommissionBookingID),
		Metadata: map[string]string{
			"booking_id":    row.PendingCommissionBookingID.String(),
			"promoter_code": row.PendingCommissionPromoterCode,
			"retry_count":   fmt.Sprintf("%d", row.PendingCommissionRetryCount+1),
		},
	})
	if err != nil {
		return s.recordFailure(ctx, row, err)
	}

	if _, err := s.Attribution.recordPaid(ctx, promoter, row.PendingCommissionBookingID,
		row.PendingCommissionSaleAmountCents, commissionCents, transferID); err != nil {
		return err
	}
	log.Printf("✅ retried commission paid: booking=%s promoter=%s amount=%d transfer=%s",
		row.PendingCommissionBookingID, row.PendingCommissionPromoterCode, commissionCents, transferID)
	return nil
}

// recordFailure bumps the retry counter and pushes next_retry_at out by
// 2^retry_count hours (the post-increment count): 2h, 4h, 8h, 16h, 32h.
func (s *RetryService) recordFailure(ctx context.Context, row *model.PendingCommissionModel, cause error) error {
	newCount := row.PendingCommissionRetryCount + 1
	nextRetry := s.Now().UTC().Add(time.Duration(1<<uint(newCount)) * time.Hour)
	msg := cause.Error()

	log.Printf("[ERROR] commission retry failed: pending=%s attempt=%d err=%v",
		row.PendingCommissionID, newCount, cause)

	if err := s.DB.WithContext(ctx).Model(&model.PendingCommissionModel{}).
		Where("pending_commission_id = ?", row.PendingCommissionID).
		Updates(map[string]interface{}{
			"pending_commission_retry_count":   newCount,
			"pending_commission_next_retry_at": nextRetry,
			"pending_commission_last_error":    msg,
		}).Error; err != nil {
		return fmt.Errorf("record retry failure: %w", err)
	}
	return cause
}

func (s *RetryService) markProcessed(ctx context.Context, row *model.PendingCommissionModel) error {
	now := s.Now().UTC()
	if err := s.DB.WithContext(ctx).Model(&model.PendingCommissionModel{}).
		Where("pending_commission_id = ?", row.PendingCommissionID).
		Updates(map[string]interface{}{
			"pending_commission_status":       model.PendingCommissionStatusProcessed,
			"pending_commission_processed_at": now,
		}).Error; err != nil {
		return fmt.Errorf("mark pending processed: %w", err)
	}
	return nil
}

// ExhaustedCount reports rows that hit the retry cap: still pending, excluded
// from selection, waiting on an operator.
func (s *RetryService) ExhaustedCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&model.PendingCommissionModel{}).
		Where("pending_commission_status = ?", model.PendingCommissionStatusPending).
		Where("pending_commission_retry_count >= ?", s.Cfg.MaxRetries).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count exhausted pending commissions: %w", err)
	}
	return n, nil
}
