package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"soundfactory_backend/internals/features/payment/commissions/model"
)

func newTestRetryService(db *gorm.DB, transfers TransferClient) *RetryService {
	return NewRetryService(db, NewAttributionService(db, transfers), DefaultRetryConfig())
}

func seedPendingRow(t *testing.T, db *gorm.DB, code string, bookingID uuid.UUID, saleCents, commissionCents int64, retryCount int, nextRetryAt *time.Time, createdAt time.Time) *model.PendingCommissionModel {
	t.Helper()
	row := &model.PendingCommissionModel{
		PendingCommissionPromoterCode:    code,
		PendingCommissionBookingID:       bookingID,
		PendingCommissionSaleAmountCents: saleCents,
		PendingCommissionAmountCents:     commissionCents,
		PendingCommissionCurrency:        "usd",
		PendingCommissionStatus:          model.PendingCommissionStatusPending,
		PendingCommissionRetryCount:      retryCount,
		PendingCommissionNextRetryAt:     nextRetryAt,
		PendingCommissionCreatedAt:       createdAt,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestRunPassPaysOutOnceConnected(t *testing.T) {
	db := openCommissionTestDB(t)
	transfers := &fakeTransferClient{}
	svc := newTestRetryService(db, transfers)

	// Queued while unconnected, promoter has connected since.
	promoter := seedPromoter(t, db, "MARIA", 1000, true)
	bookingID := uuid.New()
	seedPendingRow(t, db, "MARIA", bookingID, 5000, 500, 0, nil, time.Now().UTC())

	summary, err := svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Skipped)

	calls := transfers.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(500), calls[0].AmountCents)
	assert.Equal(t, fmt.Sprintf("commission_%s_%s", bookingID, promoter.PromoterID), calls[0].IdempotencyKey,
		"retry must reuse the webhook path's dedup key")

	var pending model.PendingCommissionModel
	require.NoError(t, db.Where("pending_commission_booking_id = ?", bookingID).First(&pending).Error)
	assert.Equal(t, model.PendingCommissionStatusProcessed, pending.PendingCommissionStatus)

	var paid model.CommissionModel
	require.NoError(t, db.Where("commission_booking_id = ?", bookingID).First(&paid).Error)
	assert.Equal(t, int64(500), paid.CommissionAmountCents)
}

func TestRunPassSkipsStillUnconnected(t *testing.T) {
	db := openCommissionTestDB(t)
	transfers := &fakeTransferClient{}
	svc := newTestRetryService(db, transfers)

	seedPromoter(t, db, "LUIS", 1000, false)
	bookingID := uuid.New()
	seedPendingRow(t, db, "LUIS", bookingID, 5000, 500, 0, nil, time.Now().UTC())

	summary, err := svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, transfers.calls())

	// Skip leaves the row untouched: no counter bump, no backoff stamp.
	var pending model.PendingCommissionModel
	require.NoError(t, db.Where("pending_commission_booking_id = ?", bookingID).First(&pending).Error)
	assert.Equal(t, model.PendingCommissionStatusPending, pending.PendingCommissionStatus)
	assert.Equal(t, 0, pending.PendingCommissionRetryCount)
	assert.Nil(t, pending.PendingCommissionNextRetryAt)
}

func TestRunPassSkipsUnknownPromoter(t *testing.T) {
	db := openCommissionTestDB(t)
	svc := newTestRetryService(db, &fakeTransferClient{})

	seedPendingRow(t, db, "GHOST", uuid.New(), 5000, 500, 0, nil, time.Now().UTC())

	summary, err := svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRunPassFailureBacksOffExponentially(t *testing.T) {
	db := openCommissionTestDB(t)
	transfers := &fakeTransferClient{failWith: fmt.Errorf("insufficient funds")}
	svc := newTestRetryService(db, transfers)

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	seedPromoter(t, db, "MARIA", 1000, true)
	bookingID := uuid.New()
	seedPendingRow(t, db, "MARIA", bookingID, 5000, 500, 0, nil, now)

	wantDelays := []time.Duration{2 * time.Hour, 4 * time.Hour, 8 * time.Hour, 16 * time.Hour, 32 * time.Hour}
	for attempt, wantDelay := range wantDelays {
		summary, err := svc.RunPass(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Total, "attempt %d must be selectable", attempt+1)
		assert.Equal(t, 1, summary.Failed)

		var row model.PendingCommissionModel
		require.NoError(t, db.Where("pending_commission_booking_id = ?", bookingID).First(&row).Error)
		assert.Equal(t, attempt+1, row.PendingCommissionRetryCount)
		require.NotNil(t, row.PendingCommissionNextRetryAt)
		assert.WithinDuration(t, now.Add(wantDelay), *row.PendingCommissionNextRetryAt, time.Second)
		require.NotNil(t, row.PendingCommissionLastError)
		assert.Contains(t, *row.PendingCommissionLastError, "insufficient funds")

		// Advance the clock past the backoff to make the next attempt due.
		now = now.Add(wantDelay).Add(time.Minute)
	}

	// Five failures hit the cap: the row stays pending but leaves the
	// selection window for good.
	summary, err := svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)

	exhausted, err := svc.ExhaustedCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), exhausted)
}

func TestRunPassHonorsNextRetryAt(t *testing.T) {
	db := openCommissionTestDB(t)
	svc := newTestRetryService(db, &fakeTransferClient{})

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	seedPromoter(t, db, "MARIA", 1000, true)
	future := now.Add(time.Hour)
	seedPendingRow(t, db, "MARIA", uuid.New(), 5000, 500, 1, &future, now)

	summary, err := svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total, "rows with a future next_retry_at are not due")

	svc.Now = func() time.Time { return future.Add(time.Second) }
	summary, err = svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
}

func TestRunPassOldestFirstWithinBatchLimit(t *testing.T) {
	db := openCommissionTestDB(t)
	transfers := &fakeTransferClient{}
	svc := NewRetryService(db, NewAttributionService(db, transfers), RetryConfig{MaxRetries: 5, BatchSize: 2})

	seedPromoter(t, db, "MARIA", 1000, true)
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	oldest := seedPendingRow(t, db, "MARIA", uuid.New(), 1000, 100, 0, nil, base)
	middle := seedPendingRow(t, db, "MARIA", uuid.New(), 2000, 200, 0, nil, base.Add(time.Hour))
	newest := seedPendingRow(t, db, "MARIA", uuid.New(), 3000, 300, 0, nil, base.Add(2*time.Hour))

	summary, err := svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Processed)

	for _, row := range []*model.PendingCommissionModel{oldest, middle} {
		var got model.PendingCommissionModel
		require.NoError(t, db.Where("pending_commission_id = ?", row.PendingCommissionID).First(&got).Error)
		assert.Equal(t, model.PendingCommissionStatusProcessed, got.PendingCommissionStatus)
	}
	var got model.PendingCommissionModel
	require.NoError(t, db.Where("pending_commission_id = ?", newest.PendingCommissionID).First(&got).Error)
	assert.Equal(t, model.PendingCommissionStatusPending, got.PendingCommissionStatus, "newest row waits for the next pass")
}

func TestRunPassConvergesAlreadyPaidPair(t *testing.T) {
	db := openCommissionTestDB(t)
	transfers := &fakeTransferClient{}
	attribution := NewAttributionService(db, transfers)
	svc := NewRetryService(db, attribution, DefaultRetryConfig())

	seedPromoter(t, db, "MARIA", 1000, true)
	bookingID := uuid.New()

	// Paid via the webhook path while a queue row still existed.
	res, err := attribution.Attribute(context.Background(), bookingID, "MARIA", 5000, "usd")
	require.NoError(t, err)
	require.Equal(t, OutcomePaid, res.Outcome)
	seedPendingRow(t, db, "MARIA", bookingID, 5000, 500, 0, nil, time.Now().UTC())

	summary, err := svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Len(t, transfers.calls(), 1, "no second transfer for a settled pair")

	var n int64
	require.NoError(t, db.Model(&model.CommissionModel{}).Where("commission_booking_id = ?", bookingID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
