package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"soundfactory_backend/internals/features/payment/settlement/model"
)

func openSettlementTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.BookingModel{},
		&model.VenueTableModel{},
		&model.AccessPinModel{},
	))
	return db
}

func seedBooking(t *testing.T, db *gorm.DB, status model.BookingStatus, tableID *uuid.UUID) *model.BookingModel {
	t.Helper()
	b := &model.BookingModel{
		BookingStatus:      status,
		BookingAmountCents: 5000,
		BookingCurrency:    "usd",
		BookingTableID:     tableID,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestSettleConfirmsPendingBooking(t *testing.T) {
	db := openSettlementTestDB(t)
	svc := NewSettlementService(db)

	table := &model.VenueTableModel{VenueTableLabel: "VIP 1", VenueTableStatus: model.VenueTableStatusHeld}
	require.NoError(t, db.Create(table).Error)
	booking := seedBooking(t, db, model.BookingStatusPending, &table.VenueTableID)

	res, err := svc.Settle(context.Background(), SettleInput{
		BookingID:         booking.BookingID,
		CheckoutSessionID: "cs_test_1",
		PaymentIntentID:   "pi_test_1",
		AmountCents:       5000,
		Currency:          "USD",
		CustomerEmail:     "guest@example.com",
		CustomerName:      "Guest",
		CustomerPhone:     "+12125551234",
	})
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Len(t, res.PinCode, 6)
	assert.Equal(t, model.BookingStatusConfirmed, res.Booking.BookingStatus)

	var got model.BookingModel
	require.NoError(t, db.Where("booking_id = ?", booking.BookingID).First(&got).Error)
	assert.Equal(t, model.BookingStatusConfirmed, got.BookingStatus)
	require.NotNil(t, got.BookingPinCode)
	assert.Equal(t, res.PinCode, *got.BookingPinCode)
	require.NotNil(t, got.BookingCheckoutSessionID)
	assert.Equal(t, "cs_test_1", *got.BookingCheckoutSessionID)
	assert.Equal(t, "usd", got.BookingCurrency)
	require.NotNil(t, got.BookingConfirmedAt)
	assert.WithinDuration(t, time.Now().UTC(), *got.BookingConfirmedAt, time.Minute)

	var pin model.AccessPinModel
	require.NoError(t, db.Where("access_pin_booking_id = ?", booking.BookingID).First(&pin).Error)
	assert.Equal(t, res.PinCode, pin.AccessPinCode)
	assert.False(t, pin.AccessPinUsed)
	assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), pin.AccessPinValidUntil, time.Minute)

	var soldTable model.VenueTableModel
	require.NoError(t, db.Where("venue_table_id = ?", table.VenueTableID).First(&soldTable).Error)
	assert.Equal(t, model.VenueTableStatusSold, soldTable.VenueTableStatus)
}

func TestSettleReplayReturnsExistingPin(t *testing.T) {
	db := openSettlementTestDB(t)
	svc := NewSettlementService(db)

	booking := seedBooking(t, db, model.BookingStatusPending, nil)
	in := SettleInput{BookingID: booking.BookingID, CheckoutSessionID: "cs_test_1", AmountCents: 5000, Currency: "usd"}

	first, err := svc.Settle(context.Background(), in)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := svc.Settle(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.PinCode, second.PinCode, "replay hands back the original pin")

	var n int64
	require.NoError(t, db.Model(&model.AccessPinModel{}).Where("access_pin_booking_id = ?", booking.BookingID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestSettleUnknownBooking(t *testing.T) {
	db := openSettlementTestDB(t)
	svc := NewSettlementService(db)

	_, err := svc.Settle(context.Background(), SettleInput{BookingID: uuid.New()})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestSettleCancelledBooking(t *testing.T) {
	db := openSettlementTestDB(t)
	svc := NewSettlementService(db)

	booking := seedBooking(t, db, model.BookingStatusCancelled, nil)
	_, err := svc.Settle(context.Background(), SettleInput{BookingID: booking.BookingID})
	assert.ErrorIs(t, err, ErrBookingCancelled)

	var got model.BookingModel
	require.NoError(t, db.Where("booking_id = ?", booking.BookingID).First(&got).Error)
	assert.Equal(t, model.BookingStatusCancelled, got.BookingStatus)
	assert.Nil(t, got.BookingPinCode)
}

func TestSettleKeepsSeededAmountWhenEventOmitsIt(t *testing.T) {
	db := openSettlementTestDB(t)
	svc := NewSettlementService(db)

	booking := seedBooking(t, db, model.BookingStatusPending, nil)
	_, err := svc.Settle(context.Background(), SettleInput{BookingID: booking.BookingID})
	require.NoError(t, err)

	var got model.BookingModel
	require.NoError(t, db.Where("booking_id = ?", booking.BookingID).First(&got).Error)
	assert.Equal(t, int64(5000), got.BookingAmountCents, "zero amount in the event must not wipe the nominal")
}
