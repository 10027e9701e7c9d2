// file: internals/features/payment/settlement/service/settlement_service.go
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

	"soundfactory_backend/internals/features/payment/settlement/model"
)

/* =========================================================
   Booking Settlement
   pending → confirmed, exactly once per booking. Replays of
   the same booking are no-ops returning the existing pin,
   which is what makes crash recovery safe upstream. The
   guard is the conditional status update, not a lock: two
   concurrent settles race to flip pending→confirmed and the
   loser rereads the winner's result.
========================================================= */

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingCancelled = errors.New("booking already cancelled")
)

type SettleInput struct {
	BookingID         uuid.UUID
	CheckoutSessionID string
	PaymentIntentID   string
	AmountCents       int64
	Currency          string
	CustomerEmail     string
	CustomerName      string
	CustomerPhone     string
}

type SettleResult struct {
	Booking  model.BookingModel
	PinCode  string
	Replayed bool
}

type SettlementService struct {
	DB   *gorm.DB
	Pins *PinIssuer
}

func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{DB: db, Pins: NewPinIssuer()}
}

// Settle confirms the booking, attaches a fresh pin and marks the table sold,
// all in one transaction.
func (s *SettlementService) Settle(ctx context.Context, in SettleInput) (*SettleResult, error) {
	var result SettleResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking model.BookingModel
		if err := tx.
			Where("booking_id = ?", in.BookingID).
			First(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("load booking %s: %w", in.BookingID, err)
		}

		switch booking.BookingStatus {
		case model.BookingStatusConfirmed:
			// Benign replay: hand back what the first delivery produced.
			result.Booking = booking
			result.Replayed = true
			if booking.BookingPinCode != nil {
				result.PinCode = *booking.BookingPinCode
			}
			log.Printf("[INFO] booking %s already confirmed (replay)", booking.BookingID)
			return nil
		case model.BookingStatusCancelled:
			return ErrBookingCancelled
		}

		pin, err := s.Pins.Issue(ctx, tx, booking.BookingID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"booking_status":              model.BookingStatusConfirmed,
			"booking_pin_code":            pin.AccessPinCode,
			"booking_checkout_session_id": in.CheckoutSessionID,
			"booking_payment_intent_id":   in.PaymentIntentID,
			"booking_confirmed_at":        now,
		}
		if in.AmountCents > 0 {
			updates["booking_amount_cents"] = in.AmountCents
		}
		if c := strings.ToLower(strings.TrimSpace(in.Currency)); c != "" {
			updates["booking_currency"] = c
		}
		if in.CustomerEmail != "" {
			updates["booking_customer_email"] = in.CustomerEmail
		}
		if in.CustomerName != "" {
			updates["booking_customer_name"] = in.CustomerName
		}
		if in.CustomerPhone != "" {
			updates["booking_customer_phone"] = in.CustomerPhone
		}

		// Conditional transition: only a still-pending row flips. Zero rows
		// means another delivery confirmed it first — reread and replay.
		res := tx.Model(&model.BookingModel{}).
			Where("booking_id = ? AND booking_status = ?", booking.BookingID, model.BookingStatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("confirm booking %s: %w", booking.BookingID, res.Error)
		}
		if res.RowsAffected == 0 {
			var confirmed model.BookingModel
			if err := tx.Where("booking_id = ?", booking.BookingID).First(&confirmed).Error; err != nil {
				return fmt.Errorf("reload booking %s: %w", booking.BookingID, err)
			}
			result.Booking = confirmed
			result.Replayed = true
			if confirmed.BookingPinCode != nil {
				result.PinCode = *confirmed.BookingPinCode
			}
			return nil
		}

		booking.BookingStatus = model.BookingStatusConfirmed
		booking.BookingPinCode = &pin.AccessPinCode
		booking.BookingConfirmedAt = &now

		if booking.BookingTableID != nil {
			if err := tx.Model(&model.VenueTableModel{}).
				Where("venue_table_id = ?", *booking.BookingTableID).
				Update("venue_table_status", model.VenueTableStatusSold).Error; err != nil {
				return fmt.Errorf("mark table sold: %w", err)
			}
		}

		result.Booking = booking
		result.PinCode = pin.AccessPinCode
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Replayed {
		log.Printf("✅ booking %s confirmed with PIN %s", result.Booking.BookingID, result.PinCode)
	}
	return &result, nil
}
