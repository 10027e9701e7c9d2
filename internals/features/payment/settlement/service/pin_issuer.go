// file: internals/features/payment/settlement/service/pin_issuer.go
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"soundfactory_backend/internals/features/payment/settlement/model"
)

/* =========================================================
   PIN Issuer
   Short door-entry credentials. Crypto-random candidates
   (never a counter — pins gate the door), checked against
   the store, redrawn on collision. The unique index on
   access_pin_code stays authoritative; the pre-check just
   keeps insert retries rare.
========================================================= */

const (
	pinDigits       = "0123456789"
	pinAlphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type PinType string

const (
	PinTypeNumeric      PinType = "numeric"
	PinTypeAlphanumeric PinType = "alphanumeric"
)

type PinIssuer struct {
	Type        PinType
	Length      int
	MaxAttempts int
	ValidFor    time.Duration
}

func NewPinIssuer() *PinIssuer {
	return &PinIssuer{
		Type:        PinTypeNumeric,
		Length:      6,
		MaxAttempts: 10,
		ValidFor:    24 * time.Hour,
	}
}

// GenerateCode draws one candidate from crypto/rand. Bytes outside the
// largest multiple of the alphabet size are rejected, so every symbol is
// equally likely (a plain modulo would skew the low digits).
func (p *PinIssuer) GenerateCode() (string, error) {
	alphabet := pinDigits
	length := p.Length
	if p.Type == PinTypeAlphanumeric {
		alphabet = pinAlphanumeric
		if length < 8 {
			length = 8
		}
	}

	limit := 256 - (256 % len(alphabet))
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("pin entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// fallbackCode is the last resort after MaxAttempts collisions: a
// timestamp-derived code so the confirmation flow never fails on pin
// exhaustion (astronomically unlikely at this code space anyway).
func (p *PinIssuer) fallbackCode() string {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ms) > p.Length {
		ms = ms[len(ms)-p.Length:]
	}
	return ms
}

// Issue creates and persists a pin for bookingID inside tx. Inserts go through
// ON CONFLICT DO NOTHING so a lost race never aborts the caller's transaction:
// zero rows affected means either this booking already holds a pin (replay —
// returned as-is) or the code was taken (redraw).
func (p *PinIssuer) Issue(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (*model.AccessPinModel, error) {
	validUntil := time.Now().UTC().Add(p.ValidFor)

	attempt := 0
	for {
		var candidate string
		if attempt < p.MaxAttempts {
			var err error
			if candidate, err = p.GenerateCode(); err != nil {
				return nil, err
			}
		} else if attempt == p.MaxAttempts {
			log.Printf("[WARN] pin draw attempts exhausted for booking=%s, using timestamp fallback", bookingID)
			candidate = p.fallbackCode()
		} else {
			return nil, fmt.Errorf("pin issuance failed for booking %s", bookingID)
		}
		attempt++

		var n int64
		if err := tx.WithContext(ctx).Model(&model.AccessPinModel{}).
			Where("access_pin_code = ?", candidate).
			Count(&n).Error; err != nil {
			return nil, fmt.Errorf("pin collision check: %w", err)
		}
		if n > 0 {
			continue
		}

		pin := model.AccessPinModel{
			AccessPinID:         uuid.New(),
			AccessPinBookingID:  bookingID,
			AccessPinCode:       candidate,
			AccessPinValidUntil: validUntil,
		}
		res := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&pin)
		if res.Error != nil {
			return nil, fmt.Errorf("insert access pin: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Conflict: either this booking already has a pin (replay) or the
			// candidate code was grabbed in between.
			var existing model.AccessPinModel
			err := tx.WithContext(ctx).
				Where("access_pin_booking_id = ?", bookingID).
				First(&existing).Error
			if err == nil {
				return &existing, nil
			}
			continue // code collision, redraw
		}
		return &pin, nil
	}
}
