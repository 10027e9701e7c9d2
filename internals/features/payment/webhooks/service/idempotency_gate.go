// file: internals/features/payment/webhooks/service/idempotency_gate.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"soundfactory_backend/internals/features/payment/webhooks/model"
)

/* =========================================================
   Idempotency Gate
   Insert-if-absent on the provider event id, BEFORE any
   business logic. The unique index is the whole mechanism:
   the duplicate-key loser short-circuits as "already
   handled" without re-running settlement.
========================================================= */

type IdempotencyGate struct {
	DB *gorm.DB
}

func NewIdempotencyGate(db *gorm.DB) *IdempotencyGate {
	return &IdempotencyGate{DB: db}
}

// Begin records the event and reports whether it was seen before.
func (g *IdempotencyGate) Begin(ctx context.Context, providerEventID, eventType string, payload []byte) (duplicate bool, err error) {
	row := model.PaymentWebhookEventModel{
		WebhookEventProviderID: providerEventID,
		WebhookEventType:       eventType,
		WebhookEventPayload:    datatypes.JSON(payload),
		WebhookEventProcessed:  false,
		WebhookEventReceivedAt: time.Now().UTC(),
	}
	if err := g.DB.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return true, nil
		}
		return false, fmt.Errorf("log webhook event %s: %w", providerEventID, err)
	}
	return false, nil
}

// MarkProcessed flips the processed flag once settlement + attribution are
// done. A crash before this leaves processed=false; the row alone is never
// trusted to re-execute anything — downstream stays idempotent per booking.
func (g *IdempotencyGate) MarkProcessed(ctx context.Context, providerEventID string) error {
	now := time.Now().UTC()
	if err := g.DB.WithContext(ctx).Model(&model.PaymentWebhookEventModel{}).
		Where("webhook_event_provider_id = ?", providerEventID).
		Updates(map[string]interface{}{
			"webhook_event_processed":    true,
			"webhook_event_processed_at": now,
		}).Error; err != nil {
		return fmt.Errorf("mark webhook event processed %s: %w", providerEventID, err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
