// file: internals/features/payment/webhooks/model/payment_webhook_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
  payment_webhook_events = LOG WEBHOOK / CALLBACK PAYMENT GATEWAY
  - Exactly one row per provider event id (unique index) — this constraint IS
    the idempotency gate for inbound deliveries.
  - Raw payload kept for debug / replay.
*/

type PaymentWebhookEventModel struct {
	WebhookEventID uuid.UUID `gorm:"column:webhook_event_id;type:uuid;primaryKey" json:"webhook_event_id"`

	// Provider-assigned identity
	WebhookEventProviderID string `gorm:"column:webhook_event_provider_id;uniqueIndex:uq_webhook_events_provider_id;not null" json:"webhook_event_provider_id"`
	WebhookEventType       string `gorm:"column:webhook_event_type;not null" json:"webhook_event_type"`

	// Raw data (debug / replay)
	WebhookEventPayload datatypes.JSON `gorm:"column:webhook_event_payload;type:jsonb" json:"webhook_event_payload"`

	// Processing state: inserted with processed=false BEFORE business logic
	// runs; flipped after settlement + attribution complete. A false flag on an
	// old row means a crash mid-processing — safe to reprocess because the
	// downstream steps are idempotent per booking.
	WebhookEventProcessed   bool       `gorm:"column:webhook_event_processed;not null;default:false" json:"webhook_event_processed"`
	WebhookEventReceivedAt  time.Time  `gorm:"column:webhook_event_received_at;not null" json:"webhook_event_received_at"`
	WebhookEventProcessedAt *time.Time `gorm:"column:webhook_event_processed_at" json:"webhook_event_processed_at"`
}

func (PaymentWebhookEventModel) TableName() string {
	return "payment_webhook_events"
}

func (m *PaymentWebhookEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.WebhookEventID == uuid.Nil {
		m.WebhookEventID = uuid.New()
	}
	if m.WebhookEventReceivedAt.IsZero() {
		m.WebhookEventReceivedAt = time.Now().UTC()
	}
	return nil
}
