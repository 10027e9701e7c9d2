// file: internals/features/payment/webhooks/dto/webhook_event_dto.go
package dto

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v76"
)

/* =========================================================
   Typed gateway event
   Tagged variant instead of branching on raw payload maps:
   the dispatcher switches on Kind, and checkout-completed
   carries a validated, named-field payload.
========================================================= */

type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout_completed"
	EventPaymentSucceeded  EventKind = "payment_succeeded"
	EventPaymentFailed     EventKind = "payment_failed"
	EventTransferCreated   EventKind = "transfer_created"
	EventOther             EventKind = "other"
)

type WebhookEvent struct {
	ProviderEventID string
	ProviderType    string // raw provider type string, for the event log
	Kind            EventKind
	Checkout        *CheckoutCompleted // set only for EventCheckoutCompleted
}

// CheckoutCompleted is the one event the pipeline acts on. Metadata fields are
// stamped onto the checkout session at reservation time.
type CheckoutCompleted struct {
	SessionID       string `json:"session_id" validate:"required"`
	PaymentIntentID string `json:"payment_intent_id"`

	BookingID    uuid.UUID `json:"booking_id" validate:"required"`
	TableID      string    `json:"table_id"`
	PromoterCode string    `json:"promoter_code"`

	AmountTotalCents int64  `json:"amount_total_cents" validate:"gte=0"`
	Currency         string `json:"currency"`

	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

var validate = validator.New()

// checkoutSessionPayload mirrors the fields of the Stripe checkout.session
// object this pipeline reads. payment_intent arrives as a plain id string on
// webhook payloads (never expanded).
type checkoutSessionPayload struct {
	ID              string `json:"id"`
	PaymentIntent   string `json:"payment_intent"`
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Name string `json:"name"`
	} `json:"customer_details"`
	Metadata struct {
		BookingID     string `json:"booking_id"`
		TableID       string `json:"table_id"`
		PromoterCode  string `json:"promoter_code"`
		CustomerPhone string `json:"customer_phone"`
	} `json:"metadata"`
}

// ParseStripeEvent maps a verified stripe.Event into the tagged variant.
// Unknown types come back as EventOther — forward-compatible no-ops.
func ParseStripeEvent(ev stripe.Event) (*WebhookEvent, error) {
	out := &WebhookEvent{
		ProviderEventID: ev.ID,
		ProviderType:    string(ev.Type),
	}

	switch string(ev.Type) {
	case "checkout.session.completed":
		out.Kind = EventCheckoutCompleted

		if ev.Data == nil {
			return nil, fmt.Errorf("event %s: missing data object", ev.ID)
		}

		var session checkoutSessionPayload
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("parse checkout session payload: %v", err)
		}

		bookingID, err := uuid.Parse(session.Metadata.BookingID)
		if err != nil {
			return nil, fmt.Errorf("checkout session %s: booking_id is not a valid UUID", session.ID)
		}

		checkout := &CheckoutCompleted{
			SessionID:        session.ID,
			PaymentIntentID:  session.PaymentIntent,
			BookingID:        bookingID,
			TableID:          session.Metadata.TableID,
			PromoterCode:     session.Metadata.PromoterCode,
			AmountTotalCents: session.AmountTotal,
			Currency:         session.Currency,
			CustomerEmail:    session.CustomerEmail,
			CustomerName:     session.CustomerDetails.Name,
			CustomerPhone:    session.Metadata.CustomerPhone,
		}
		if err := validate.Struct(checkout); err != nil {
			return nil, fmt.Errorf("checkout session %s: %v", session.ID, err)
		}
		out.Checkout = checkout

	case "payment_intent.succeeded":
		out.Kind = EventPaymentSucceeded
	case "payment_intent.payment_failed":
		out.Kind = EventPaymentFailed
	case "transfer.created":
		out.Kind = EventTransferCreated
	default:
		out.Kind = EventOther
	}

	return out, nil
}
