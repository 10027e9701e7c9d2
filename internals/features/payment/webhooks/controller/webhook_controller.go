// file: internals/features/payment/webhooks/controller/webhook_controller.go
package controller

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	smsService "soundfactory_backend/internals/features/notifications/sms/service"
	commissionService "soundfactory_backend/internals/features/payment/commissions/service"
	settlementService "soundfactory_backend/internals/features/payment/settlement/service"
	"soundfactory_backend/internals/features/payment/webhooks/dto"
	webhookService "soundfactory_backend/internals/features/payment/webhooks/service"
	helper "soundfactory_backend/internals/helpers"
)

/*
	========================================================
	  Webhook Dispatcher
	  Top-level entry point. Only transport/signature
	  failures come back as client errors (so the gateway
	  retries forged/garbled deliveries but nothing else);
	  once verification passes the answer is always 200 —
	  business failures are settled internally, via the
	  pending-commission queue or reconciliation logs.

========================================================
*/

type WebhookConfig struct {
	SigningSecret string
}

type WebhookController struct {
	DB          *gorm.DB
	Cfg         WebhookConfig
	Gate        *webhookService.IdempotencyGate
	Settlement  *settlementService.SettlementService
	Attribution *commissionService.AttributionService
	Notifier    smsService.Notifier
}

func NewWebhookController(
	db *gorm.DB,
	cfg WebhookConfig,
	gate *webhookService.IdempotencyGate,
	settlement *settlementService.SettlementService,
	attribution *commissionService.AttributionService,
	notifier smsService.Notifier,
) *WebhookController {
	return &WebhookController{
		DB:          db,
		Cfg:         cfg,
		Gate:        gate,
		Settlement:  settlement,
		Attribution: attribution,
		Notifier:    notifier,
	}
}

// StripeWebhookPing answers the gateway console's test button.
func (ctl *WebhookController) StripeWebhookPing(c *fiber.Ctx) error {
	log.Println("✅ Stripe ping (GET) received")
	return c.Status(fiber.StatusOK).SendString("OK")
}

// HandleStripeWebhook processes one signed gateway delivery.
func (ctl *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get("Stripe-Signature")

	stripeEvent, err := webhook.ConstructEvent(body, signature, ctl.Cfg.SigningSecret)
	if err != nil {
		// Rejectable: no side effects; a 4xx stops legitimate gateways from
		// endlessly retrying a forged request.
		log.Printf("[ERROR] webhook signature verification failed: %v", err)
		return fiber.NewError(fiber.StatusBadRequest, "invalid signature")
	}

	ev, err := dto.ParseStripeEvent(stripeEvent)
	if err != nil {
		// Rejectable: malformed payload, nothing written yet.
		log.Printf("[ERROR] webhook payload rejected: %v", err)
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	duplicate, err := ctl.Gate.Begin(c.UserContext(), ev.ProviderEventID, ev.ProviderType, body)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if duplicate {
		log.Printf("[INFO] duplicate delivery ignored: event=%s", ev.ProviderEventID)
		return helper.JsonOK(c, "already handled", fiber.Map{"event_id": ev.ProviderEventID})
	}

	switch ev.Kind {
	case dto.EventCheckoutCompleted:
		return ctl.handleCheckoutCompleted(c, ev)
	case dto.EventPaymentSucceeded, dto.EventPaymentFailed, dto.EventTransferCreated:
		// Acknowledged no-ops; kept as explicit branches so new handling has a
		// place to land.
		log.Printf("[INFO] acknowledged %s event: %s", ev.Kind, ev.ProviderEventID)
	default:
		log.Printf("[INFO] unhandled event type %q acknowledged: %s", ev.ProviderType, ev.ProviderEventID)
	}

	if err := ctl.Gate.MarkProcessed(c.UserContext(), ev.ProviderEventID); err != nil {
		log.Printf("[WARN] mark processed failed: %v", err)
	}
	return helper.JsonOK(c, "received", fiber.Map{"event_id": ev.ProviderEventID, "type": ev.ProviderType})
}

func (ctl *WebhookController) handleCheckoutCompleted(c *fiber.Ctx, ev *dto.WebhookEvent) error {
	checkout := ev.Checkout
	log.Printf("🔔 checkout completed: session=%s booking=%s amount=%d", checkout.SessionID, checkout.BookingID, checkout.AmountTotalCents)

	settled, err := ctl.Settlement.Settle(c.UserContext(), settlementService.SettleInput{
		BookingID:         checkout.BookingID,
		CheckoutSessionID: checkout.SessionID,
		PaymentIntentID:   checkout.PaymentIntentID,
		AmountCents:       checkout.AmountTotalCents,
		Currency:          checkout.Currency,
		CustomerEmail:     checkout.CustomerEmail,
		CustomerName:      checkout.CustomerName,
		CustomerPhone:     checkout.CustomerPhone,
	})
	if err != nil {
		if errors.Is(err, settlementService.ErrBookingNotFound) || errors.Is(err, settlementService.ErrBookingCancelled) {
			// Fatal-for-this-event: a data problem upstream that redelivery
			// cannot fix. Acknowledge so the gateway stops, flag for manual
			// reconciliation.
			log.Printf("[ERROR] ⚠️ RECONCILE booking=%s event=%s: %v", checkout.BookingID, ev.ProviderEventID, err)
			if merr := ctl.Gate.MarkProcessed(c.UserContext(), ev.ProviderEventID); merr != nil {
				log.Printf("[WARN] mark processed failed: %v", merr)
			}
			return helper.JsonOK(c, "processed with warning", fiber.Map{
				"event_id": ev.ProviderEventID,
				"error":    err.Error(),
			})
		}
		// Transient store failure: leave processed=false so the unprocessed
		// row surfaces; still 200 — reprocessing converges via idempotency.
		log.Printf("[ERROR] settlement failed: booking=%s err=%v", checkout.BookingID, err)
		return helper.JsonOK(c, "processed with warning", fiber.Map{
			"event_id": ev.ProviderEventID,
			"error":    err.Error(),
		})
	}

	var attribution *commissionService.AttributionResult
	var attributionErr error
	if checkout.PromoterCode != "" {
		attribution, attributionErr = ctl.Attribution.Attribute(
			c.UserContext(),
			checkout.BookingID,
			checkout.PromoterCode,
			checkout.AmountTotalCents,
			checkout.Currency,
		)
		if attributionErr != nil {
			// Commission bookkeeping broke before anything durable was
			// queued. The confirmation stands regardless, but the event must
			// stay unprocessed so the payout gets another look.
			log.Printf("[ERROR] ⚠️ RECONCILE commission: booking=%s event=%s err=%v",
				checkout.BookingID, ev.ProviderEventID, attributionErr)
		}
	}

	if checkout.CustomerPhone != "" && ctl.Notifier != nil {
		msg := fmt.Sprintf("Sound Factory: your table is confirmed! Door PIN: %s", settled.PinCode)
		if nerr := ctl.Notifier.Send(c.UserContext(), checkout.CustomerPhone, msg); nerr != nil {
			log.Printf("[WARN] confirmation SMS failed (ignored): %v", nerr)
		}
	}

	if attributionErr != nil {
		// Mirror the transient-settlement branch: processed stays false so
		// the event surfaces for reprocessing; still 200, replays converge.
		return helper.JsonOK(c, "processed with warning", fiber.Map{
			"event_id": ev.ProviderEventID,
			"error":    attributionErr.Error(),
		})
	}

	if err := ctl.Gate.MarkProcessed(c.UserContext(), ev.ProviderEventID); err != nil {
		log.Printf("[WARN] mark processed failed: %v", err)
	}

	data := fiber.Map{
		"event_id":   ev.ProviderEventID,
		"booking_id": checkout.BookingID,
		"pin_issued": settled.PinCode != "",
		"replayed":   settled.Replayed,
	}
	if attribution != nil {
		data["commission"] = attribution
	}
	return helper.JsonOK(c, "checkout settled", data)
}
