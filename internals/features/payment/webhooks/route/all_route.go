// file: internals/features/payment/webhooks/route/all_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"soundfactory_backend/internals/features/payment/webhooks/controller"
)

// WebhookRoutes mounts the public gateway callback surface.
func WebhookRoutes(r fiber.Router, ctl *controller.WebhookController) {
	gr := r.Group("/payments")
	gr.Get("/webhook", ctl.StripeWebhookPing)     // gateway console test button
	gr.Post("/webhook", ctl.HandleStripeWebhook)  // signed event deliveries
}
