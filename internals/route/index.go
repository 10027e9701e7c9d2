// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"soundfactory_backend/internals/configs"
	smsService "soundfactory_backend/internals/features/notifications/sms/service"
	commissionController "soundfactory_backend/internals/features/payment/commissions/controller"
	commissionRoute "soundfactory_backend/internals/features/payment/commissions/route"
	commissionService "soundfactory_backend/internals/features/payment/commissions/service"
	settlementService "soundfactory_backend/internals/features/payment/settlement/service"
	webhookController "soundfactory_backend/internals/features/payment/webhooks/controller"
	webhookRoute "soundfactory_backend/internals/features/payment/webhooks/route"
	webhookService "soundfactory_backend/internals/features/payment/webhooks/service"
	middlewares "soundfactory_backend/internals/middlewares"
	authMiddleware "soundfactory_backend/internals/middlewares/auth"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== SERVICES =====================
	transfers := commissionService.NewStripeTransferClient(configs.StripeSecretKey, 15*time.Second)
	attribution := commissionService.NewAttributionService(db, transfers)
	retry := commissionService.NewRetryService(db, attribution, commissionService.DefaultRetryConfig())
	settlement := settlementService.NewSettlementService(db)
	gate := webhookService.NewIdempotencyGate(db)

	var notifier smsService.Notifier
	if sid := configs.GetEnv("TWILIO_ACCOUNT_SID"); sid != "" {
		notifier = smsService.NewTwilioNotifier(
			sid,
			configs.GetEnv("TWILIO_AUTH_TOKEN"),
			configs.GetEnv("TWILIO_FROM_NUMBER"),
		)
	} else {
		log.Println("[WARN] Twilio not configured — confirmation SMS goes to the log only")
		notifier = smsService.NewConsoleNotifier()
	}

	// ===================== PUBLIC (gateway callbacks) =====================
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public", middlewares.WebhookRateLimiter())

	whCtl := webhookController.NewWebhookController(
		db,
		webhookController.WebhookConfig{SigningSecret: configs.StripeWebhookSecret},
		gate,
		settlement,
		attribution,
		notifier,
	)
	webhookRoute.WebhookRoutes(public, whCtl)

	// ===================== ADMIN (operator surface) =====================
	log.Println("[INFO] Setting up ADMIN group (auth + rate limit)...")
	admin := app.Group("/api/a",
		middlewares.AdminRateLimiter(),
		authMiddleware.AdminAuth(authMiddleware.AdminAuthOpts{
			JWTSecret:      configs.JWTSecret,
			RetryJobSecret: configs.RetryJobSecret,
		}),
	)

	adminCtl := commissionController.NewCommissionAdminController(db, retry)
	commissionRoute.AdminRoutes(admin, adminCtl)
}
