package middlewares

import (
	"github.com/gofiber/fiber/v2"
)

// SetupMiddlewares wires the app-wide middleware chain. Rate limiters are
// attached per group in the routes (the webhook surface needs a looser cap
// than the operator surface).
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
}
