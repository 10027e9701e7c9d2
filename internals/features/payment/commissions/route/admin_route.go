// file: internals/features/payment/commissions/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"soundfactory_backend/internals/features/payment/commissions/controller"
)

// AdminRoutes mounts the operator surface (retry trigger + queue visibility).
// Callers attach auth middleware on the parent group.
func AdminRoutes(r fiber.Router, ctl *controller.CommissionAdminController) {
	ctl.RegisterRoutes(r)
}
