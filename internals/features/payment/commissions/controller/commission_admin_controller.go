// file: internals/features/payment/commissions/controller/commission_admin_controller.go
package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"soundfactory_backend/internals/features/payment/commissions/model"
	"soundfactory_backend/internals/features/payment/commissions/service"
	helper "soundfactory_backend/internals/helpers"
)

/* =======================================================================
   Controller (operator surface)
======================================================================= */

type CommissionAdminController struct {
	DB    *gorm.DB
	Retry *service.RetryService
}

func NewCommissionAdminController(db *gorm.DB, retry *service.RetryService) *CommissionAdminController {
	return &CommissionAdminController{DB: db, Retry: retry}
}

func (h *CommissionAdminController) RegisterRoutes(r fiber.Router) {
	gr := r.Group("/commissions")
	gr.Post("/retry-pass", h.RunRetryPass)          // POST /commissions/retry-pass  (cron / manual)
	gr.Get("/pending", h.ListPending)               // GET  /commissions/pending?status=&page=&limit=
	gr.Get("/exhausted-count", h.GetExhaustedCount) // GET  /commissions/exhausted-count
}

/* =======================================================================
   Retry pass trigger — idempotent, safely re-enterable; all state is in
   pending_commissions, so overlapping invocations converge.
======================================================================= */

func (h *CommissionAdminController) RunRetryPass(c *fiber.Ctx) error {
	summary, err := h.Retry.RunPass(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "retry pass completed", summary)
}

/* =======================================================================
   Pending queue listing (filter + pagination)
======================================================================= */

func (h *CommissionAdminController) ListPending(c *fiber.Ctx) error {
	db := h.DB.WithContext(c.UserContext()).Model(&model.PendingCommissionModel{})

	if s := strings.TrimSpace(c.Query("status")); s != "" {
		db = db.Where("pending_commission_status = ?", strings.ToLower(s))
	} else {
		db = db.Where("pending_commission_status = ?", model.PendingCommissionStatusPending)
	}
	if code := strings.TrimSpace(c.Query("promoter_code")); code != "" {
		db = db.Where("pending_commission_promoter_code = ?", code)
	}

	page := clampInt(queryInt(c, "page", 1), 1, 1_000_000)
	limit := clampInt(queryInt(c, "limit", 20), 1, 200)
	offset := (page - 1) * limit

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var rows []model.PendingCommissionModel
	if err := db.Order("pending_commission_created_at ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return helper.JsonList(c, "pending commissions", rows, page, limit, total)
}

/* =======================================================================
   Exhausted rows — hit the retry cap, waiting on an operator
======================================================================= */

func (h *CommissionAdminController) GetExhaustedCount(c *fiber.Ctx) error {
	n, err := h.Retry.ExhaustedCount(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "exhausted pending commissions", fiber.Map{"count": n})
}

/* =======================================================================
   Helpers
======================================================================= */

func queryInt(c *fiber.Ctx, key string, def int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
