package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/adapter/http/fiber/middleware"
	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/ports"
)

// ProfileHandler renders the signed-in user's history page. Behind
// LoginRequired; the history reads are fail-soft so the page renders
// even when the upstream is down.
type ProfileHandler struct {
	api     ports.MarketAPI
	toaster ports.Toaster
	log     *zap.Logger
}

func NewProfileHandler(api ports.MarketAPI, toaster ports.Toaster, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{api: api, toaster: toaster, log: log}
}

func (h *ProfileHandler) Show(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	ctx := c.Context()

	purchases, err := h.api.FetchMyPurchases(ctx, sess.Token)
	if err != nil {
		h.log.Warn("Failed to load purchases", zap.Error(err))
	}
	summary, err := h.api.FetchMyPurchaseSummary(ctx, sess.Token)
	if err != nil {
		h.log.Warn("Failed to load purchase summary", zap.Error(err))
	}

	binding := fiber.Map{
		"Purchases":       purchases,
		"PurchaseSummary": summary,
		"IsSupplier":      sess.User.Role == domain.UserRoleSupplier,
	}

	if sess.User.Role == domain.UserRoleSupplier {
		sales, err := h.api.FetchMySales(ctx, sess.Token)
		if err != nil {
			h.log.Warn("Failed to load sales", zap.Error(err))
		}
		salesSummary, err := h.api.FetchMySalesSummary(ctx, sess.Token)
		if err != nil {
			h.log.Warn("Failed to load sales summary", zap.Error(err))
		}
		binding["Sales"] = sales
		binding["SalesSummary"] = salesSummary
	}

	return c.Render("profile", baseBinding(c, h.toaster, binding))
}
