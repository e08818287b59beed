package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/adapter/http/fiber/middleware"
	"github.com/sokowatt/sokowatt-web/internal/ports"
)

// baseBinding assembles the state every page shares: the current
// session (for the navigation bar) and the active toasts.
func baseBinding(c *fiber.Ctx, toaster ports.Toaster, extra fiber.Map) fiber.Map {
	binding := fiber.Map{
		"Session": middleware.SessionFrom(c),
		"Toasts":  toaster.Active(),
	}
	for k, v := range extra {
		binding[k] = v
	}
	return binding
}

// PageHandler serves the static home page and the dashboard.
type PageHandler struct {
	api     ports.MarketAPI
	toaster ports.Toaster
	log     *zap.Logger
}

func NewPageHandler(api ports.MarketAPI, toaster ports.Toaster, log *zap.Logger) *PageHandler {
	return &PageHandler{api: api, toaster: toaster, log: log}
}

func (h *PageHandler) Home(c *fiber.Ctx) error {
	return c.Render("home", baseBinding(c, h.toaster, nil))
}

// Dashboard renders canned metrics and predictions. Both reads are
// fail-soft, so a dead upstream still renders a page.
func (h *PageHandler) Dashboard(c *fiber.Ctx) error {
	metrics := h.api.FetchDashboardMetrics(c.Context())
	predictions := h.api.FetchPerformancePredictions(c.Context())

	return c.Render("dashboard", baseBinding(c, h.toaster, fiber.Map{
		"Metrics":     metrics,
		"Predictions": predictions,
	}))
}
