package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/adapter/http/fiber/middleware"
	"github.com/sokowatt/sokowatt-web/internal/ports"
	"github.com/sokowatt/sokowatt-web/internal/service/marketplace"
	"github.com/sokowatt/sokowatt-web/internal/service/purchase"
	"github.com/sokowatt/sokowatt-web/internal/session"
	"github.com/sokowatt/sokowatt-web/internal/upstream"
)

// PurchaseHandler backs the marketplace purchase modal. The modal
// talks JSON over fetch; every response here is JSON.
type PurchaseHandler struct {
	flows    *purchase.Registry
	service  *marketplace.Service
	sessions *session.Manager
	toaster  ports.Toaster
	log      *zap.Logger
}

func NewPurchaseHandler(flows *purchase.Registry, service *marketplace.Service, sessions *session.Manager, toaster ports.Toaster, log *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{flows: flows, service: service, sessions: sessions, toaster: toaster, log: log}
}

type selectRequest struct {
	ListingID string `json:"listing_id"`
}

type purchaseRequest struct {
	ListingID string `json:"listing_id"`
	KWh       string `json:"kwh"`
}

// Select opens the modal: Idle -> ListingSelected. Without a session
// the browser is sent to login instead.
func (h *PurchaseHandler) Select(c *fiber.Ctx) error {
	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	listing := h.service.Listing(c.Context(), req.ListingID)
	if listing == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Listing not found"})
	}

	flow := h.flows.Get(middleware.SIDFrom(c))
	if err := flow.Select(listing, middleware.SessionFrom(c)); err != nil {
		if errors.Is(err, purchase.ErrLoginRequired) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"state":  flow.State(),
		"amount": flow.Amount(),
		"total":  flow.TotalCost(),
	})
}

// Submit drives ListingSelected/AmountEntered -> Submitting and
// reports the outcome. Validation failures never reach the upstream.
func (h *PurchaseHandler) Submit(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	sess := middleware.SessionFrom(c)
	if sess == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	flow := h.flows.Get(middleware.SIDFrom(c))
	if err := flow.EnterAmount(req.KWh); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	tx, err := flow.Submit(c.Context(), sess.Token)
	if err != nil {
		switch {
		case upstream.IsAuthFailure(err):
			h.sessions.Terminate(c.Context(), middleware.SIDFrom(c))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired, please log in again"})
		case errors.Is(err, purchase.ErrSubmitInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.JSON(tx)
}

// Cancel resets the modal to Idle (cancel button or backdrop click).
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	h.flows.Get(middleware.SIDFrom(c)).Cancel()
	return c.SendStatus(fiber.StatusNoContent)
}

// DismissToast handles the manual dismissal click on a toast.
func (h *PurchaseHandler) DismissToast(c *fiber.Ctx) error {
	h.toaster.Dismiss(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}
