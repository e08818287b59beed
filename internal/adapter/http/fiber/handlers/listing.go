package handlers

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/adapter/http/fiber/middleware"
	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/ports"
	"github.com/sokowatt/sokowatt-web/internal/service/marketplace"
	"github.com/sokowatt/sokowatt-web/internal/session"
	"github.com/sokowatt/sokowatt-web/internal/upstream"
)

// ListingHandler serves the supplier's create/edit/delete listing forms.
// All routes behind LoginRequired.
type ListingHandler struct {
	api      ports.MarketAPI
	service  *marketplace.Service
	sessions *session.Manager
	toaster  ports.Toaster
	log      *zap.Logger
}

func NewListingHandler(api ports.MarketAPI, service *marketplace.Service, sessions *session.Manager, toaster ports.Toaster, log *zap.Logger) *ListingHandler {
	return &ListingHandler{api: api, service: service, sessions: sessions, toaster: toaster, log: log}
}

func (h *ListingHandler) NewForm(c *fiber.Ctx) error {
	return c.Render("listing_form", baseBinding(c, h.toaster, fiber.Map{
		"Action":      "/listings",
		"EnergyTypes": domain.EnergyTypes,
	}))
}

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	draft, formErr := parseListingForm(c)
	if formErr != "" {
		return h.formError(c, "/listings", nil, draft, formErr)
	}

	sess := middleware.SessionFrom(c)
	created, err := h.api.CreateListing(c.Context(), sess.Token, draft)
	if err != nil {
		return h.writeFailed(c, "/listings", nil, draft, err)
	}

	h.toaster.Show("Listing published: "+created.Title, domain.ToastSuccess)
	return c.Redirect("/marketplace", fiber.StatusSeeOther)
}

func (h *ListingHandler) EditForm(c *fiber.Ctx) error {
	listing := h.service.Listing(c.Context(), c.Params("id"))
	if listing == nil {
		return fiber.NewError(fiber.StatusNotFound, "Listing not found")
	}
	return c.Render("listing_form", baseBinding(c, h.toaster, fiber.Map{
		"Action":      "/listings/" + listing.ID,
		"Listing":     listing,
		"EnergyTypes": domain.EnergyTypes,
	}))
}

func (h *ListingHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	listing := h.service.Listing(c.Context(), id)
	if listing == nil {
		return fiber.NewError(fiber.StatusNotFound, "Listing not found")
	}

	draft, formErr := parseListingForm(c)
	if formErr != "" {
		return h.formError(c, "/listings/"+id, listing, draft, formErr)
	}

	sess := middleware.SessionFrom(c)
	updated, err := h.api.UpdateListing(c.Context(), sess.Token, id, draft)
	if err != nil {
		return h.writeFailed(c, "/listings/"+id, listing, draft, err)
	}

	h.toaster.Show("Listing updated: "+updated.Title, domain.ToastSuccess)
	return c.Redirect("/marketplace", fiber.StatusSeeOther)
}

func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	if err := h.api.DeleteListing(c.Context(), sess.Token, c.Params("id")); err != nil {
		if upstream.IsAuthFailure(err) {
			h.sessions.Terminate(c.Context(), middleware.SIDFrom(c))
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		h.toaster.Show(err.Error(), domain.ToastError)
		return c.Redirect("/marketplace", fiber.StatusSeeOther)
	}

	h.toaster.Show("Listing deleted", domain.ToastSuccess)
	return c.Redirect("/marketplace", fiber.StatusSeeOther)
}

// writeFailed handles a fail-loud upstream error on a listing write.
// 401/422 means the stored token is dead: clear the session and start
// over at login. Anything else re-renders the form with the server's
// message.
func (h *ListingHandler) writeFailed(c *fiber.Ctx, action string, listing *domain.Listing, draft domain.ListingDraft, err error) error {
	if upstream.IsAuthFailure(err) {
		h.sessions.Terminate(c.Context(), middleware.SIDFrom(c))
		return c.Redirect("/login?next="+action, fiber.StatusSeeOther)
	}
	h.log.Warn("Listing write failed", zap.String("action", action), zap.Error(err))
	return h.formError(c, action, listing, draft, err.Error())
}

func (h *ListingHandler) formError(c *fiber.Ctx, action string, listing *domain.Listing, draft domain.ListingDraft, message string) error {
	// Re-render with the submitted values so the supplier doesn't
	// retype the whole form.
	display := &domain.Listing{
		Title:       draft.Title,
		EnergyType:  draft.EnergyType,
		QuantityKWh: draft.QuantityKWh,
		PricePerKWh: draft.PricePerKWh,
		Location:    draft.Location,
		Status:      draft.Status,
	}
	if listing != nil {
		display.ID = listing.ID
	}
	return c.Status(fiber.StatusUnprocessableEntity).Render("listing_form", baseBinding(c, h.toaster, fiber.Map{
		"Action":      action,
		"Listing":     display,
		"EnergyTypes": domain.EnergyTypes,
		"Error":       message,
	}))
}

func parseListingForm(c *fiber.Ctx) (domain.ListingDraft, string) {
	draft := domain.ListingDraft{
		Title:      c.FormValue("title"),
		EnergyType: domain.EnergyType(c.FormValue("energy_type")),
		Location:   c.FormValue("location"),
		Status:     domain.ListingStatus(c.FormValue("status", string(domain.ListingStatusActive))),
	}

	if draft.Title == "" || draft.Location == "" {
		return draft, "Title and location are required"
	}
	if !draft.EnergyType.Valid() {
		return draft, "Choose a valid energy type"
	}

	quantity, err := strconv.ParseFloat(c.FormValue("quantity"), 64)
	if err != nil || quantity <= 0 {
		return draft, "Quantity must be a positive number of kWh"
	}
	draft.QuantityKWh = quantity

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price <= 0 {
		return draft, "Price must be a positive amount per kWh"
	}
	draft.PricePerKWh = price

	if file, err := c.FormFile("image"); err == nil && file != nil && file.Size > 0 {
		f, err := file.Open()
		if err != nil {
			return draft, "Could not read the uploaded image"
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return draft, "Could not read the uploaded image"
		}
		draft.Image = data
		draft.ImageName = file.Filename
	}

	return draft, ""
}
