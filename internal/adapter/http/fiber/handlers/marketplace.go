package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/ports"
	"github.com/sokowatt/sokowatt-web/internal/service/marketplace"
)

type MarketplaceHandler struct {
	service *marketplace.Service
	toaster ports.Toaster
	log     *zap.Logger
}

func NewMarketplaceHandler(service *marketplace.Service, toaster ports.Toaster, log *zap.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{service: service, toaster: toaster, log: log}
}

// Browse renders the listings page with the q/type/sort filters applied.
func (h *MarketplaceHandler) Browse(c *fiber.Ctx) error {
	state := marketplace.FilterState{
		SearchQuery: c.Query("q"),
		EnergyType:  domain.EnergyType(c.Query("type")),
		SortBy:      c.Query("sort", marketplace.SortByNewest),
	}
	listings := h.service.LoadPage(c.Context(), state)

	return c.Render("marketplace", baseBinding(c, h.toaster, fiber.Map{
		"Listings":     listings,
		"EnergyTypes":  domain.EnergyTypes,
		"Query":        state.SearchQuery,
		"SelectedType": string(state.EnergyType),
		"SortBy":       state.SortBy,
	}))
}
