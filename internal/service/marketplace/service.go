package marketplace

import (
	"context"

	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/ports"
)

// Service loads the marketplace page: one upstream fetch of active
// listings, then client-side filter and sort over the cached page.
type Service struct {
	api   ports.MarketAPI
	limit int
	log   *zap.Logger
}

func NewService(api ports.MarketAPI, limit int, log *zap.Logger) *Service {
	if limit <= 0 {
		limit = 100
	}
	return &Service{api: api, limit: limit, log: log}
}

// LoadPage fetches active listings and applies the filter state. A
// failed fetch renders as an empty marketplace, never an error page.
func (s *Service) LoadPage(ctx context.Context, state FilterState) []domain.Listing {
	listings := s.api.FetchListings(ctx, domain.ListingFilter{
		Status: domain.ListingStatusActive,
		Limit:  s.limit,
	})
	return Filter(listings, state)
}

// Listing fetches a single listing for the edit form, nil when the
// upstream doesn't have it.
func (s *Service) Listing(ctx context.Context, id string) *domain.Listing {
	return s.api.FetchListingByID(ctx, id)
}
