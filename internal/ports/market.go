package ports

import (
	"context"

	"github.com/sokowatt/sokowatt-web/internal/domain"
)

// MarketAPI is the upstream marketplace REST API as consumed by the UI
// layer. Read methods are fail-soft: they log and return an empty
// default instead of an error. Write methods are fail-loud and return
// the typed errors from internal/upstream.
type MarketAPI interface {
	// Fail-soft reads.
	FetchListings(ctx context.Context, filter domain.ListingFilter) []domain.Listing
	FetchListingByID(ctx context.Context, id string) *domain.Listing
	FetchDashboardMetrics(ctx context.Context) *domain.DashboardMetrics
	FetchPerformancePredictions(ctx context.Context) []domain.PerformancePrediction

	// Authenticated reads: loud when the token is missing, soft past that.
	FetchMyPurchases(ctx context.Context, token string) ([]domain.Transaction, error)
	FetchMyPurchaseSummary(ctx context.Context, token string) (*domain.PurchaseSummary, error)
	FetchMySales(ctx context.Context, token string) ([]domain.Transaction, error)
	FetchMySalesSummary(ctx context.Context, token string) (*domain.PurchaseSummary, error)

	// Fail-loud writes.
	CreateListing(ctx context.Context, token string, draft domain.ListingDraft) (*domain.Listing, error)
	UpdateListing(ctx context.Context, token, id string, draft domain.ListingDraft) (*domain.Listing, error)
	DeleteListing(ctx context.Context, token, id string) error
	CreatePurchase(ctx context.Context, token, listingID string, kwh float64) (*domain.Transaction, error)

	// Auth.
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.Session, error)
}
