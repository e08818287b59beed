package mocks

import (
	"context"

	"github.com/sokowatt/sokowatt-web/internal/domain"
)

// MockMarketAPI is a mock implementation of ports.MarketAPI. Methods
// without an override return empty defaults, matching the fail-soft
// behavior of the real client.
type MockMarketAPI struct {
	FetchListingsFunc               func(ctx context.Context, filter domain.ListingFilter) []domain.Listing
	FetchListingByIDFunc            func(ctx context.Context, id string) *domain.Listing
	FetchDashboardMetricsFunc       func(ctx context.Context) *domain.DashboardMetrics
	FetchPerformancePredictionsFunc func(ctx context.Context) []domain.PerformancePrediction
	FetchMyPurchasesFunc            func(ctx context.Context, token string) ([]domain.Transaction, error)
	FetchMyPurchaseSummaryFunc      func(ctx context.Context, token string) (*domain.PurchaseSummary, error)
	FetchMySalesFunc                func(ctx context.Context, token string) ([]domain.Transaction, error)
	FetchMySalesSummaryFunc         func(ctx context.Context, token string) (*domain.PurchaseSummary, error)
	CreateListingFunc               func(ctx context.Context, token string, draft domain.ListingDraft) (*domain.Listing, error)
	UpdateListingFunc               func(ctx context.Context, token, id string, draft domain.ListingDraft) (*domain.Listing, error)
	DeleteListingFunc               func(ctx context.Context, token, id string) error
	CreatePurchaseFunc              func(ctx context.Context, token, listingID string, kwh float64) (*domain.Transaction, error)
	LoginFunc                       func(ctx context.Context, email, password string) (*domain.Session, error)
	RegisterFunc                    func(ctx context.Context, reg domain.Registration) (*domain.Session, error)

	// PurchaseCalls counts CreatePurchase invocations so tests can
	// assert that rejected amounts never reach the network.
	PurchaseCalls int
}

func NewMockMarketAPI() *MockMarketAPI {
	return &MockMarketAPI{}
}

func (m *MockMarketAPI) FetchListings(ctx context.Context, filter domain.ListingFilter) []domain.Listing {
	if m.FetchListingsFunc != nil {
		return m.FetchListingsFunc(ctx, filter)
	}
	return nil
}

func (m *MockMarketAPI) FetchListingByID(ctx context.Context, id string) *domain.Listing {
	if m.FetchListingByIDFunc != nil {
		return m.FetchListingByIDFunc(ctx, id)
	}
	return nil
}

func (m *MockMarketAPI) FetchDashboardMetrics(ctx context.Context) *domain.DashboardMetrics {
	if m.FetchDashboardMetricsFunc != nil {
		return m.FetchDashboardMetricsFunc(ctx)
	}
	return nil
}

func (m *MockMarketAPI) FetchPerformancePredictions(ctx context.Context) []domain.PerformancePrediction {
	if m.FetchPerformancePredictionsFunc != nil {
		return m.FetchPerformancePredictionsFunc(ctx)
	}
	return nil
}

func (m *MockMarketAPI) FetchMyPurchases(ctx context.Context, token string) ([]domain.Transaction, error) {
	if m.FetchMyPurchasesFunc != nil {
		return m.FetchMyPurchasesFunc(ctx, token)
	}
	return nil, nil
}

func (m *MockMarketAPI) FetchMyPurchaseSummary(ctx context.Context, token string) (*domain.PurchaseSummary, error) {
	if m.FetchMyPurchaseSummaryFunc != nil {
		return m.FetchMyPurchaseSummaryFunc(ctx, token)
	}
	return &domain.PurchaseSummary{}, nil
}

func (m *MockMarketAPI) FetchMySales(ctx context.Context, token string) ([]domain.Transaction, error) {
	if m.FetchMySalesFunc != nil {
		return m.FetchMySalesFunc(ctx, token)
	}
	return nil, nil
}

func (m *MockMarketAPI) FetchMySalesSummary(ctx context.Context, token string) (*domain.PurchaseSummary, error) {
	if m.FetchMySalesSummaryFunc != nil {
		return m.FetchMySalesSummaryFunc(ctx, token)
	}
	return &domain.PurchaseSummary{}, nil
}

func (m *MockMarketAPI) CreateListing(ctx context.Context, token string, draft domain.ListingDraft) (*domain.Listing, error) {
	if m.CreateListingFunc != nil {
		return m.CreateListingFunc(ctx, token, draft)
	}
	return &domain.Listing{}, nil
}

func (m *MockMarketAPI) UpdateListing(ctx context.Context, token, id string, draft domain.ListingDraft) (*domain.Listing, error) {
	if m.UpdateListingFunc != nil {
		return m.UpdateListingFunc(ctx, token, id, draft)
	}
	return &domain.Listing{}, nil
}

func (m *MockMarketAPI) DeleteListing(ctx context.Context, token, id string) error {
	if m.DeleteListingFunc != nil {
		return m.DeleteListingFunc(ctx, token, id)
	}
	return nil
}

func (m *MockMarketAPI) CreatePurchase(ctx context.Context, token, listingID string, kwh float64) (*domain.Transaction, error) {
	m.PurchaseCalls++
	if m.CreatePurchaseFunc != nil {
		return m.CreatePurchaseFunc(ctx, token, listingID, kwh)
	}
	return &domain.Transaction{ListingID: listingID, KWh: kwh}, nil
}

func (m *MockMarketAPI) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, nil
}

func (m *MockMarketAPI) Register(ctx context.Context, reg domain.Registration) (*domain.Session, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, reg)
	}
	return nil, nil
}
