package purchase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/mocks"
	"github.com/sokowatt/sokowatt-web/internal/upstream"
)

func testListing() *domain.Listing {
	return &domain.Listing{
		ID:          "listing-1",
		Title:       "Rooftop solar surplus",
		EnergyType:  domain.EnergyTypeSolar,
		QuantityKWh: 50,
		PricePerKWh: 20,
		Status:      domain.ListingStatusActive,
	}
}

func testSession() *domain.Session {
	return &domain.Session{
		Token: "token-1",
		User:  domain.User{ID: "user-1", Email: "amina@example.com"},
	}
}

func newTestFlow(api *mocks.MockMarketAPI, toaster *mocks.MockToaster) *Flow {
	return NewFlow(api, toaster, 10, "Kes.", zap.NewNop())
}

func TestSelectRequiresLogin(t *testing.T) {
	flow := newTestFlow(mocks.NewMockMarketAPI(), mocks.NewMockToaster())

	if err := flow.Select(testListing(), nil); !errors.Is(err, ErrLoginRequired) {
		t.Errorf("Expected ErrLoginRequired, got %v", err)
	}
	if err := flow.Select(testListing(), &domain.Session{Token: "t"}); !errors.Is(err, ErrLoginRequired) {
		t.Errorf("Expected ErrLoginRequired for partial session, got %v", err)
	}
	if flow.State() != StateIdle {
		t.Errorf("Expected flow to stay idle, got %s", flow.State())
	}
}

func TestSelectSeedsDefaultAmount(t *testing.T) {
	flow := newTestFlow(mocks.NewMockMarketAPI(), mocks.NewMockToaster())

	if err := flow.Select(testListing(), testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if flow.State() != StateListingSelected {
		t.Errorf("Expected listing_selected, got %s", flow.State())
	}
	if flow.Amount() != 10 {
		t.Errorf("Expected seeded amount 10, got %g", flow.Amount())
	}
}

func TestSelectSeedsAvailableQuantityWhenBelowDefault(t *testing.T) {
	flow := newTestFlow(mocks.NewMockMarketAPI(), mocks.NewMockToaster())

	listing := testListing()
	listing.QuantityKWh = 4

	if err := flow.Select(listing, testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if flow.Amount() != 4 {
		t.Errorf("Expected seeded amount 4, got %g", flow.Amount())
	}
}

func TestEnterAmountRejectsOverQuantityWithoutAPICall(t *testing.T) {
	api := mocks.NewMockMarketAPI()
	toaster := mocks.NewMockToaster()
	flow := newTestFlow(api, toaster)

	if err := flow.Select(testListing(), testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := flow.EnterAmount("51"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("Expected ErrInvalidAmount, got %v", err)
	}

	if flow.State() != StateListingSelected {
		t.Errorf("Expected state to stay listing_selected, got %s", flow.State())
	}
	if api.PurchaseCalls != 0 {
		t.Errorf("Expected no API calls, got %d", api.PurchaseCalls)
	}
	toast := toaster.LastShown()
	if toast == nil || toast.Kind != domain.ToastError {
		t.Fatalf("Expected an error toast, got %+v", toast)
	}
	if !strings.Contains(toast.Message, "50") {
		t.Errorf("Expected toast to name the available quantity, got %q", toast.Message)
	}
}

func TestEnterAmountRejectsNonNumericAndNonPositive(t *testing.T) {
	for _, raw := range []string{"abc", "", "-5", "0"} {
		flow := newTestFlow(mocks.NewMockMarketAPI(), mocks.NewMockToaster())
		if err := flow.Select(testListing(), testSession()); err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if err := flow.EnterAmount(raw); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("EnterAmount(%q): expected ErrInvalidAmount, got %v", raw, err)
		}
	}
}

func TestEnterAmountAcceptsValidAmount(t *testing.T) {
	flow := newTestFlow(mocks.NewMockMarketAPI(), mocks.NewMockToaster())

	if err := flow.Select(testListing(), testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := flow.EnterAmount("5"); err != nil {
		t.Fatalf("EnterAmount failed: %v", err)
	}
	if flow.State() != StateAmountEntered {
		t.Errorf("Expected amount_entered, got %s", flow.State())
	}
	if flow.TotalCost() != 100 {
		t.Errorf("Expected total cost 100, got %g", flow.TotalCost())
	}
}

func TestSubmitSuccessClosesModalAndToasts(t *testing.T) {
	api := mocks.NewMockMarketAPI()
	toaster := mocks.NewMockToaster()
	flow := newTestFlow(api, toaster)

	if err := flow.Select(testListing(), testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := flow.EnterAmount("5"); err != nil {
		t.Fatalf("EnterAmount failed: %v", err)
	}

	tx, err := flow.Submit(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if tx == nil || tx.KWh != 5 {
		t.Fatalf("Expected 5 kWh transaction, got %+v", tx)
	}

	if flow.State() != StateIdle {
		t.Errorf("Expected flow to reset to idle, got %s", flow.State())
	}
	if flow.Listing() != nil {
		t.Error("Expected listing to be cleared after success")
	}

	toast := toaster.LastShown()
	if toast == nil || toast.Kind != domain.ToastSuccess {
		t.Fatalf("Expected a success toast, got %+v", toast)
	}
	want := "Purchased 5 kWh for Kes. 100.00"
	if toast.Message != want {
		t.Errorf("Expected toast %q, got %q", want, toast.Message)
	}
}

func TestSubmitFailureReturnsToAmountEntered(t *testing.T) {
	api := mocks.NewMockMarketAPI()
	api.CreatePurchaseFunc = func(ctx context.Context, token, listingID string, kwh float64) (*domain.Transaction, error) {
		return nil, &upstream.HTTPError{StatusCode: 409, Message: "Listing no longer available"}
	}
	toaster := mocks.NewMockToaster()
	flow := newTestFlow(api, toaster)

	if err := flow.Select(testListing(), testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := flow.EnterAmount("5"); err != nil {
		t.Fatalf("EnterAmount failed: %v", err)
	}

	if _, err := flow.Submit(context.Background(), "token-1"); err == nil {
		t.Fatal("Expected Submit to fail")
	}

	if flow.State() != StateAmountEntered {
		t.Errorf("Expected flow to return to amount_entered for retry, got %s", flow.State())
	}
	if flow.Amount() != 5 {
		t.Errorf("Expected amount preserved for retry, got %g", flow.Amount())
	}
	toast := toaster.LastShown()
	if toast == nil || toast.Kind != domain.ToastError {
		t.Fatalf("Expected an error toast, got %+v", toast)
	}
}

func TestSubmitRejectsSecondInFlightSubmission(t *testing.T) {
	api := mocks.NewMockMarketAPI()
	release := make(chan struct{})
	started := make(chan struct{})
	api.CreatePurchaseFunc = func(ctx context.Context, token, listingID string, kwh float64) (*domain.Transaction, error) {
		close(started)
		<-release
		return &domain.Transaction{ListingID: listingID, KWh: kwh}, nil
	}
	flow := newTestFlow(api, mocks.NewMockToaster())

	if err := flow.Select(testListing(), testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := flow.EnterAmount("5"); err != nil {
		t.Fatalf("EnterAmount failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := flow.Submit(context.Background(), "token-1")
		done <- err
	}()

	<-started
	if flow.State() != StateSubmitting {
		t.Errorf("Expected submitting state, got %s", flow.State())
	}
	if _, err := flow.Submit(context.Background(), "token-1"); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("Expected ErrSubmitInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("First submission failed: %v", err)
	}
	if api.PurchaseCalls != 1 {
		t.Errorf("Expected exactly one upstream call, got %d", api.PurchaseCalls)
	}
}

func TestSubmitWithoutSelectionFails(t *testing.T) {
	flow := newTestFlow(mocks.NewMockMarketAPI(), mocks.NewMockToaster())
	if _, err := flow.Submit(context.Background(), "token-1"); !errors.Is(err, ErrNoListing) {
		t.Errorf("Expected ErrNoListing, got %v", err)
	}
}

func TestCancelResetsFlow(t *testing.T) {
	flow := newTestFlow(mocks.NewMockMarketAPI(), mocks.NewMockToaster())

	if err := flow.Select(testListing(), testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	flow.Cancel()

	if flow.State() != StateIdle {
		t.Errorf("Expected idle after cancel, got %s", flow.State())
	}
	if flow.Listing() != nil {
		t.Error("Expected listing cleared after cancel")
	}
}

func TestRegistryIsolatesFlowsPerSession(t *testing.T) {
	reg := NewRegistry(mocks.NewMockMarketAPI(), mocks.NewMockToaster(), 10, "Kes.", zap.NewNop())

	a := reg.Get("sid-a")
	b := reg.Get("sid-b")
	if a == b {
		t.Fatal("Expected distinct flows per session")
	}
	if reg.Get("sid-a") != a {
		t.Error("Expected the same flow on repeat lookup")
	}

	if err := a.Select(testListing(), testSession()); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if b.State() != StateIdle {
		t.Errorf("Expected flow b untouched, got %s", b.State())
	}

	reg.Drop("sid-a")
	if reg.Get("sid-a") == a {
		t.Error("Expected Drop to discard the flow")
	}
}
