package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/pkg/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(
		config.UpstreamConfig{BaseURL: baseURL, APIKey: "test-key"},
		http.DefaultClient,
		zap.NewNop(),
	)
}

func TestFetchListingsDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listings/" {
			t.Errorf("Expected /listings/, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "active" {
			t.Errorf("Expected status=active, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Errorf("Expected limit=100, got %q", got)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("Expected API key header, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "1", "title": "Rooftop solar", "energy_type": "Solar", "quantity": 50, "price": 18.5},
			},
		})
	}))
	defer server.Close()

	listings := newTestClient(server.URL).FetchListings(context.Background(), domain.ListingFilter{
		Status: domain.ListingStatusActive,
		Limit:  100,
	})

	if len(listings) != 1 {
		t.Fatalf("Expected 1 listing, got %d", len(listings))
	}
	if listings[0].Title != "Rooftop solar" || listings[0].QuantityKWh != 50 {
		t.Errorf("Unexpected listing: %+v", listings[0])
	}
}

func TestFetchListingsFailsSoft(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			listings := newTestClient(server.URL).FetchListings(context.Background(), domain.ListingFilter{})
			if listings == nil || len(listings) != 0 {
				t.Errorf("Expected empty non-nil slice, got %v", listings)
			}
		})
	}
}

func TestFetchListingsFailsSoftOnConnectionRefused(t *testing.T) {
	// Point at a closed port.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	listings := newTestClient(server.URL).FetchListings(context.Background(), domain.ListingFilter{})
	if len(listings) != 0 {
		t.Errorf("Expected empty slice on connection failure, got %v", listings)
	}
}

func TestFetchListingByIDReturnsNilOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Listing not found"})
	}))
	defer server.Close()

	if got := newTestClient(server.URL).FetchListingByID(context.Background(), "nope"); got != nil {
		t.Errorf("Expected nil listing, got %+v", got)
	}
}

func TestAuthenticatedReadsRequireToken(t *testing.T) {
	// No server: a missing token must fail before any request is made.
	client := newTestClient("http://127.0.0.1:0")
	ctx := context.Background()

	if _, err := client.FetchMyPurchases(ctx, ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("FetchMyPurchases: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := client.FetchMyPurchaseSummary(ctx, ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("FetchMyPurchaseSummary: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := client.CreatePurchase(ctx, "", "listing-1", 5); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("CreatePurchase: expected ErrNotAuthenticated, got %v", err)
	}
	if err := client.DeleteListing(ctx, "", "listing-1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("DeleteListing: expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCreatePurchaseSendsBearerAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if body["listing_id"] != "listing-1" || body["kwh"] != 5.0 {
			t.Errorf("Unexpected body: %v", body)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Transaction{ID: "tx-1", ListingID: "listing-1", KWh: 5, TotalCost: 100})
	}))
	defer server.Close()

	tx, err := newTestClient(server.URL).CreatePurchase(context.Background(), "token-1", "listing-1", 5)
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}
	if tx.ID != "tx-1" || tx.TotalCost != 100 {
		t.Errorf("Unexpected transaction: %+v", tx)
	}
}

func TestWriteErrorsCarryServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "Requested amount exceeds available quantity"})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreatePurchase(context.Background(), "token-1", "listing-1", 999)
	if err == nil {
		t.Fatal("Expected error")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", httpErr.StatusCode)
	}
	if httpErr.Message != "Requested amount exceeds available quantity" {
		t.Errorf("Expected server message, got %q", httpErr.Message)
	}
	if !IsAuthFailure(err) {
		t.Error("Expected 422 to count as auth failure")
	}
}

func TestWriteErrorsFallBackToErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad payload"})
	}))
	defer server.Close()

	err := newTestClient(server.URL).DeleteListing(context.Background(), "token-1", "listing-1")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Message != "bad payload" {
		t.Errorf("Expected message from error field, got %v", err)
	}
	if IsAuthFailure(err) {
		t.Error("400 must not count as auth failure")
	}
}

func TestCreateListingWithImageUsesMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Expected multipart request: %v", err)
		}
		if got := r.FormValue("title"); got != "Solar farm offtake" {
			t.Errorf("Expected title field, got %q", got)
		}
		if got := r.FormValue("quantity"); got != "120" {
			t.Errorf("Expected quantity field, got %q", got)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("Expected image part: %v", err)
		}
		defer file.Close()
		if header.Filename != "panel.jpg" {
			t.Errorf("Expected image filename, got %q", header.Filename)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Listing{ID: "new-1", Title: "Solar farm offtake"})
	}))
	defer server.Close()

	listing, err := newTestClient(server.URL).CreateListing(context.Background(), "token-1", domain.ListingDraft{
		Title:       "Solar farm offtake",
		EnergyType:  domain.EnergyTypeSolar,
		QuantityKWh: 120,
		PricePerKWh: 9.75,
		Location:    "Nakuru",
		Status:      domain.ListingStatusActive,
		Image:       []byte{0xff, 0xd8, 0xff},
		ImageName:   "panel.jpg",
	})
	if err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}
	if listing.ID != "new-1" {
		t.Errorf("Unexpected listing: %+v", listing)
	}
}

func TestCreateListingWithoutImageUsesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Expected JSON content type, got %q", got)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["energyType"] != "Wind" {
			t.Errorf("Unexpected body: %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Listing{ID: "new-2"})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateListing(context.Background(), "token-1", domain.ListingDraft{
		Title:      "Community wind co-op",
		EnergyType: domain.EnergyTypeWind,
		Status:     domain.ListingStatusActive,
	})
	if err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}
}

func TestLoginDecodesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "amina@example.com" || body["password"] != "secret" {
			t.Errorf("Unexpected credentials: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-1",
			"user":         domain.User{ID: "user-1", Email: "amina@example.com", Role: domain.UserRoleConsumer},
		})
	}))
	defer server.Close()

	sess, err := newTestClient(server.URL).Login(context.Background(), "amina@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !sess.Valid() {
		t.Fatalf("Expected valid session, got %+v", sess)
	}
	if sess.Token != "token-1" || sess.User.ID != "user-1" {
		t.Errorf("Unexpected session: %+v", sess)
	}
}

func TestLoginRejectsIncompleteAuthResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "token-1"})
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Login(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatal("Expected incomplete auth response to be rejected")
	}
}

func TestLoginSurfaces401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Login(context.Background(), "a@b.c", "wrong")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 HTTPError, got %v", err)
	}
	if httpErr.Error() != "Invalid credentials" {
		t.Errorf("Expected server message, got %q", httpErr.Error())
	}
}

func TestNetworkErrorUnwraps(t *testing.T) {
	inner := errors.New("dial refused")
	err := &NetworkError{Op: "fetch_listings", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("Expected NetworkError to unwrap its cause")
	}
	if IsAuthFailure(err) {
		t.Error("Network errors must not count as auth failures")
	}
}
