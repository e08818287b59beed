package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/observability/telemetry"
	"github.com/sokowatt/sokowatt-web/internal/ports"
	"github.com/sokowatt/sokowatt-web/pkg/config"
)

// Doer abstracts the breaker-wrapped HTTP client so tests can swap in a
// plain http.Client against httptest servers.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the typed client for the external marketplace REST API.
// It implements ports.MarketAPI: reads fail soft, writes fail loud.
type Client struct {
	http    Doer
	baseURL string
	apiKey  string
	log     *zap.Logger

	cache        ports.Cache
	listingsTTL  time.Duration
	dashboardTTL time.Duration
}

type Option func(*Client)

// WithCache fronts the listing and dashboard reads with a short-TTL
// cache so page reloads don't re-hit the upstream.
func WithCache(cache ports.Cache, cacheCfg config.CacheConfig) Option {
	return func(c *Client) {
		c.cache = cache
		c.listingsTTL = cacheCfg.ListingsTTL
		c.dashboardTTL = cacheCfg.DashboardTTL
	}
}

func NewClient(cfg config.UpstreamConfig, httpClient Doer, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type authResponse struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// FetchListings returns the marketplace listings matching the filter.
// On any failure it logs and returns an empty slice so the marketplace
// page degrades to "no listings" rather than crashing.
func (c *Client) FetchListings(ctx context.Context, filter domain.ListingFilter) []domain.Listing {
	cacheKey := listingsCacheKey(filter)
	if cached, ok := c.cacheGet(ctx, cacheKey); ok {
		var listings []domain.Listing
		if err := json.Unmarshal([]byte(cached), &listings); err == nil {
			return listings
		}
	}

	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.EnergyType != "" {
		query.Set("energy_type", string(filter.EnergyType))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	body, err := c.get(ctx, "fetch_listings", "/listings/", query, "")
	if err != nil {
		c.log.Error("Failed to fetch listings", zap.Error(err))
		return []domain.Listing{}
	}

	var envelope dataEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.log.Error("Failed to decode listings response", zap.Error(err))
		return []domain.Listing{}
	}
	var listings []domain.Listing
	if err := json.Unmarshal(envelope.Data, &listings); err != nil {
		c.log.Error("Failed to decode listings payload", zap.Error(err))
		return []domain.Listing{}
	}

	c.cacheSet(ctx, cacheKey, listings, c.listingsTTL)
	return listings
}

// FetchListingByID returns a single listing, or nil on any failure.
func (c *Client) FetchListingByID(ctx context.Context, id string) *domain.Listing {
	body, err := c.get(ctx, "fetch_listing", "/listings/"+url.PathEscape(id), nil, "")
	if err != nil {
		c.log.Error("Failed to fetch listing", zap.String("listing_id", id), zap.Error(err))
		return nil
	}

	var envelope dataEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.log.Error("Failed to decode listing response", zap.Error(err))
		return nil
	}
	var listing domain.Listing
	if err := json.Unmarshal(envelope.Data, &listing); err != nil {
		c.log.Error("Failed to decode listing payload", zap.Error(err))
		return nil
	}
	return &listing
}

// FetchDashboardMetrics returns the public metric snapshot, nil on failure.
func (c *Client) FetchDashboardMetrics(ctx context.Context) *domain.DashboardMetrics {
	if cached, ok := c.cacheGet(ctx, "dashboard:metrics"); ok {
		var metrics domain.DashboardMetrics
		if err := json.Unmarshal([]byte(cached), &metrics); err == nil {
			return &metrics
		}
	}

	body, err := c.get(ctx, "fetch_dashboard_metrics", "/dashboard/metrics", nil, "")
	if err != nil {
		c.log.Error("Failed to fetch dashboard metrics", zap.Error(err))
		return nil
	}

	var metrics domain.DashboardMetrics
	if err := json.Unmarshal(body, &metrics); err != nil {
		c.log.Error("Failed to decode dashboard metrics", zap.Error(err))
		return nil
	}

	c.cacheSet(ctx, "dashboard:metrics", metrics, c.dashboardTTL)
	return &metrics
}

// FetchPerformancePredictions returns the generation forecast, empty on failure.
func (c *Client) FetchPerformancePredictions(ctx context.Context) []domain.PerformancePrediction {
	if cached, ok := c.cacheGet(ctx, "dashboard:predictions"); ok {
		var predictions []domain.PerformancePrediction
		if err := json.Unmarshal([]byte(cached), &predictions); err == nil {
			return predictions
		}
	}

	body, err := c.get(ctx, "fetch_predictions", "/dashboard/predictions", nil, "")
	if err != nil {
		c.log.Error("Failed to fetch performance predictions", zap.Error(err))
		return []domain.PerformancePrediction{}
	}

	var predictions []domain.PerformancePrediction
	if err := json.Unmarshal(body, &predictions); err != nil {
		c.log.Error("Failed to decode performance predictions", zap.Error(err))
		return []domain.PerformancePrediction{}
	}

	c.cacheSet(ctx, "dashboard:predictions", predictions, c.dashboardTTL)
	return predictions
}

// FetchMyPurchases returns the caller's purchase history. Missing token
// is loud; transport and HTTP failures degrade to an empty history.
func (c *Client) FetchMyPurchases(ctx context.Context, token string) ([]domain.Transaction, error) {
	return c.fetchTransactions(ctx, "fetch_my_purchases", "/transactions/me", token)
}

func (c *Client) FetchMyPurchaseSummary(ctx context.Context, token string) (*domain.PurchaseSummary, error) {
	return c.fetchSummary(ctx, "fetch_my_purchase_summary", "/transactions/me/summary", token)
}

func (c *Client) FetchMySales(ctx context.Context, token string) ([]domain.Transaction, error) {
	return c.fetchTransactions(ctx, "fetch_my_sales", "/transactions/sales", token)
}

func (c *Client) FetchMySalesSummary(ctx context.Context, token string) (*domain.PurchaseSummary, error) {
	return c.fetchSummary(ctx, "fetch_my_sales_summary", "/transactions/sales/summary", token)
}

func (c *Client) fetchTransactions(ctx context.Context, op, path, token string) ([]domain.Transaction, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	body, err := c.get(ctx, op, path, nil, token)
	if err != nil {
		c.log.Error("Failed to fetch transaction history", zap.String("op", op), zap.Error(err))
		return []domain.Transaction{}, nil
	}

	var txs []domain.Transaction
	if err := json.Unmarshal(body, &txs); err != nil {
		c.log.Error("Failed to decode transaction history", zap.String("op", op), zap.Error(err))
		return []domain.Transaction{}, nil
	}
	return txs, nil
}

func (c *Client) fetchSummary(ctx context.Context, op, path, token string) (*domain.PurchaseSummary, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	body, err := c.get(ctx, op, path, nil, token)
	if err != nil {
		c.log.Error("Failed to fetch summary", zap.String("op", op), zap.Error(err))
		return nil, nil
	}

	var summary domain.PurchaseSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		c.log.Error("Failed to decode summary", zap.String("op", op), zap.Error(err))
		return nil, nil
	}
	return &summary, nil
}

// CreateListing posts a new listing. JSON by default; multipart when
// the draft carries an image upload.
func (c *Client) CreateListing(ctx context.Context, token string, draft domain.ListingDraft) (*domain.Listing, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	var (
		payload     io.Reader
		contentType string
	)
	if len(draft.Image) > 0 {
		body, ct, err := encodeListingMultipart(draft)
		if err != nil {
			return nil, err
		}
		payload, contentType = body, ct
	} else {
		data, err := json.Marshal(listingPayload(draft))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal listing: %w", err)
		}
		payload, contentType = bytes.NewReader(data), "application/json"
	}

	body, err := c.send(ctx, "create_listing", http.MethodPost, "/listings/", token, payload, contentType)
	if err != nil {
		return nil, err
	}
	return decodeListing(body)
}

// UpdateListing puts the edited fields as JSON.
func (c *Client) UpdateListing(ctx context.Context, token, id string, draft domain.ListingDraft) (*domain.Listing, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	data, err := json.Marshal(listingPayload(draft))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listing: %w", err)
	}

	body, err := c.send(ctx, "update_listing", http.MethodPut, "/listings/"+url.PathEscape(id), token, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeListing(body)
}

func (c *Client) DeleteListing(ctx context.Context, token, id string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	_, err := c.send(ctx, "delete_listing", http.MethodDelete, "/listings/"+url.PathEscape(id), token, nil, "")
	return err
}

// CreatePurchase submits a purchase for kwh against a listing and
// returns the created transaction.
func (c *Client) CreatePurchase(ctx context.Context, token, listingID string, kwh float64) (*domain.Transaction, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	data, err := json.Marshal(map[string]interface{}{
		"listing_id": listingID,
		"kwh":        kwh,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal purchase: %w", err)
	}

	body, err := c.send(ctx, "create_purchase", http.MethodPost, "/transactions/", token, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}

	var tx domain.Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return &tx, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.authenticate(ctx, "login", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.Session, error) {
	return c.authenticate(ctx, "register", "/auth/register", reg)
}

func (c *Client) authenticate(ctx context.Context, op, path string, payload interface{}) (*domain.Session, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	body, err := c.send(ctx, op, http.MethodPost, path, "", bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return nil, &HTTPError{StatusCode: http.StatusOK, Message: "incomplete auth response"}
	}
	return &domain.Session{Token: resp.AccessToken, User: resp.User}, nil
}

// get performs a fail-loud GET; the fail-soft wrappers above decide
// what to do with the error.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, token string) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	c.setHeaders(req, token, "")

	return c.roundTrip(op, req)
}

func (c *Client) send(ctx context.Context, op, method, path, token string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	c.setHeaders(req, token, contentType)

	return c.roundTrip(op, req)
}

func (c *Client) roundTrip(op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.UpstreamRequests.WithLabelValues(op, "network_error").Inc()
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	telemetry.UpstreamLatency.Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.UpstreamRequests.WithLabelValues(op, "network_error").Inc()
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		telemetry.UpstreamRequests.WithLabelValues(op, "http_error").Inc()
		return nil, decodeHTTPError(resp.StatusCode, body)
	}

	telemetry.UpstreamRequests.WithLabelValues(op, "ok").Inc()
	return body, nil
}

func (c *Client) setHeaders(req *http.Request, token, contentType string) {
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

// decodeHTTPError pulls the server's message out of an error response,
// accepting either a "message" or an "error" field.
func decodeHTTPError(status int, body []byte) *HTTPError {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return &HTTPError{StatusCode: status, Message: parsed.Message}
		}
		if parsed.Error != "" {
			return &HTTPError{StatusCode: status, Message: parsed.Error}
		}
	}
	return &HTTPError{StatusCode: status}
}

func decodeListing(body []byte) (*domain.Listing, error) {
	var listing domain.Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	return &listing, nil
}

func listingPayload(draft domain.ListingDraft) map[string]interface{} {
	return map[string]interface{}{
		"title":      draft.Title,
		"energyType": string(draft.EnergyType),
		"quantity":   draft.QuantityKWh,
		"price":      draft.PricePerKWh,
		"location":   draft.Location,
		"status":     string(draft.Status),
	}
}

func encodeListingMultipart(draft domain.ListingDraft) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":      draft.Title,
		"energyType": string(draft.EnergyType),
		"quantity":   strconv.FormatFloat(draft.QuantityKWh, 'f', -1, 64),
		"price":      strconv.FormatFloat(draft.PricePerKWh, 'f', -1, 64),
		"location":   draft.Location,
		"status":     string(draft.Status),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write multipart field %s: %w", name, err)
		}
	}

	imageName := draft.ImageName
	if imageName == "" {
		imageName = "listing-image"
	}
	part, err := writer.CreateFormFile("image", imageName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(draft.Image); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func (c *Client) cacheGet(ctx context.Context, key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	value, err := c.cache.Get(ctx, key)
	if err != nil {
		return "", false
	}
	return value, true
}

func (c *Client) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(data), ttl); err != nil {
		c.log.Debug("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func listingsCacheKey(filter domain.ListingFilter) string {
	return fmt.Sprintf("listings:%s:%s:%d", filter.Status, filter.EnergyType, filter.Limit)
}
