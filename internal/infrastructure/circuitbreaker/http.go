package circuitbreaker

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrUpstreamUnavailable is returned while the breaker is open.
var ErrUpstreamUnavailable = errors.New("upstream temporarily unavailable")

var errServerStatus = errors.New("upstream server error")

// Settings configures the breaker around the upstream HTTP client.
type Settings struct {
	Name             string
	Timeout          time.Duration
	MaxRequests      uint32
	Interval         time.Duration
	BreakerTimeout   time.Duration
	FailureThreshold uint32
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		Timeout:          30 * time.Second,
		MaxRequests:      3,
		Interval:         time.Minute,
		BreakerTimeout:   30 * time.Second,
		FailureThreshold: 5,
	}
}

// HTTPClient wraps an http.Client with circuit breaker protection.
// Transport failures and 5xx responses trip the breaker; 4xx responses
// pass through untouched so callers can read the server's message.
type HTTPClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewHTTPClient(settings Settings, log *zap.Logger) *HTTPClient {
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &HTTPClient{
		client:  &http.Client{Timeout: settings.Timeout},
		breaker: breaker,
		log:     log,
	}
}

// Do executes the request through the breaker.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			// Counted as a failure but the response still reaches the
			// caller, which needs the body for the error message.
			return resp, fmt.Errorf("%w: %d", errServerStatus, resp.StatusCode)
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.log.Warn("Circuit breaker open, request blocked",
			zap.String("url", req.URL.String()),
			zap.String("breaker", c.breaker.Name()),
		)
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, c.breaker.Name())
	}

	if resp, ok := result.(*http.Response); ok && errors.Is(err, errServerStatus) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

// State exposes the current breaker state for health reporting.
func (c *HTTPClient) State() string {
	return c.breaker.State().String()
}
