package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/observability/telemetry"
	"github.com/sokowatt/sokowatt-web/internal/ports"
)

// State is the purchase modal's position in its lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateListingSelected State = "listing_selected"
	StateAmountEntered   State = "amount_entered"
	StateSubmitting      State = "submitting"
)

var (
	// ErrLoginRequired aborts the Idle -> ListingSelected transition
	// when no session is present; the handler redirects to /login.
	ErrLoginRequired = errors.New("login required")
	// ErrInvalidAmount rejects amounts that don't parse, aren't
	// positive, or exceed the listing's available quantity.
	ErrInvalidAmount = errors.New("invalid purchase amount")
	// ErrSubmitInFlight guards the at-most-one-in-flight rule.
	ErrSubmitInFlight = errors.New("purchase already submitting")
	// ErrNoListing means Submit or EnterAmount was called outside an
	// open modal.
	ErrNoListing = errors.New("no listing selected")
)

// Flow is one purchase modal instance:
// Idle -> ListingSelected -> AmountEntered -> Submitting -> (Success | Failed).
// Success resets to Idle; failure returns to AmountEntered for retry.
type Flow struct {
	api        ports.MarketAPI
	toaster    ports.Toaster
	defaultKWh float64
	currency   string
	log        *zap.Logger

	mu         sync.Mutex
	state      State
	listing    *domain.Listing
	amount     float64
	submitting bool
}

func NewFlow(api ports.MarketAPI, toaster ports.Toaster, defaultKWh float64, currency string, log *zap.Logger) *Flow {
	if defaultKWh <= 0 {
		defaultKWh = 10
	}
	return &Flow{
		api:        api,
		toaster:    toaster,
		defaultKWh: defaultKWh,
		currency:   currency,
		log:        log,
		state:      StateIdle,
	}
}

// Select opens the modal for a listing. Requires a live session; the
// seeded amount is min(available quantity, the configured default).
func (f *Flow) Select(listing *domain.Listing, sess *domain.Session) error {
	if !sess.Valid() {
		return ErrLoginRequired
	}
	if listing == nil {
		return ErrNoListing
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return ErrSubmitInFlight
	}

	seeded := f.defaultKWh
	if listing.QuantityKWh < seeded {
		seeded = listing.QuantityKWh
	}

	f.state = StateListingSelected
	f.listing = listing
	f.amount = seeded
	return nil
}

// EnterAmount validates the edited kWh amount. A rejected amount keeps
// the state at ListingSelected and surfaces an error toast; it never
// reaches the network.
func (f *Flow) EnterAmount(raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listing == nil {
		return ErrNoListing
	}
	if f.submitting {
		return ErrSubmitInFlight
	}

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		f.state = StateListingSelected
		f.toaster.Show("Enter a valid energy amount in kWh", domain.ToastError)
		return fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if amount > f.listing.QuantityKWh {
		f.state = StateListingSelected
		f.toaster.Show(
			fmt.Sprintf("Only %.0f kWh available on this listing", f.listing.QuantityKWh),
			domain.ToastError,
		)
		return fmt.Errorf("%w: %g exceeds available %g", ErrInvalidAmount, amount, f.listing.QuantityKWh)
	}

	f.state = StateAmountEntered
	f.amount = amount
	return nil
}

// Submit sends the purchase upstream. At most one submission is in
// flight per flow; the amount is re-checked client-side before any
// request is made. On success the modal closes (Idle); on failure the
// state returns to AmountEntered so the user can retry.
func (f *Flow) Submit(ctx context.Context, token string) (*domain.Transaction, error) {
	f.mu.Lock()
	if f.listing == nil {
		f.mu.Unlock()
		return nil, ErrNoListing
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if f.amount <= 0 || f.amount > f.listing.QuantityKWh {
		f.state = StateListingSelected
		f.mu.Unlock()
		f.toaster.Show("Enter a valid energy amount in kWh", domain.ToastError)
		return nil, fmt.Errorf("%w: %g", ErrInvalidAmount, f.amount)
	}

	listing := f.listing
	amount := f.amount
	f.submitting = true
	f.state = StateSubmitting
	f.mu.Unlock()

	tx, err := f.api.CreatePurchase(ctx, token, listing.ID, amount)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	if err != nil {
		f.state = StateAmountEntered
		telemetry.PurchasesSubmitted.WithLabelValues("failed").Inc()
		f.log.Warn("Purchase failed",
			zap.String("listing_id", listing.ID),
			zap.Float64("kwh", amount),
			zap.Error(err),
		)
		f.toaster.Show(err.Error(), domain.ToastError)
		return nil, err
	}

	telemetry.PurchasesSubmitted.WithLabelValues("success").Inc()
	telemetry.PurchasedEnergyTotal.Add(amount)

	total := amount * listing.PricePerKWh
	f.toaster.Show(
		fmt.Sprintf("Purchased %.0f kWh for %s", amount, domain.FormatMoney(f.currency, total)),
		domain.ToastSuccess,
	)

	f.state = StateIdle
	f.listing = nil
	f.amount = 0
	return tx, nil
}

// Cancel closes the modal. Ignored while a submission is in flight.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return
	}
	f.state = StateIdle
	f.listing = nil
	f.amount = 0
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Amount() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amount
}

func (f *Flow) Listing() *domain.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listing
}

// TotalCost is the displayed quantity x unit price for the current
// selection.
func (f *Flow) TotalCost() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listing == nil {
		return 0
	}
	return f.amount * f.listing.PricePerKWh
}
