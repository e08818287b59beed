package purchase

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/ports"
)

// Registry hands out one Flow per browser session, so the
// at-most-one-in-flight guard holds per open modal.
type Registry struct {
	api        ports.MarketAPI
	toaster    ports.Toaster
	defaultKWh float64
	currency   string
	log        *zap.Logger

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewRegistry(api ports.MarketAPI, toaster ports.Toaster, defaultKWh float64, currency string, log *zap.Logger) *Registry {
	return &Registry{
		api:        api,
		toaster:    toaster,
		defaultKWh: defaultKWh,
		currency:   currency,
		log:        log,
		flows:      make(map[string]*Flow),
	}
}

// Get returns the session's flow, creating it on first use.
func (r *Registry) Get(sid string) *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.flows[sid]; ok {
		return f
	}
	f := NewFlow(r.api, r.toaster, r.defaultKWh, r.currency, r.log)
	r.flows[sid] = f
	return f
}

// Drop discards the session's flow, e.g. on logout.
func (r *Registry) Drop(sid string) {
	r.mu.Lock()
	delete(r.flows, sid)
	r.mu.Unlock()
}
