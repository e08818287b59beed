package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/observability/telemetry"
	"github.com/sokowatt/sokowatt-web/internal/ports"
)

// EventKind distinguishes session change notifications.
type EventKind string

const (
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"
)

// Event is broadcast to subscribers (the websocket hub feeding the
// navigation bar) whenever a session appears or disappears.
type Event struct {
	Kind EventKind    `json:"kind"`
	User *domain.User `json:"user,omitempty"`
}

// Manager enforces the all-or-nothing session invariant on top of a
// store and fans out change events.
type Manager struct {
	store ports.SessionStore
	ttl   time.Duration
	log   *zap.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewManager(store ports.SessionStore, ttl time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log,
		subs:  make(map[chan Event]struct{}),
	}
}

// Establish saves a freshly authenticated session and announces it.
func (m *Manager) Establish(ctx context.Context, sid string, sess domain.Session) error {
	if !sess.Valid() {
		return fmt.Errorf("refusing to store partial session")
	}
	if err := m.store.Save(ctx, sid, sess, m.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	telemetry.SessionsActive.Inc()
	m.broadcast(Event{Kind: EventLogin, User: &sess.User})
	return nil
}

// Current returns the live session for sid, or nil when logged out.
// Partial blobs and sessions whose bearer token has already expired
// read as absent and are cleared.
func (m *Manager) Current(ctx context.Context, sid string) *domain.Session {
	if sid == "" {
		return nil
	}

	sess, err := m.store.Load(ctx, sid)
	if err != nil {
		m.log.Error("Failed to load session", zap.Error(err))
		return nil
	}
	if sess == nil {
		return nil
	}
	if !sess.Valid() || tokenExpired(sess.Token) {
		if err := m.store.Clear(ctx, sid); err != nil {
			m.log.Warn("Failed to clear dead session", zap.Error(err))
		}
		return nil
	}
	return sess
}

// Terminate clears the session; used for logout and for 401/422
// responses from authenticated upstream writes.
func (m *Manager) Terminate(ctx context.Context, sid string) {
	if sid == "" {
		return
	}
	sess, _ := m.store.Load(ctx, sid)
	if err := m.store.Clear(ctx, sid); err != nil {
		m.log.Warn("Failed to clear session", zap.Error(err))
		return
	}
	if sess != nil && sess.Valid() {
		telemetry.SessionsActive.Dec()
		m.broadcast(Event{Kind: EventLogout, User: &sess.User})
	}
}

// Subscribe registers for session change events. The returned cancel
// func must be called to stop delivery.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Manager) broadcast(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; drop rather than block a login.
		}
	}
}

// tokenExpired inspects the bearer token's exp claim without verifying
// the signature: verification belongs to the upstream API, this is only
// an early drop of sessions that are certainly dead. Opaque tokens that
// don't parse as JWTs are kept.
func tokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
