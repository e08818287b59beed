package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/sokowatt/sokowatt-web/internal/domain"
)

// MockSessionStore is a mock implementation of ports.SessionStore
// backed by a map. Overrides take precedence over the map.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session

	SaveFunc  func(ctx context.Context, sid string, sess domain.Session, ttl time.Duration) error
	LoadFunc  func(ctx context.Context, sid string) (*domain.Session, error)
	ClearFunc func(ctx context.Context, sid string) error
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]domain.Session)}
}

func (m *MockSessionStore) Save(ctx context.Context, sid string, sess domain.Session, ttl time.Duration) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, sid, sess, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sid] = sess
	return nil
}

func (m *MockSessionStore) Load(ctx context.Context, sid string) (*domain.Session, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, sid)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[sid]; ok {
		return &sess, nil
	}
	return nil, nil
}

func (m *MockSessionStore) Clear(ctx context.Context, sid string) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, sid)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
	return nil
}

// MockToaster is a mock implementation of ports.Toaster that records
// every toast shown.
type MockToaster struct {
	mu     sync.Mutex
	Shown  []domain.Toast
	active map[string]domain.Toast

	ShowFunc func(message string, kind domain.ToastKind) domain.Toast
}

func NewMockToaster() *MockToaster {
	return &MockToaster{active: make(map[string]domain.Toast)}
}

func (m *MockToaster) Show(message string, kind domain.ToastKind) domain.Toast {
	if m.ShowFunc != nil {
		return m.ShowFunc(message, kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := domain.Toast{ID: message, Message: message, Kind: kind}
	m.Shown = append(m.Shown, t)
	m.active[t.ID] = t
	return t
}

func (m *MockToaster) Dismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, id)
}

func (m *MockToaster) Active() []domain.Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Toast, 0, len(m.active))
	for _, t := range m.active {
		out = append(out, t)
	}
	return out
}

// LastShown returns the most recent toast, or nil.
func (m *MockToaster) LastShown() *domain.Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Shown) == 0 {
		return nil
	}
	t := m.Shown[len(m.Shown)-1]
	return &t
}
