package ports

import (
	"context"
	"time"

	"github.com/sokowatt/sokowatt-web/internal/domain"
)

// Cache is a string-keyed cache with per-entry TTL. Backed by Redis in
// production and an in-memory map otherwise.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// SessionStore persists the per-browser session blob, keyed by the
// session cookie id. Save and Clear are atomic per key.
type SessionStore interface {
	Save(ctx context.Context, sid string, sess domain.Session, ttl time.Duration) error
	Load(ctx context.Context, sid string) (*domain.Session, error)
	Clear(ctx context.Context, sid string) error
}

// Toaster queues transient notifications for the active browser session.
type Toaster interface {
	Show(message string, kind domain.ToastKind) domain.Toast
	Dismiss(id string)
	Active() []domain.Toast
}
