package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/observability/telemetry"
	"github.com/sokowatt/sokowatt-web/internal/ports"
)

const (
	// DisplayFor is how long a toast stays up before auto-dismissal.
	DisplayFor = 3 * time.Second
	// DismissGrace delays removal after a manual dismiss so the exit
	// animation can play.
	DismissGrace = 300 * time.Millisecond
)

// EventKind distinguishes queue change notifications.
type EventKind string

const (
	EventShow   EventKind = "show"
	EventRemove EventKind = "remove"
)

type Event struct {
	Kind  EventKind    `json:"kind"`
	Toast domain.Toast `json:"toast"`
}

type entry struct {
	toast   domain.Toast
	leaving bool
}

// Queue is the insertion-ordered set of active toasts. It is passed
// explicitly to whoever needs it rather than living as a package
// global, so the core stays testable. All active toasts render at
// once; there is no dedup or rate limiting.
type Queue struct {
	mu     sync.Mutex
	toasts []entry
	log    *zap.Logger

	now   func() time.Time
	after func(time.Duration, func())

	subs map[chan Event]struct{}
}

var _ ports.Toaster = (*Queue)(nil)

type Option func(*Queue)

// WithClock replaces the wall clock and timer scheduling, used by
// tests to drive expiry deterministically.
func WithClock(now func() time.Time, after func(time.Duration, func())) Option {
	return func(q *Queue) {
		q.now = now
		q.after = after
	}
}

func NewQueue(log *zap.Logger, opts ...Option) *Queue {
	q := &Queue{
		log:   log,
		now:   time.Now,
		after: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		subs:  make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Show appends a toast and schedules its automatic removal.
func (q *Queue) Show(message string, kind domain.ToastKind) domain.Toast {
	t := domain.Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: q.now(),
	}

	q.mu.Lock()
	q.toasts = append(q.toasts, entry{toast: t})
	q.mu.Unlock()

	telemetry.ToastsShown.WithLabelValues(string(kind)).Inc()
	q.broadcast(Event{Kind: EventShow, Toast: t})

	q.after(DisplayFor, func() { q.remove(t.ID) })
	return t
}

// Dismiss marks the toast leaving and removes it after the animation
// grace period. Dismissing an unknown or already-leaving toast is a
// no-op.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	found := false
	for i := range q.toasts {
		if q.toasts[i].toast.ID == id && !q.toasts[i].leaving {
			q.toasts[i].leaving = true
			found = true
			break
		}
	}
	q.mu.Unlock()

	if found {
		q.after(DismissGrace, func() { q.remove(id) })
	}
}

// Active returns the toasts currently on screen, insertion-ordered.
func (q *Queue) Active() []domain.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.Toast, 0, len(q.toasts))
	for _, e := range q.toasts {
		out = append(out, e.toast)
	}
	return out
}

// Subscribe registers for queue change events.
func (q *Queue) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	q.mu.Lock()
	q.subs[ch] = struct{}{}
	q.mu.Unlock()

	cancel := func() {
		q.mu.Lock()
		if _, ok := q.subs[ch]; ok {
			delete(q.subs, ch)
			close(ch)
		}
		q.mu.Unlock()
	}
	return ch, cancel
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	var removed *domain.Toast
	for i := range q.toasts {
		if q.toasts[i].toast.ID == id {
			t := q.toasts[i].toast
			removed = &t
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			break
		}
	}
	q.mu.Unlock()

	if removed != nil {
		q.broadcast(Event{Kind: EventRemove, Toast: *removed})
	}
}

func (q *Queue) broadcast(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for ch := range q.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
