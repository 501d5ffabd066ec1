package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
)

// Notification is a toast for the UI. The terminal never renders it.
type Notification struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	At       time.Time `json:"at"`
}

// Notifier is what the cart engine talks to.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Hub keeps a short backlog of notifications and streams new ones to
// listeners (the SSE endpoint). Slow listeners drop messages rather than
// stall the publisher.
type Hub struct {
	mu        sync.Mutex
	backlog   []Notification
	limit     int
	listeners map[chan Notification]struct{}
}

func NewHub(limit int) *Hub {
	if limit <= 0 {
		limit = 50
	}
	return &Hub{limit: limit, listeners: make(map[chan Notification]struct{})}
}

func (h *Hub) Notify(message string, severity Severity) {
	n := Notification{
		ID:       uuid.NewString(),
		Message:  message,
		Severity: severity,
		At:       time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.backlog = append(h.backlog, n)
	if len(h.backlog) > h.limit {
		h.backlog = h.backlog[len(h.backlog)-h.limit:]
	}
	for ch := range h.listeners {
		select {
		case ch <- n:
		default:
		}
	}
}

// Recent returns a copy of the backlog, oldest first.
func (h *Hub) Recent() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Notification, len(h.backlog))
	copy(out, h.backlog)
	return out
}

// Listen registers a stream listener. Call the returned func to detach.
func (h *Hub) Listen() (<-chan Notification, func()) {
	ch := make(chan Notification, 16)
	h.mu.Lock()
	h.listeners[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}
