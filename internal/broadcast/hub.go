package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
)

// DefaultBuffer is the per-observer queue length.
const DefaultBuffer = 64

// Observer is one connected client waiting for the alert outcome.
type Observer struct {
	// ID identifies the observer connection.
	ID string
	// Kind describes the transport, e.g. "sse" or "grpc".
	Kind string

	events  chan domain.Event
	evicted atomic.Bool
}

// Events returns the channel delivering events. It is closed on Unsubscribe,
// on Close and when the observer is evicted.
func (o *Observer) Events() <-chan domain.Event {
	return o.events
}

// Evicted reports whether the hub dropped the observer for falling behind.
// Such a client has missed an event and must poll the state.
func (o *Observer) Evicted() bool {
	return o.evicted.Load()
}

// Hub is the observer registry.
type Hub struct {
	// observers maps connection IDs to live observers.
	observers map[string]*Observer
	// buffer is the queue length of new observers.
	buffer int
	// evicted counts observers removed for a full queue.
	evicted atomic.Uint64
	// closed rejects new subscriptions after Close.
	closed bool
	// mu protects observers and closed.
	mu sync.RWMutex
}

// NewHub creates an empty hub. Non-positive buffer falls back to DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return &Hub{
		observers: make(map[string]*Observer),
		buffer:    buffer,
	}
}

// Subscribe registers a new observer of the given kind.
// After Close it returns an observer whose channel is already closed.
func (h *Hub) Subscribe(kind string) *Observer {
	o := &Observer{
		ID:     uuid.NewString(),
		Kind:   kind,
		events: make(chan domain.Event, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(o.events)
		return o
	}

	h.observers[o.ID] = o

	return o
}

// Unsubscribe removes the observer and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(o *Observer) {
	if o == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.observers[o.ID]; !ok {
		return
	}

	delete(h.observers, o.ID)
	close(o.events)
}

// Broadcast delivers the event to every registered observer and returns how
// many received it. An observer whose queue is full is evicted: its channel
// is closed after the events already queued, so the client disconnects
// instead of silently missing the event.
func (h *Hub) Broadcast(ctx context.Context, event domain.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0

	for id, o := range h.observers {
		select {
		case o.events <- event:
			delivered++
		default:
			delete(h.observers, id)
			o.evicted.Store(true)
			close(o.events)
			h.evicted.Add(1)

			logger.WarnKV(ctx, "Observer queue full, observer evicted",
				"observer_id", o.ID,
				"observer_kind", o.Kind,
				"responder", event.Responder,
			)
		}
	}

	logger.DebugKV(ctx, "Event broadcast",
		"responder", event.Responder,
		"response", event.Response,
		"delivered", delivered,
	)

	return delivered
}

// Evicted returns the number of observers removed for a full queue.
func (h *Hub) Evicted() uint64 {
	return h.evicted.Load()
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.observers)
}

// Close unregisters every observer and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for id, o := range h.observers {
		delete(h.observers, id)
		close(o.events)
	}
}
