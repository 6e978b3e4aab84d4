package notify

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/engine"
)

// LogNotifier relays engine events into the application log.
type LogNotifier struct {
	Log *logrus.Logger
}

// Publish implements engine.Notifier.
func (n *LogNotifier) Publish(evt engine.Event) {
	n.Log.WithFields(logrus.Fields{
		"session": evt.SessionID,
		"user":    evt.UserID,
		"station": evt.StationName,
		"shift":   evt.Shift,
	}).Info(string(evt.Type))
}

// Hub fans engine events out to subscriber channels. A real-time relay
// (WebSocket gateway, email/SMS dispatcher) subscribes and drains its
// channel; slow subscribers lose events rather than block the engine.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan engine.Event
	next int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan engine.Event)}
}

// Publish implements engine.Notifier. It never blocks.
func (h *Hub) Publish(evt engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a buffered event channel and returns it with its
// cancel function.
func (h *Hub) Subscribe(buffer int) (<-chan engine.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan engine.Event, buffer)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Fanout publishes every event to each notifier in order.
type Fanout []engine.Notifier

// Publish implements engine.Notifier.
func (f Fanout) Publish(evt engine.Event) {
	for _, n := range f {
		n.Publish(evt)
	}
}
