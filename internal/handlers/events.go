package handlers

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"bmad-board/internal/models"
)

// ChangeEventName is the server-sent event name of file change notifications
const ChangeEventName = "bmad-file-change"

const subscriberBuffer = 16

// EventHub fans watcher change events out to stream subscribers
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan models.ChangeEvent
	counter     uint64
}

// NewEventHub creates an empty hub
func NewEventHub() *EventHub {
	return &EventHub{subscribers: make(map[uint64]chan models.ChangeEvent)}
}

// Subscribe registers a subscriber. The returned function unregisters it and
// closes the channel.
func (h *EventHub) Subscribe() (<-chan models.ChangeEvent, func()) {
	id := atomic.AddUint64(&h.counter, 1)
	events := make(chan models.ChangeEvent, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[id] = events
	h.mu.Unlock()

	return events, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(events)
		}
	}
}

// Close unregisters every subscriber, ending their streams
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, events := range h.subscribers {
		delete(h.subscribers, id)
		close(events)
	}
}

// Publish delivers event to every subscriber. Subscribers with a full buffer miss it.
func (h *EventHub) Publish(event models.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, events := range h.subscribers {
		select {
		case events <- event:
		default:
			klog.V(2).Infof("events: subscriber %d is behind, dropping %s", id, event.Path)
		}
	}
}

// Subscribers returns the number of registered subscribers
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// EventHandler streams change events to HTTP clients
type EventHandler struct {
	hub *EventHub
}

// NewEventHandler creates a new event handler
func NewEventHandler(hub *EventHub) *EventHandler {
	return &EventHandler{hub: hub}
}

// Stream sends change events as server-sent events until the client leaves
func (h *EventHandler) Stream(c *gin.Context) {
	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ChangeEventName, event)
			return true
		}
	})
}
