// Package events fans resolved calls out to subscribed clients over
// server-sent events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Event types.
const (
	TypePing = "ping"
	TypeCall = "call"
)

// Publisher pushes an event to whoever is listening.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// Hub is an in-memory SSE broadcaster. A subscriber whose queue is full
// misses events instead of blocking the publisher.
type Hub struct {
	buffer int

	mu   sync.RWMutex
	subs map[string]chan []byte
}

// NewHub creates a Hub. A non-positive buffer uses DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{buffer: buffer, subs: make(map[string]chan []byte)}
}

// Frame encodes one SSE message.
func Frame(eventType string, data any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrapf(err, "events: marshal %s", eventType)
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", eventType, b), nil
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes its channel.
func (h *Hub) Subscribe() (string, <-chan []byte, func()) {
	id := uuid.NewString()
	ch := make(chan []byte, h.buffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish implements Publisher.
func (h *Hub) Publish(_ context.Context, eventType string, data any) error {
	frame, err := Frame(eventType, data)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- frame:
		default:
			zap.L().Warn("events: subscriber queue full, dropping event",
				zap.String("subscriber", id),
				zap.String("event", eventType),
			)
		}
	}
	return nil
}

// ServeHTTP streams events to one client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	id, ch, cancel := h.Subscribe()
	defer cancel()
	log := zap.L().With(zap.String("subscriber", id))
	log.Debug("events: client connected")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ping, _ := Frame(TypePing, struct{}{})
	if _, err := w.Write(ping); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("events: client disconnected")
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				log.Debug("events: write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}
