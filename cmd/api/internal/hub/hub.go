package hub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// Subscriber is one live network consumer. TrySend must be non-blocking: a
// consumer that cannot keep up returns an error instead of stalling the
// fan-out pass.
type Subscriber interface {
	ID() string
	TrySend(b []byte) error
	Close()
}

// Hub owns the registry of connected subscribers and fans each bridge event
// out to all of them. It is the only structure in the process mutated by
// multiple concurrent actors.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[Subscriber]bool),
		logger:      logger,
	}
}

func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = true
	total := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Info("subscriber connected",
		zap.String("subscriber", sub.ID()), zap.Int("total", total))
}

// Deregister removes and closes a subscriber. Removing an already-absent
// subscriber is a no-op.
func (h *Hub) Deregister(sub Subscriber) {
	h.mu.Lock()
	if !h.subscribers[sub] {
		h.mu.Unlock()
		return
	}
	delete(h.subscribers, sub)
	total := len(h.subscribers)
	h.mu.Unlock()

	sub.Close()
	h.logger.Info("subscriber disconnected",
		zap.String("subscriber", sub.ID()), zap.Int("total", total))
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast serializes the event once and delivers the identical bytes to
// every registered subscriber. Failed subscribers are removed only after the
// pass over the snapshot completes, so the in-flight iteration is never
// mutated.
func (h *Hub) Broadcast(ev models.TradeEvent) {
	h.mu.RLock()
	if len(h.subscribers) == 0 {
		h.mu.RUnlock()
		return
	}
	snapshot := make([]Subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	payload, err := ev.Encode()
	if err != nil {
		h.logger.Error("failed to encode event for fan-out", zap.Error(err))
		return
	}

	var dead []Subscriber
	for _, sub := range snapshot {
		if err := sub.TrySend(payload); err != nil {
			h.logger.Warn("dropping subscriber",
				zap.String("subscriber", sub.ID()), zap.Error(err))
			dead = append(dead, sub)
		}
	}

	for _, sub := range dead {
		h.Deregister(sub)
	}
}
